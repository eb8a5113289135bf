package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// QueryRequest is the body of POST /api/v1/query.
// UserInput is accepted as an alias for Query.
type QueryRequest struct {
	Query     string `json:"query"`
	UserInput string `json:"userInput"`
	K         *int   `json:"k"`
}

// Hit is one retrieved abstract.
type Hit struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Abstract string  `json:"abstract"`
	Score    float64 `json:"score"`
}

// QueryResponse is the body of a successful query.
type QueryResponse struct {
	Topic      string  `json:"topic"`
	Similarity float64 `json:"similarity"`
	Hits       []Hit   `json:"hits"`
}

// RouteRequest is the body of POST /api/v1/route.
type RouteRequest struct {
	Query string `json:"query"`
	TopN  *int   `json:"top_n"`
}

// RouteResponse is the body of a successful route.
type RouteResponse struct {
	Topics []domain.RouteResult `json:"topics"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}

	query := req.Query
	if strings.TrimSpace(query) == "" {
		query = req.UserInput
	}
	k := s.defaultK
	if req.K != nil {
		k = *req.K
	}

	answer, err := s.query.Answer(c.Request.Context(), query, k)
	if err != nil {
		fail(c, err)
		return
	}

	resp := QueryResponse{
		Topic:      answer.Topic,
		Similarity: answer.Similarity,
		Hits:       make([]Hit, len(answer.Hits)),
	}
	for i, h := range answer.Hits {
		resp.Hits[i] = Hit{ID: h.ID, Title: h.Title, Abstract: h.Abstract, Score: h.Score}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request payload")
		return
	}

	topN := min(DefaultTopN, len(s.query.Topics()))
	if req.TopN != nil {
		topN = *req.TopN
	}

	results, err := s.query.Route(c.Request.Context(), req.Query, topN)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, RouteResponse{Topics: results})
}

func (s *Server) handleTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": s.query.Topics()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"model":  s.query.ModelName(),
		"topics": len(s.query.Topics()),
	})
}
