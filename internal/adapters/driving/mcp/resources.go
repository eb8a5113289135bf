package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for medroute resources.
	uriScheme = "medroute://"

	// historyLimit caps the builds resource.
	historyLimit = 20
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "topics",
		Name:        "topics",
		Description: "Routable literature topics with their representative titles",
		MIMEType:    "application/json",
	}, s.handleTopicsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "topics/{topic}",
		Name:        "topic",
		Description: "A single literature topic",
		MIMEType:    "application/json",
	}, s.handleTopicResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "builds",
		Name:        "builds",
		Description: "Recent router builds, newest first",
		MIMEType:    "application/json",
	}, s.handleBuildsResource)
}

// handleTopicsResource returns every routable topic.
func (s *Server) handleTopicsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Query.Topics())
}

// handleTopicResource returns one topic by name.
func (s *Server) handleTopicResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractTopicName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	for _, t := range s.ports.Query.Topics() {
		if t.Name == name {
			return jsonResource(req.Params.URI, t)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// handleBuildsResource returns recent build reports.
func (s *Server) handleBuildsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Build == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	reports, err := s.ports.Build.History(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	return jsonResource(req.Params.URI, reports)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTopicName extracts the topic from a URI like medroute://topics/{topic}.
func extractTopicName(uri string) string {
	const prefix = uriScheme + "topics/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
