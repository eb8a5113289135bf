// Package decode turns embedding API responses into vectors.
//
// Providers and proxies answer in a handful of JSON shapes. Rather than
// nesting fallbacks, Decode runs an ordered list of strategies and records
// the outcome of every attempt, so callers and tests can see which shape
// matched and why the others did not.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Strategy names.
const (
	OpenAIData       = "openai-data"
	OllamaEmbeddings = "ollama-embeddings"
	OllamaLegacy     = "ollama-legacy"
)

// ErrNoMatch is returned when no strategy could decode the payload.
var ErrNoMatch = errors.New("no decode strategy matched the response")

// errShape marks a payload that is valid JSON but not the strategy's shape.
var errShape = errors.New("shape mismatch")

// Strategy decodes a payload expected to hold want vectors.
type Strategy struct {
	Name   string
	Decode func(payload []byte, want int) ([][]float32, error)
}

// Attempt records one strategy's result.
type Attempt struct {
	Strategy string
	Err      error
}

// Outcome records every attempt made by Decode.
type Outcome struct {
	Attempts []Attempt

	// Matched names the strategy that succeeded, or is empty.
	Matched string
}

// Succeeded reports whether any strategy matched.
func (o Outcome) Succeeded() bool {
	return o.Matched != ""
}

// String summarises the attempts, e.g. "openai-data: shape mismatch; ollama-embeddings: ok".
func (o Outcome) String() string {
	parts := make([]string, len(o.Attempts))
	for i, a := range o.Attempts {
		if a.Err == nil {
			parts[i] = a.Strategy + ": ok"
		} else {
			parts[i] = a.Strategy + ": " + a.Err.Error()
		}
	}
	return strings.Join(parts, "; ")
}

// Strategies returns the default strategy order.
func Strategies() []Strategy {
	return []Strategy{
		{Name: OpenAIData, Decode: decodeOpenAIData},
		{Name: OllamaEmbeddings, Decode: decodeOllamaEmbeddings},
		{Name: OllamaLegacy, Decode: decodeOllamaLegacy},
	}
}

// Decode tries strategies in order and returns the first success.
func Decode(payload []byte, want int, strategies ...Strategy) ([][]float32, Outcome, error) {
	if len(strategies) == 0 {
		strategies = Strategies()
	}
	var out Outcome
	for _, s := range strategies {
		vectors, err := s.Decode(payload, want)
		out.Attempts = append(out.Attempts, Attempt{Strategy: s.Name, Err: err})
		if err == nil {
			out.Matched = s.Name
			return vectors, out, nil
		}
	}
	return nil, out, fmt.Errorf("%w (%s)", ErrNoMatch, out.String())
}

// decodeOpenAIData handles {"data":[{"embedding":[...],"index":0}, ...]}.
func decodeOpenAIData(payload []byte, want int) ([][]float32, error) {
	var body struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
			Index     *int      `json:"index"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, errShape
	}
	if len(body.Data) != want {
		return nil, fmt.Errorf("got %d embeddings, want %d", len(body.Data), want)
	}

	out := make([][]float32, want)
	for pos, d := range body.Data {
		i := pos
		if d.Index != nil {
			i = *d.Index
		}
		if i < 0 || i >= want || out[i] != nil {
			return nil, fmt.Errorf("bad embedding index %d", i)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		out[i] = toFloat32(d.Embedding)
	}
	return out, nil
}

// decodeOllamaEmbeddings handles {"embeddings":[[...], ...]} from /api/embed.
func decodeOllamaEmbeddings(payload []byte, want int) ([][]float32, error) {
	var body struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	if len(body.Embeddings) == 0 {
		return nil, errShape
	}
	if len(body.Embeddings) != want {
		return nil, fmt.Errorf("got %d embeddings, want %d", len(body.Embeddings), want)
	}
	out := make([][]float32, want)
	for i, e := range body.Embeddings {
		if len(e) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		out[i] = toFloat32(e)
	}
	return out, nil
}

// decodeOllamaLegacy handles {"embedding":[...]} from /api/embeddings.
// The shape carries one vector, so it only matches single-text requests.
func decodeOllamaLegacy(payload []byte, want int) ([][]float32, error) {
	var body struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	if len(body.Embedding) == 0 {
		return nil, errShape
	}
	if want != 1 {
		return nil, fmt.Errorf("single embedding for %d inputs", want)
	}
	return [][]float32{toFloat32(body.Embedding)}, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
