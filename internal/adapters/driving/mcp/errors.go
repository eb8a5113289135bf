// Package mcp provides an MCP (Model Context Protocol) server adapter for medroute.
// It lets AI assistants route medical questions to literature topics and
// retrieve the most relevant abstracts.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
