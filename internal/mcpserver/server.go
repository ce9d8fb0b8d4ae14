// Package mcpserver exposes the Core API to Swagger conversion as an MCP
// (Model Context Protocol) tool over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mark3labs/coreapi2swagger/internal/codec"
	"github.com/mark3labs/coreapi2swagger/internal/document"
	"github.com/mark3labs/coreapi2swagger/internal/swagger"
)

const serverInstructions = `coreapi2swagger MCP server: converts Core API (Core JSON) documents into Swagger 2.0 specifications.

Pass the Core JSON document text in "document". The result is returned as JSON unless format is "yaml". Set check=true to confirm every operation has a unique operationId.`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context, version string, logger *slog.Logger) error {
	server := newServer(version, logger)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func newServer(version string, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	server := mcp.NewServer(
		&mcp.Implementation{Name: "coreapi2swagger", Version: version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	h := &handler{logger: logger}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "coreapi_to_swagger",
		Description: "Convert a Core API document (Core JSON) into a Swagger 2.0 specification. Operations are grouped by URL and HTTP method; links nested under an object are tagged with the object name and renamed <tag>_<name> when names collide.",
	}, h.convert)
	return server
}

type convertInput struct {
	Document string `json:"document"         jsonschema:"Core JSON document text"`
	Format   string `json:"format,omitempty" jsonschema:"Output format: json (default) or yaml"`
	Check    bool   `json:"check,omitempty"  jsonschema:"Fail when operationIds are missing or duplicated"`
}

type convertOutput struct {
	Title          string `json:"title"`
	PathCount      int    `json:"path_count"`
	OperationCount int    `json:"operation_count"`
	Swagger        string `json:"swagger"`
}

type handler struct {
	logger *slog.Logger
}

func (h *handler) convert(_ context.Context, _ *mcp.CallToolRequest, input convertInput) (*mcp.CallToolResult, convertOutput, error) {
	if input.Document == "" {
		return errResult(fmt.Errorf("document is required")), convertOutput{}, nil
	}
	format := swagger.FormatJSON
	if input.Format != "" {
		f, err := swagger.ParseFormat(input.Format)
		if err != nil {
			return errResult(err), convertOutput{}, nil
		}
		format = f
	}

	doc, err := document.Parse([]byte(input.Document))
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	out := codec.Encode(doc, codec.WithLogger(h.logger))
	if input.Check {
		if err := out.Check(); err != nil {
			return errResult(err), convertOutput{}, nil
		}
	}
	data, err := swagger.Marshal(out, format)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	operations := 0
	out.Operations(func(string, string, *swagger.Operation) { operations++ })
	h.logger.Debug("converted document", "title", doc.Title, "operations", operations)

	return nil, convertOutput{
		Title:          doc.Title,
		PathCount:      out.Paths.Len(),
		OperationCount: operations,
		Swagger:        string(data),
	}, nil
}

func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
