package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/diagram"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/registry"
	"github.com/ormasoftchile/gamedef/pkg/report"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

// Handlers serves the gamedef tools. Loader reads documents; Options is the
// base configuration of every validation run.
type Handlers struct {
	Loader  *gamedef.Preprocessor
	Options validate.Options
}

// HandleValidate implements the gamedef/validate MCP tool.
func (h *Handlers) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, res := h.load(ctx, req)
	if res != nil {
		return res, nil
	}
	args := req.GetArguments()

	opts := h.Options
	if failOn, _ := args["fail_on"].(string); failOn != "" {
		sev, err := diag.ParseSeverity(failOn)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		opts.Policy = diag.Policy{FailOn: sev}
	}

	rep, err := validate.Validate(ctx, doc, opts)
	if err != nil {
		return errorResult(fmt.Sprintf("validation aborted: %s", err)), nil
	}

	var buf bytes.Buffer
	switch format, _ := args["format"].(string); format {
	case "", "json":
		err = report.JSON(&buf, rep)
	case "text":
		err = report.Text(&buf, "document", rep, false)
	case "markdown":
		buf.WriteString(report.Markdown("document", rep))
	default:
		return errorResult(fmt.Sprintf("unknown format %q: use 'json', 'text' or 'markdown'", format)), nil
	}
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
		IsError: !rep.OK,
	}, nil
}

// HandlePreprocess implements the gamedef/preprocess MCP tool.
func (h *Handlers) HandlePreprocess(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, res := h.load(ctx, req)
	if res != nil {
		return res, nil
	}
	data, err := yaml.Marshal(doc.Raw())
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleSchema implements the gamedef/schema MCP tool.
func (h *Handlers) HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	schemaType, _ := args["type"].(string)

	var data []byte
	var err error

	switch schemaType {
	case "document":
		data, err = gamedef.EnvelopeJSONSchema()
	case "registry":
		data, err = registry.RegistryJSONSchema()
	default:
		return errorResult(fmt.Sprintf("unknown schema type %q: use 'document' or 'registry'", schemaType)), nil
	}

	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleDiagram implements the gamedef/diagram MCP tool.
func (h *Handlers) HandleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, res := h.load(ctx, req)
	if res != nil {
		return res, nil
	}
	format := diagram.FormatMermaid
	if f, _ := req.GetArguments()["format"].(string); f != "" {
		parsed, err := diagram.ParseFormat(f)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		format = parsed
	}
	out, err := diagram.Generate(doc, format)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(out), nil
}

// load reads the source argument. A non-nil result is the error to return.
func (h *Handlers) load(ctx context.Context, req mcp.CallToolRequest) (*gamedef.Document, *mcp.CallToolResult) {
	src, _ := req.GetArguments()["source"].(string)
	if src == "" {
		return nil, errorResult("source argument is required")
	}
	doc, err := h.Loader.Preprocess(ctx, src)
	if err != nil {
		return nil, errorResult(fmt.Sprintf("load: %s", err))
	}
	return doc, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
