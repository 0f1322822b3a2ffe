package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"pkt.systems/deckd"
	"pkt.systems/deckd/pathguard"
	"pkt.systems/deckd/storage"
)

type toolErrorEnvelope struct {
	ErrorCode string `json:"error_code"`
	Detail    string `json:"detail,omitempty"`
	Retryable bool   `json:"retryable"`
}

func withStructuredToolErrors[In, Out any](h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, input)
		if err == nil {
			return res, out, nil
		}
		var zero Out
		return nil, zero, toolError{Envelope: classifyToolError(err)}
	}
}

type toolError struct {
	Envelope toolErrorEnvelope
}

func (e toolError) Error() string {
	envelope := map[string]any{"error": e.Envelope}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return `{"error":{"error_code":"tool_error","detail":"failed to encode error envelope"}}`
	}
	return string(encoded)
}

// classifyToolError maps the deckd error taxonomy onto stable error codes so
// tool-calling clients can branch without parsing detail strings.
func classifyToolError(err error) toolErrorEnvelope {
	env := toolErrorEnvelope{ErrorCode: "tool_error", Detail: strings.TrimSpace(err.Error())}

	var (
		traversal   *pathguard.TraversalError
		invalidPath *pathguard.InvalidPathError
		duplicate   *deckd.DuplicateIdentifierError
		unknown     *deckd.UnknownIdentifierError
		noTemplate  *deckd.TemplateNotFoundError
		noFile      *deckd.FileNotFoundError
		unsupported *deckd.UnsupportedFormatError
		writeErr    *deckd.WriteError
	)
	switch {
	case errors.As(err, &traversal):
		env.ErrorCode = "path_traversal"
	case errors.As(err, &invalidPath):
		env.ErrorCode = "invalid_path"
	case errors.As(err, &duplicate):
		env.ErrorCode = "duplicate_deck"
	case errors.As(err, &unknown):
		env.ErrorCode = "unknown_deck"
	case errors.Is(err, deckd.ErrNoCurrentDeck):
		env.ErrorCode = "no_current_deck"
	case errors.Is(err, deckd.ErrNoTargetPath):
		env.ErrorCode = "no_target_path"
	case errors.As(err, &noTemplate):
		env.ErrorCode = "template_not_found"
	case errors.As(err, &noFile):
		env.ErrorCode = "file_not_found"
	case errors.As(err, &unsupported):
		env.ErrorCode = "unsupported_format"
	case errors.As(err, &writeErr):
		env.ErrorCode = "write_error"
	case errors.Is(err, storage.ErrUnknownConnection):
		env.ErrorCode = "unknown_connection"
	case errors.Is(err, storage.ErrNotFound):
		env.ErrorCode = "object_not_found"
	default:
		lower := strings.ToLower(env.Detail)
		switch {
		case strings.Contains(lower, "required"),
			strings.Contains(lower, "must be"),
			strings.Contains(lower, "invalid"),
			strings.Contains(lower, "validation"):
			env.ErrorCode = "invalid_argument"
		case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline"):
			env.ErrorCode = "timeout"
			env.Retryable = true
		case strings.Contains(lower, "temporar"), strings.Contains(lower, "try again"):
			env.ErrorCode = "unavailable"
			env.Retryable = true
		}
	}
	return env
}
