package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/dotcommander/hive/internal/models"
)

// Response represents a standard JSON response
type Response struct {
	SchemaVersion string      `json:"schema_version"`
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Error         string      `json:"error,omitempty"`
	ErrorCode     string      `json:"error_code,omitempty"`
	Suggestion    string      `json:"suggestion,omitempty"`
}

// Success wraps a successful response with data
func Success(data interface{}) Response {
	return Response{
		SchemaVersion: "v1",
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response. Recoverable errors carry their code
// and suggested action so agents can self-correct without a human.
func Error(err error) Response {
	resp := Response{
		SchemaVersion: "v1",
		Success:       false,
		Error:         err.Error(),
	}
	var recoverable models.RecoverableError
	if errors.As(err, &recoverable) {
		resp.ErrorCode = recoverable.ErrorCode()
		resp.Suggestion = recoverable.SuggestedAction()
	}
	return resp
}

// Config controls where and how JSON is written.
type Config struct {
	Writer io.Writer
	Pretty bool
}

// DefaultConfig writes compact JSON to stdout. Compact is the default to keep
// agent-consumed output small; humans opt into pretty printing via
// HIVE_PRETTY_JSON=1.
func DefaultConfig() Config {
	pretty := os.Getenv("HIVE_PRETTY_JSON")
	return Config{
		Writer: os.Stdout,
		Pretty: pretty == "1" || pretty == "true",
	}
}

// PrintWith encodes v as JSON according to cfg.
func PrintWith(cfg Config, v interface{}) error {
	enc := json.NewEncoder(cfg.Writer)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Print prints a value as JSON to stdout
func Print(v interface{}) error {
	return PrintWith(DefaultConfig(), v)
}

// PrintSuccess prints a success response
func PrintSuccess(data interface{}) error {
	return Print(Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}

// Keep output package focused: commands should handle human-readable formatting.
