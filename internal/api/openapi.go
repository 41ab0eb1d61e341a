package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.json
var openapiJSON []byte

// LoadOpenAPI parses and validates the embedded API document. Called once at
// startup so a malformed document fails the boot, not a request.
func LoadOpenAPI(ctx context.Context) (*openapi3.T, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(openapiJSON)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

// ServeOpenAPI serves the embedded document verbatim.
func ServeOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(openapiJSON)
}
