package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/karthik2365/data-cleaning/internal/domain"
)

// errorResponse is the uniform error body: a human-readable message plus the
// machine-readable taxonomy tag.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// writeError maps a domain error onto its HTTP status and writes the JSON
// error body.
func writeError(w http.ResponseWriter, err error) {
	status, reason := classifyDomainError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Reason: reason})
}

// classifyDomainError maps domain errors to HTTP status codes and reason
// tags.
func classifyDomainError(err error) (int, string) {
	var (
		notFound    *domain.NotFoundError
		expired     *domain.ExpiredError
		validation  *domain.ValidationError
		unsupported *domain.UnsupportedFormatError
		parse       *domain.ParseError
		forbidden   *domain.ForbiddenConstructError
		generation  *domain.GenerationError
		transition  *domain.InvalidTransitionError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not-found"
	case errors.As(err, &expired):
		return http.StatusNotFound, "expired"
	case errors.As(err, &validation):
		return http.StatusBadRequest, "invalid-input"
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType, "unsupported-format"
	case errors.As(err, &parse):
		if parse.Reason == "file-too-large" {
			return http.StatusRequestEntityTooLarge, parse.Reason
		}
		return http.StatusBadRequest, parse.Reason
	case errors.As(err, &forbidden):
		return http.StatusUnprocessableEntity, forbidden.Reason
	case errors.As(err, &generation):
		switch generation.Kind {
		case domain.GenerationTimeout:
			return http.StatusGatewayTimeout, string(generation.Kind)
		case domain.GenerationMalformedOutput:
			return http.StatusUnprocessableEntity, string(generation.Kind)
		default:
			return http.StatusServiceUnavailable, string(generation.Kind)
		}
	case errors.As(err, &transition):
		return http.StatusConflict, "invalid-transition"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
