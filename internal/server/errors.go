package server

import (
	"errors"
	"net/http"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/httpx"
	"github.com/kathembo-tsongo/timetabling-sub001/internal/services/roles"
)

// writeError maps role manager errors to problem responses. Persistence
// failures and anything unexpected become an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	p := httpx.ProblemDetail{Status: http.StatusInternalServerError, Title: "Internal Error"}

	var merr *roles.Error
	if errors.As(err, &merr) {
		p.Detail = merr.Message
		p.Type = "urn:timetableapi:problem:" + roles.KindName(err)
	}

	switch {
	case errors.Is(err, roles.ErrValidation):
		p.Status, p.Title = http.StatusBadRequest, "Validation Failed"
	case errors.Is(err, roles.ErrConflict):
		p.Status, p.Title = http.StatusConflict, "Conflict"
		if merr != nil {
			p.Count = merr.Count
		}
	case errors.Is(err, roles.ErrForbidden):
		p.Status, p.Title = http.StatusForbidden, "Forbidden"
	case errors.Is(err, roles.ErrNotFound):
		p.Status, p.Title = http.StatusNotFound, "Not Found"
	case errors.Is(err, roles.ErrPersistence):
		// Message is already opaque ("failed to <op> role").
	default:
		p.Type = ""
		p.Detail = ""
	}

	httpx.WriteProblem(w, p)
}
