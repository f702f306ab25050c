package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jubmeng/rainbow/pkg/httputil"
	"github.com/jubmeng/rainbow/pkg/validator"
)

// messageResponse is the body of endpoints that only confirm an action.
type messageResponse struct {
	Message string `json:"message"`
}

// decodeRequest reads and validates a JSON body into dst. On failure it
// writes the error response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		var valErr *validator.ValidationError
		if errors.As(err, &valErr) {
			httputil.WriteError(w, r, err, logger)
			return false
		}
		msg := err.Error()
		if inner := errors.Unwrap(err); inner != nil {
			msg = inner.Error()
		}
		httputil.WriteBadRequest(w, r, "invalid request body: "+msg)
		return false
	}
	return true
}
