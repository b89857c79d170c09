package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/org/assetvault/internal/fault"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// writeFault maps the error taxonomy to HTTP status codes.
func writeFault(w http.ResponseWriter, err error) {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	switch fe.Kind {
	case fault.Validation:
		writeError(w, http.StatusBadRequest, fe.Msg)
	case fault.Conflict:
		writeError(w, http.StatusConflict, fe.Msg)
	case fault.NotFound:
		writeError(w, http.StatusNotFound, fe.Msg)
	case fault.Permission, fault.Crypto:
		// Crypto failures are access failures from the caller's side;
		// details stay server-side.
		writeError(w, http.StatusForbidden, "access denied")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
