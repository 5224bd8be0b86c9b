package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/rossyflor/pos-admin/internal/apiclient"
	"github.com/rossyflor/pos-admin/internal/auth"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}

// writeActionError presents an error returned by a container or the auth
// state. The status follows apiclient.Classify.
func writeActionError(w http.ResponseWriter, r *http.Request, err error) {
	switch kind := apiclient.Classify(err); kind {
	case apiclient.KindValidation:
		writeError(w, http.StatusBadRequest, "validation_error", validationMessage(err))
	case apiclient.KindUnauthorized:
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
	case apiclient.KindNotFound:
		writeError(w, http.StatusNotFound, "not_found", "Not found")
	case apiclient.KindTimeout:
		log.Printf("WARN httpserver: %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusGatewayTimeout, "timeout", "Backend did not answer in time")
	case apiclient.KindNetwork:
		log.Printf("ERROR httpserver: %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusBadGateway, "backend_unreachable", "Backend unreachable")
	case apiclient.KindBackend:
		log.Printf("ERROR httpserver: %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusBadGateway, "backend_error", "Backend error")
	default:
		if errors.Is(err, auth.ErrNoToken) {
			writeError(w, http.StatusBadGateway, "backend_error", "Login response carried no token")
			return
		}
		log.Printf("ERROR httpserver: %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// validationMessage strips the generic sentinel text so the caller sees the
// field-level reason.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, apiclient.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(apiclient.ErrValidation.Error())+2:]
	}
	if apiclient.StatusOf(err) != 0 {
		return "Backend rejected the request"
	}
	return msg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
