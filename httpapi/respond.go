package httpapi

import (
	"log/slog"
	"net/http"

	"contact-stream/contact/domain"
	"contact-stream/internal/jsoncodec"
)

// Mensagens públicas de erro. O cliente nunca vê a causa interna.
const (
	MsgInvalidJSON      = "Invalid JSON"
	MsgPayloadTooLarge  = "Payload too large"
	MsgDatabaseError    = "Database error"
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgInternal         = "Internal server error"
	MsgNoStreaming      = "Streaming unsupported"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = jsoncodec.Encode(w, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// rejectJSON tem a assinatura de ratelimit.RejectFunc.
func rejectJSON(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	writeError(w, status, msg)
}

// writeServiceError traduz os erros do domínio em status + mensagem pública.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	if ve, ok := domain.AsValidation(err); ok {
		writeError(w, http.StatusBadRequest, ve.Message)
		return
	}
	if domain.IsStorage(err) {
		writeError(w, http.StatusInternalServerError, MsgDatabaseError)
		return
	}
	log.Error("Unexpected service error", "err", err)
	writeError(w, http.StatusInternalServerError, MsgInternal)
}
