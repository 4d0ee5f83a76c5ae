package ratelimit

import (
	"net/http"
	"strconv"

	"contact-stream/internal/jsoncodec"
)

// RejectFunc escreve a resposta de uma requisição barrada.
type RejectFunc func(w http.ResponseWriter, r *http.Request, status int, message string)

type errorBody struct {
	Error string `json:"error"`
}

// JSONReject responde {"error": message} com o status dado.
func JSONReject(w http.ResponseWriter, _ *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = jsoncodec.Encode(w, errorBody{Error: message})
}

func formatInt(v int) string { return strconv.Itoa(v) }
