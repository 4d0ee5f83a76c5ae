package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"contact-stream/contact/application"
	"contact-stream/contact/domain"
	"contact-stream/internal/jsoncodec"
)

// ContactService é o que os handlers usam de application.Service.
type ContactService interface {
	Submit(ctx context.Context, sub domain.Submission) (domain.Contact, error)
	ListRecent(ctx context.Context) ([]domain.Contact, error)
	Health(ctx context.Context) application.HealthReport
}

type handlers struct {
	svc       ContactService
	log       *slog.Logger
	bodyLimit int64
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health(r.Context()))
}

func (h *handlers) createContact(w http.ResponseWriter, r *http.Request) {
	sub, status, msg := h.decodeSubmission(w, r)
	if status != 0 {
		writeError(w, status, msg)
		return
	}

	saved, err := h.svc.Submit(r.Context(), sub)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handlers) listContacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListRecent(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// decodeSubmission lê o corpo limitado a bodyLimit bytes.
//
// Corpo vazio, array JSON, ou Content-Type que não seja JSON valem como {} e
// caem na validação do nome. Escalares JSON (1, "x", true) são recusados. Devolve status != 0 quando a requisição já deve ser recusada.
func (h *handlers) decodeSubmission(w http.ResponseWriter, r *http.Request) (domain.Submission, int, string) {
	var sub domain.Submission

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.bodyLimit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return sub, http.StatusRequestEntityTooLarge, MsgPayloadTooLarge
		}
		return sub, http.StatusBadRequest, MsgInvalidJSON
	}
	body = bytes.TrimSpace(body)
	if !isJSON(r.Header.Get("Content-Type")) || len(body) == 0 {
		return sub, 0, ""
	}
	// um array JSON válido não tem campos: vale como {}
	if body[0] == '[' {
		var list []any
		if err := jsoncodec.Unmarshal(body, &list); err != nil {
			return sub, http.StatusBadRequest, MsgInvalidJSON
		}
		return sub, 0, ""
	}
	if err := jsoncodec.Unmarshal(body, &sub); err != nil {
		return sub, http.StatusBadRequest, MsgInvalidJSON
	}
	return sub, 0, ""
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, MsgNotFound)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}
