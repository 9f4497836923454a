// Package api exposes the capture-and-classification pipeline over HTTP: one
// classify endpoint, the pending-draft editing surface, the ledger, and the
// summary views the dashboard renders.
package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dyuan/voiceledger/internal/aikey"
	"github.com/dyuan/voiceledger/internal/inference"
	"github.com/dyuan/voiceledger/internal/ledger"
	"github.com/dyuan/voiceledger/internal/metrics"
	"github.com/dyuan/voiceledger/internal/session"
	"github.com/dyuan/voiceledger/internal/storage"
)

const maxAudioBytes = 16 << 20

// Handler bundles the pipeline components behind the HTTP surface.
type Handler struct {
	store    *ledger.Store
	session  *session.Session
	client   *inference.Client
	resolver *aikey.Resolver
	slot     storage.Slot
	loc      *time.Location
	log      zerolog.Logger

	// busy mirrors the disabled capture control: while a classification
	// call is outstanding, a second one is rejected, not queued.
	busy atomic.Bool
}

// NewHandler wires the pipeline components into an HTTP handler set.
func NewHandler(
	store *ledger.Store,
	sess *session.Session,
	client *inference.Client,
	resolver *aikey.Resolver,
	slot storage.Slot,
	loc *time.Location,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		store:    store,
		session:  sess,
		client:   client,
		resolver: resolver,
		slot:     slot,
		loc:      loc,
		log:      log,
	}
}

type classifyRequest struct {
	Note string `json:"note" validate:"required,max=500"`
}

// Classify handles POST /api/v1/classify. Multipart bodies carry an "audio"
// file; JSON bodies carry a text note fallback. The resulting draft becomes
// the pending draft.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	if !h.busy.CompareAndSwap(false, true) {
		WriteError(w, http.StatusConflict, "A classification call is already in progress")
		return
	}
	defer h.busy.Store(false)

	nowHint := inference.LocalDateTimeHint(time.Now(), h.loc)

	var (
		draft ledger.Draft
		input string
		err   error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		input = "audio"
		payload, perr := readAudioPayload(r)
		if perr != nil {
			WriteError(w, http.StatusBadRequest, perr.Error())
			return
		}
		draft, err = h.client.ClassifyAudio(r.Context(), payload, nowHint)
	} else {
		input = "text"
		var req classifyRequest
		if derr := decodeJSON(r, &req); derr != nil {
			WriteError(w, http.StatusBadRequest, derr.Error())
			return
		}
		draft, err = h.client.ClassifyText(r.Context(), req.Note, nowHint)
	}

	if err != nil {
		h.writeClassifyError(w, input, err)
		return
	}

	metrics.ClassificationsTotal.WithLabelValues(input, metrics.OutcomeOK).Inc()
	h.session.Present(draft)
	WriteJSON(w, http.StatusOK, draft)
}

// readAudioPayload extracts the uploaded recording, preferring the declared
// content type and falling back to sniffing when the client omitted it.
func readAudioPayload(r *http.Request) (inference.AudioPayload, error) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		return inference.AudioPayload{}, errors.New("invalid multipart body")
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		return inference.AudioPayload{}, errors.New(`multipart field "audio" is required`)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		return inference.AudioPayload{}, errors.New("failed to read audio upload")
	}
	if len(data) == 0 {
		return inference.AudioPayload{}, errors.New("audio upload is empty")
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = mimetype.Detect(data).String()
	}
	return inference.AudioPayload{Data: data, MIMEType: mime}, nil
}

func (h *Handler) writeClassifyError(w http.ResponseWriter, input string, err error) {
	var upstream *inference.UpstreamError
	var malformed *inference.MalformedResponseError

	switch {
	case errors.Is(err, inference.ErrMissingCredential):
		metrics.ClassificationsTotal.WithLabelValues(input, metrics.OutcomeMissingCredential).Inc()
		WriteError(w, http.StatusUnprocessableEntity,
			"No Gemini API key configured. Set GEMINI_API_KEY or save one via PUT /api/v1/settings/api-key.")
	case errors.As(err, &malformed):
		metrics.ClassificationsTotal.WithLabelValues(input, metrics.OutcomeMalformed).Inc()
		h.log.Error().Str("reason", malformed.Reason).Msg("Model returned a malformed response")
		WriteError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &upstream):
		metrics.ClassificationsTotal.WithLabelValues(input, metrics.OutcomeUpstreamError).Inc()
		msg := err.Error()
		if upstream.CredentialHint() {
			msg += " (this looks like an API key problem; check the configured credential)"
		}
		h.log.Error().Err(err).Msg("Inference call failed")
		WriteError(w, http.StatusBadGateway, msg)
	default:
		metrics.ClassificationsTotal.WithLabelValues(input, metrics.OutcomeUpstreamError).Inc()
		h.log.Error().Err(err).Msg("Classification failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// Pending handles GET /api/v1/pending.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.session.Pending()
	if !ok {
		WriteError(w, http.StatusNotFound, "No pending draft")
		return
	}
	WriteJSON(w, http.StatusOK, draft)
}

// EditPending handles PATCH /api/v1/pending.
func (h *Handler) EditPending(w http.ResponseWriter, r *http.Request) {
	var patch session.Patch
	if err := decodeJSON(r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.session.Edit(patch); err != nil {
		if errors.Is(err, session.ErrNoPendingDraft) {
			WriteError(w, http.StatusNotFound, "No pending draft")
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft, _ := h.session.Pending()
	WriteJSON(w, http.StatusOK, draft)
}

// ConfirmPending handles POST /api/v1/pending/confirm.
func (h *Handler) ConfirmPending(w http.ResponseWriter, r *http.Request) {
	tx, err := h.session.Confirm()
	if err != nil {
		if errors.Is(err, session.ErrNoPendingDraft) {
			WriteError(w, http.StatusNotFound, "No pending draft")
			return
		}
		h.log.Error().Err(err).Msg("Failed to persist confirmed transaction")
		WriteError(w, http.StatusInternalServerError, "Failed to save transaction")
		return
	}
	metrics.TransactionsConfirmed.Inc()
	WriteJSON(w, http.StatusCreated, tx)
}

// CancelPending handles DELETE /api/v1/pending.
func (h *Handler) CancelPending(w http.ResponseWriter, r *http.Request) {
	h.session.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions handles GET /api/v1/transactions, in display order.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := ledger.SortForDisplay(h.store.Snapshot())
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// RemoveTransaction handles DELETE /api/v1/transactions/{id}.
func (h *Handler) RemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Transaction ID is required")
		return
	}
	if err := h.store.Remove(id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to remove transaction")
		WriteError(w, http.StatusInternalServerError, "Failed to remove transaction")
		return
	}
	metrics.TransactionsRemoved.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/v1/summary: totals plus the expense breakdown.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	snapshot := h.store.Snapshot()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"summary":   ledger.Summarize(snapshot),
		"breakdown": ledger.BreakdownByCategory(snapshot),
	})
}

// KeySource handles GET /api/v1/key-source, for the settings display.
func (h *Handler) KeySource(w http.ResponseWriter, r *http.Request) {
	_, source := h.resolver.Resolve()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"source":     source,
		"configured": source != aikey.SourceMissing,
	})
}

type apiKeyRequest struct {
	APIKey string `json:"apiKey" validate:"required,min=8"`
}

// SaveAPIKey handles PUT /api/v1/settings/api-key, the manual override slot.
func (h *Handler) SaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := aikey.SaveOverride(h.slot, req.APIKey); err != nil {
		h.log.Error().Err(err).Msg("Failed to save API key override")
		WriteError(w, http.StatusInternalServerError, "Failed to save API key")
		return
	}
	_, source := h.resolver.Resolve()
	WriteJSON(w, http.StatusOK, map[string]string{"source": source})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
