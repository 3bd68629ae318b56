// Package api contém os handlers dos endpoints fixos e a montagem do pipeline
// HTTP (identidade, admissão, timeout por rota).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"record-gateway/records"

	"github.com/rs/zerolog/hlog"
)

const maxUploadBytes = 1 << 20

// RecordStore é o que os handlers usam do records.Store.
type RecordStore interface {
	Append(ctx context.Context, rec records.Record) error
	ReadAll(ctx context.Context) ([]records.Record, error)
}

// Handlers implementa os endpoints sobre um RecordStore.
type Handlers struct {
	Store RecordStore
	// DelaySleep é quanto /delay dorme; TimeoutSleep é quanto /timeout dorme.
	DelaySleep   time.Duration
	TimeoutSleep time.Duration
}

func (h *Handlers) Healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// sleepThenRespond dorme d e responde 200 vazio. Se o contexto for cancelado
// antes (timeout ou cliente foi embora) retorna sem escrever.
func sleepThenRespond(d time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := time.NewTimer(d)
		defer t.Stop()

		select {
		case <-t.C:
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	}
}

func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	dec.DisallowUnknownFields()

	var rec records.Record
	if err := dec.Decode(&rec); err != nil {
		log.Warn().Err(err).Msg("upload: malformed body")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if dec.More() {
		log.Warn().Msg("upload: more than one record in body")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	err := h.Store.Append(r.Context(), rec)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, records.ErrSchemaViolation):
		log.Warn().Err(err).Msg("upload: schema violation")
		w.WriteHeader(http.StatusBadRequest)
	case r.Context().Err() != nil:
		// o guard de timeout (ou o cliente) já decidiu a resposta
	default:
		log.Error().Err(err).Msg("upload: store append failed")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	recs, err := h.Store.ReadAll(r.Context())
	if err != nil {
		if r.Context().Err() == nil {
			log.Error().Err(err).Msg("download: store read failed")
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	body, err := json.Marshal(recs)
	if err != nil {
		log.Error().Err(err).Msg("download: encode failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
