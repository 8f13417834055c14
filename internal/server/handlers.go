package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/gustavo-moliveira/recordstore/internal/store"
)

// recordPayload is the wire shape of a record. Number is a pointer so an
// absent value is distinguishable from zero on input.
type recordPayload struct {
	ID     int64   `json:"id,omitempty"`
	Number *int64  `json:"number"`
	Name   *string `json:"name,omitempty"`
}

// errorResponse is the JSON body for failed requests.
type errorResponse struct {
	Error    string `json:"error"`
	Position *int   `json:"position,omitempty"`
}

// writeJSON writes a JSON response with proper error handling.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError maps store errors to status codes: validation failures are the
// caller's fault (400), store failures are reported as unavailable (503).
func writeError(w http.ResponseWriter, err error) {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    ve.Error(),
			Position: &ve.Position,
		})
		return
	}
	if store.IsStore(err) {
		log.Error().Err(err).Msg("Store operation failed")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// toPayloads converts store records to their wire shape.
func toPayloads(records []store.Record) []recordPayload {
	out := make([]recordPayload, len(records))
	for i, rec := range records {
		num := rec.Number
		out[i] = recordPayload{ID: rec.ID, Number: &num}
		if rec.Name.Valid {
			name := rec.Name.String
			out[i].Name = &name
		}
	}
	return out
}

// toInputs converts wire payloads to store inputs, preserving order.
func toInputs(payloads []recordPayload) []store.RecordInput {
	inputs := make([]store.RecordInput, len(payloads))
	for i, p := range payloads {
		inputs[i] = store.RecordInput{Number: p.Number, Name: p.Name}
	}
	return inputs
}

// decodeRecords decodes the request body into record payloads.
func decodeRecords(w http.ResponseWriter, r *http.Request) ([]recordPayload, bool) {
	var payloads []recordPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return nil, false
	}
	return payloads, true
}

// handleHealth reports liveness and version.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.startTime).String(),
	})
}

// handleReady reports readiness by pinging the store.
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleStats returns the row count and connection pool statistics.
func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.records.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	stats := s.store.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": count,
		"pool": map[string]interface{}{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		},
	})
}

// handleRepoFindAll returns all records via the repository API.
func (s *Service) handleRepoFindAll(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.FindAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(records))
}

// handleRepoSearch returns records whose name contains the "name" query
// parameter, case-insensitively, via the repository API.
func (s *Service) handleRepoSearch(w http.ResponseWriter, r *http.Request) {
	records, err := s.records.FindByNameContains(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(records))
}

// handleRepoBatchInsert persists the whole batch in one transaction via the
// repository API.
func (s *Service) handleRepoBatchInsert(w http.ResponseWriter, r *http.Request) {
	payloads, ok := decodeRecords(w, r)
	if !ok {
		return
	}

	records, err := s.records.SaveAll(r.Context(), toInputs(payloads))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"inserted": len(records)})
}

// handleSessionFindAll returns all records via the write-session read API.
func (s *Service) handleSessionFindAll(w http.ResponseWriter, r *http.Request) {
	records, err := store.NewWriteSession(s.store).QueryAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(records))
}

// handleSessionSearch returns matching records via the write-session read API.
func (s *Service) handleSessionSearch(w http.ResponseWriter, r *http.Request) {
	records, err := store.NewWriteSession(s.store).QueryByName(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(records))
}

// handleSessionBatchInsert inserts the batch through the bulk loader, flushing
// once per batchSize records. The cadence is tunable per request via the
// "batchSize" query parameter.
func (s *Service) handleSessionBatchInsert(w http.ResponseWriter, r *http.Request) {
	batchSize := s.config.BatchSize
	if v := r.URL.Query().Get("batchSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "batchSize must be a positive integer"})
			return
		}
		batchSize = n
	}

	payloads, ok := decodeRecords(w, r)
	if !ok {
		return
	}

	loader := store.NewBulkLoader(store.NewWriteSession(s.store))
	if err := loader.BulkInsert(r.Context(), toInputs(payloads), batchSize); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"inserted": len(payloads)})
}
