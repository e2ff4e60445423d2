// Package handlers provides HTTP handlers for optimizer runs.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/riskalloc/internal/horizon"
	"github.com/aristath/riskalloc/internal/modules/allocation"
	"github.com/aristath/riskalloc/internal/modules/optimization"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	maxRequestBytes = 4 << 20
)

// Handler handles optimizer HTTP requests
type Handler struct {
	optimizer *optimization.Optimizer
	flattener *allocation.TreeFlattener
	log       zerolog.Logger
}

// NewHandler creates a new optimizer handler
func NewHandler(
	optimizer *optimization.Optimizer,
	flattener *allocation.TreeFlattener,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		optimizer: optimizer,
		flattener: flattener,
		log:       log.With().Str("handler", "optimizer").Logger(),
	}
}

// HandleGetStatus handles GET /api/optimizer/
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	groups := make([]string, len(optimization.RiskGroups))
	for i, g := range optimization.RiskGroups {
		groups[i] = string(g)
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"options":            h.optimizer.Options(),
			"risk_groups":        groups,
			"sensitivities":      []string{string(optimization.SensitivityDuration), string(optimization.SensitivityFlat)},
			"secondary_policies": []string{string(optimization.SecondarySkip), string(optimization.SecondaryStrict)},
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, http.StatusOK, response)
}

// HandleRun handles POST /api/optimizer/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	opts := req.Options.Apply(h.optimizer.Options())
	if err := opts.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.buildSnapshot(req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID := uuid.New().String()
	log := h.log.With().Str("run_id", runID).Logger()

	result, err := h.optimizer.WithOptions(opts).Optimize(r.Context(), snapshot)
	if err != nil {
		status, body := errorResponse(err)
		event := log.Warn()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.Err(err).Int("status", status).Msg("Optimizer run failed")
		body["run_id"] = runID
		h.writeJSON(w, status, body)
		return
	}

	log.Info().
		Int("buckets", len(result.Buckets)).
		Int("warnings", len(result.Warnings)).
		Msg("Optimizer run completed")

	response := RunResponse{
		RunID: runID,
		Data:  toResultDTO(result),
		Metadata: Metadata{
			Timestamp: time.Now().Format(time.RFC3339),
		},
	}

	if acceptsMsgpack(r) {
		h.writeMsgpack(w, http.StatusOK, response)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

// buildSnapshot turns a request into an optimizer snapshot, flattening the tree
// when one is given.
func (h *Handler) buildSnapshot(req RunRequest) (optimization.Snapshot, error) {
	snapshot := optimization.Snapshot{Total: req.Total}
	var treeLabels []string

	switch {
	case len(req.Tree) > 0 && len(req.Buckets) > 0:
		return snapshot, errors.New("provide either buckets or tree, not both")
	case len(req.Tree) > 0:
		buckets, err := h.flattener.Flatten(req.Tree)
		if err != nil {
			return snapshot, err
		}
		snapshot.Buckets = buckets
		for _, b := range buckets {
			treeLabels = append(treeLabels, b.ID)
		}
		treeLabels = horizon.Merge(treeLabels)
	default:
		for _, b := range req.Buckets {
			snapshot.Buckets = append(snapshot.Buckets, optimization.Bucket{
				ID:         b.ID,
				Horizon:    float64(b.Horizon),
				Minimum:    b.Minimum,
				Currencies: b.Currencies,
				Order:      b.Order,
			})
		}
	}

	for _, s := range req.Supply {
		bucketID := s.Bucket
		if len(req.Tree) > 0 {
			// Tree buckets are keyed by canonical label
			if label, err := horizon.Normalize(s.Bucket); err == nil && label != "" {
				bucketID = label
			}
			if !containsLabel(treeLabels, bucketID) {
				return snapshot, fmt.Errorf("supply references horizon %q, tree has %s",
					s.Bucket, strings.Join(treeLabels, ", "))
			}
		}
		snapshot.Supply = append(snapshot.Supply, optimization.SupplyEntry{
			BucketID:   bucketID,
			Group:      optimization.RiskGroup(strings.ToUpper(strings.TrimSpace(s.Group))),
			Tenors:     s.Tenors,
			Currencies: s.Currencies,
		})
	}

	return snapshot, nil
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// errorResponse maps an optimizer error to a status code and body.
func errorResponse(err error) (int, map[string]interface{}) {
	body := map[string]interface{}{"error": err.Error()}

	var unsatisfiable *optimization.UnsatisfiableBucketError
	var infeasible *optimization.InfeasibleAllocationError
	switch {
	case errors.Is(err, optimization.ErrInvalidSnapshot):
		return http.StatusBadRequest, body
	case errors.As(err, &unsatisfiable):
		body["kind"] = "unsatisfiable_bucket"
		body["bucket"] = unsatisfiable.BucketID
		body["group"] = string(unsatisfiable.Group)
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &infeasible):
		body["kind"] = "infeasible_allocation"
		body["buckets"] = infeasible.BucketIDs
		body["required"] = infeasible.Required
		body["available"] = infeasible.Available
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, body
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, body
	}
}

func acceptsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if mediaType == contentTypeMsgpack || mediaType == "application/x-msgpack" {
			return true
		}
	}
	return false
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeMsgpack writes a MessagePack response using the same field names as JSON
func (h *Handler) writeMsgpack(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(status)

	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode msgpack response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
