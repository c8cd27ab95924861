package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adamj29/nest-matters/internal/climate"
	"github.com/adamj29/nest-matters/internal/history"
)

// handleListClimate returns the current snapshot of every proxy instance.
func (s *Server) handleListClimate(w http.ResponseWriter, _ *http.Request) {
	proxies := s.climate.List()

	snapshots := make([]climate.Snapshot, 0, len(proxies))
	for _, proxy := range proxies {
		snapshots = append(snapshots, proxy.Snapshot())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instances": snapshots,
		"count":     len(snapshots),
	})
}

// handleGetClimate returns the snapshot for one proxy instance.
func (s *Server) handleGetClimate(w http.ResponseWriter, r *http.Request) {
	proxy, ok := s.lookupProxy(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, proxy.Snapshot())
}

// setTemperatureRequest is the body for POST /climate/{id}/temperature.
// Temperature is a pointer so a missing setpoint is distinguishable
// from zero: an absent setpoint forwards nothing to the host.
type setTemperatureRequest struct {
	Temperature *float64 `json:"temperature"`
}

// handleSetTemperature forwards a setpoint change to the temperature source.
//
// The value is forwarded as-is: the host's own service validation is
// authoritative for setpoint bounds, so an out-of-range value is
// rejected downstream, not here. The proxy's reported min_temp/max_temp
// fall back to defaults before the source has been seen and must not
// gate commands.
func (s *Server) handleSetTemperature(w http.ResponseWriter, r *http.Request) {
	proxy, ok := s.lookupProxy(w, r)
	if !ok {
		return
	}

	var req setTemperatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := proxy.SetTemperature(r.Context(), req.Temperature); err != nil {
		s.logger.Error("set temperature failed",
			"instance_id", proxy.InstanceID(),
			"error", err,
		)
		writeInternalError(w, "forwarding setpoint failed")
		return
	}

	// An absent setpoint forwards nothing, so there is no command to record.
	if req.Temperature != nil {
		s.recordCommand(r.Context(), proxy, "set_temperature", history.Snapshot{
			"temperature": *req.Temperature,
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":      "accepted",
		"instance_id": proxy.InstanceID(),
	})
}

// setHvacModeRequest is the body for POST /climate/{id}/hvac_mode.
type setHvacModeRequest struct {
	HvacMode string `json:"hvac_mode"`
}

// handleSetHvacMode forwards an operating mode change to the HVAC source.
func (s *Server) handleSetHvacMode(w http.ResponseWriter, r *http.Request) {
	proxy, ok := s.lookupProxy(w, r)
	if !ok {
		return
	}

	var req setHvacModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.HvacMode == "" {
		writeBadRequest(w, "hvac_mode is required")
		return
	}

	if err := proxy.SetHvacMode(r.Context(), req.HvacMode); err != nil {
		s.logger.Error("set hvac mode failed",
			"instance_id", proxy.InstanceID(),
			"error", err,
		)
		writeInternalError(w, "forwarding hvac mode failed")
		return
	}

	s.recordCommand(r.Context(), proxy, "set_hvac_mode", history.Snapshot{
		"hvac_mode": req.HvacMode,
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":      "accepted",
		"instance_id": proxy.InstanceID(),
	})
}

// setFanModeRequest is the body for POST /climate/{id}/fan_mode.
type setFanModeRequest struct {
	FanMode string `json:"fan_mode"`
}

// handleSetFanMode forwards a fan mode change to the HVAC source.
func (s *Server) handleSetFanMode(w http.ResponseWriter, r *http.Request) {
	proxy, ok := s.lookupProxy(w, r)
	if !ok {
		return
	}

	var req setFanModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.FanMode == "" {
		writeBadRequest(w, "fan_mode is required")
		return
	}

	if err := proxy.SetFanMode(r.Context(), req.FanMode); err != nil {
		s.logger.Error("set fan mode failed",
			"instance_id", proxy.InstanceID(),
			"error", err,
		)
		writeInternalError(w, "forwarding fan mode failed")
		return
	}

	s.recordCommand(r.Context(), proxy, "set_fan_mode", history.Snapshot{
		"fan_mode": req.FanMode,
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":      "accepted",
		"instance_id": proxy.InstanceID(),
	})
}

// handleClimateHistory returns recent audit trail entries for a proxy.
//
// The trail is keyed by the proxy's unique ID for republished
// snapshots. Limit defaults and bounds are enforced by the repository.
func (s *Server) handleClimateHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "history storage not configured")
		return
	}

	proxy, ok := s.lookupProxy(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		limit = parsed
	}

	entries, err := s.history.GetHistory(r.Context(), proxy.UniqueID(), limit)
	if err != nil {
		s.logger.Error("history query failed",
			"instance_id", proxy.InstanceID(),
			"error", err,
		)
		writeInternalError(w, "querying history failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instance_id": proxy.InstanceID(),
		"entries":     entries,
		"count":       len(entries),
	})
}

// recordCommand appends a forwarded service call to the audit trail,
// keyed by the proxy's unique ID. Best effort: a persistence failure
// must not fail the command itself.
func (s *Server) recordCommand(ctx context.Context, proxy *climate.Proxy, service string, data history.Snapshot) {
	if s.history == nil {
		return
	}
	data["service"] = service
	if err := s.history.RecordStateChange(ctx, proxy.UniqueID(), data, history.SourceCommand); err != nil {
		s.logger.Warn("failed to record forwarded command",
			"instance_id", proxy.InstanceID(),
			"service", service,
			"error", err,
		)
	}
}

// lookupProxy resolves the {id} URL parameter to a proxy, writing a
// 404 response on failure.
func (s *Server) lookupProxy(w http.ResponseWriter, r *http.Request) (*climate.Proxy, bool) {
	id := chi.URLParam(r, "id")

	proxy, err := s.climate.Get(id)
	if err != nil {
		if errors.Is(err, climate.ErrNotFound) {
			writeNotFound(w, "unknown climate instance")
			return nil, false
		}
		writeInternalError(w, "looking up instance failed")
		return nil, false
	}
	return proxy, true
}
