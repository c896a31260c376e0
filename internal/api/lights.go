package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-lightbridge/internal/device"
	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// maxNameLen bounds the {name} path parameter.
const maxNameLen = 128

// turnOnRequest is the body of POST /lights/{name}/on. Every field is optional.
type turnOnRequest struct {
	Color      *light.RGB `json:"color,omitempty"`
	Brightness *int       `json:"brightness,omitempty"`
	Transition *float64   `json:"transition,omitempty"`
	Flash      string     `json:"flash,omitempty"`
}

// turnOffRequest is the body of POST /lights/{name}/off.
type turnOffRequest struct {
	Transition *float64 `json:"transition,omitempty"`
}

// commandResponse reports an accepted command and the state right after it.
type commandResponse struct {
	Status string      `json:"status"`
	State  light.State `json:"state"`
}

func (req turnOnRequest) validate() error {
	if req.Color != nil && !req.Color.Valid() {
		return fmt.Errorf("color components must be between %d and %d", light.MinLevel, light.MaxLevel)
	}
	if req.Brightness != nil && (*req.Brightness < light.MinLevel || *req.Brightness > light.MaxLevel) {
		return fmt.Errorf("brightness must be between %d and %d", light.MinLevel, light.MaxLevel)
	}
	if err := validateTransition(req.Transition); err != nil {
		return err
	}
	if req.Flash != "" && !light.FlashKind(req.Flash).Valid() {
		return fmt.Errorf("flash must be %q or %q", light.FlashShort, light.FlashLong)
	}
	return nil
}

func validateTransition(t *float64) error {
	if t == nil {
		return nil
	}
	if *t < 0 || *t > light.MaxTransition {
		return fmt.Errorf("transition must be between 0 and %d seconds", light.MaxTransition)
	}
	return nil
}

func (req turnOnRequest) options() light.TurnOnOptions {
	return light.TurnOnOptions{
		Color:      req.Color,
		Brightness: req.Brightness,
		Transition: req.Transition,
		Flash:      light.FlashKind(req.Flash),
	}
}

// handleListLights returns the current state of every light.
func (s *Server) handleListLights(w http.ResponseWriter, _ *http.Request) {
	states := s.registry.Snapshots()
	writeJSON(w, http.StatusOK, map[string]any{
		"lights": states,
		"count":  len(states),
	})
}

// handleGetLight returns one light's state.
func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookupLight(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

// handleTurnOn sends an ON command.
func (s *Server) handleTurnOn(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookupLight(w, r)
	if !ok {
		return
	}

	var req turnOnRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	ctrl.TurnOn(req.options())
	writeJSON(w, http.StatusAccepted, commandResponse{Status: "accepted", State: ctrl.Snapshot()})
}

// handleTurnOff sends an OFF command.
func (s *Server) handleTurnOff(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookupLight(w, r)
	if !ok {
		return
	}

	var req turnOffRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	if err := validateTransition(req.Transition); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	ctrl.TurnOff(light.TurnOffOptions{Transition: req.Transition})
	writeJSON(w, http.StatusAccepted, commandResponse{Status: "accepted", State: ctrl.Snapshot()})
}

// handleGetHistory returns recorded state changes, newest first.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.lookupLight(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "state history unavailable")
		return
	}

	entries, err := s.history.GetHistory(r.Context(), ctrl.Name(), limit)
	if err != nil {
		s.logger.Error("loading light history failed", "light", ctrl.Name(), "error", err)
		writeInternalError(w, "failed to load light history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"light":   ctrl.Name(),
		"history": entries,
		"count":   len(entries),
	})
}

// lookupLight resolves {name}, writing a 400 or 404 when it cannot.
func (s *Server) lookupLight(w http.ResponseWriter, r *http.Request) (*light.Controller, bool) {
	name := chi.URLParam(r, "name")
	if name == "" || len(name) > maxNameLen {
		writeBadRequest(w, "invalid light name")
		return nil, false
	}

	ctrl, err := s.registry.Get(name)
	if err != nil {
		if errors.Is(err, device.ErrLightNotFound) {
			writeNotFound(w, "light not found")
			return nil, false
		}
		writeInternalError(w, "failed to get light")
		return nil, false
	}
	return ctrl, true
}

// decodeOptionalBody decodes a JSON body into v. An empty body leaves v
// untouched. Unknown fields are rejected.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "request body too large")
			return false
		}
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
