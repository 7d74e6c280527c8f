package gas

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

const WarningHeader = "X-Calculation-Warning"

type Handler struct {
	Engine *Engine
	Log    *zap.Logger
}

func (h *Handler) engine() *Engine {
	if h.Engine == nil {
		return defaultEngine
	}
	return h.Engine
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input RoomDimensions
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.log().Debug("rejected room payload", zap.Error(err))
		WriteError(w, DecodeStatus(err), err.Error())
		return
	}
	res, err := h.engine().Calculate(input)
	if err != nil {
		h.log().Debug("rejected room dimensions", zap.Error(err))
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if msg, ok := TemperatureWarning(input.Temperature); ok {
		h.log().Warn("temperature outside fitted range", zap.Float64("temperature", input.Temperature))
		w.Header().Set(WarningHeader, msg)
	}
	WriteJSON(w, http.StatusOK, res)
}

type agentsResponse struct {
	Agents   []Agent       `json:"agents"`
	Coverage CoverageRules `json:"coverage"`
}

// Agents lists the agent table and coverage rules the engine sizes with.
func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	e := h.engine()
	WriteJSON(w, http.StatusOK, agentsResponse{Agents: e.Agents(), Coverage: e.Coverage()})
}

// DecodeStatus maps a JSON decoding error to a response status: 422 for
// missing or invalid fields, 400 for anything else.
func DecodeStatus(err error) int {
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

// WriteJSON encodes v before writing the status, so an encoding failure
// becomes a 500 instead of an empty 200.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"response encoding error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
