package batch

import (
	"encoding/json"
	"net/http"

	"Gascalc/internal/calc/gas"

	"go.uber.org/zap"
)

type Handler struct {
	Engine *gas.Engine
	Log    *zap.Logger
	Limit  int
}

func (h *Handler) Gas(w http.ResponseWriter, r *http.Request) {
	var input GasBatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		gas.WriteError(w, gas.DecodeStatus(err), err.Error())
		return
	}
	engine := h.Engine
	if engine == nil {
		engine = gas.Default()
	}
	res, err := CalculateGas(engine, input, h.Limit)
	if err != nil {
		if h.Log != nil {
			h.Log.Debug("batch rejected", zap.Int("items", len(input.Items)), zap.Error(err))
		}
		gas.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	gas.WriteJSON(w, http.StatusOK, res)
}
