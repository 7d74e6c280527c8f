package importer

import (
	"net/http"

	"Gascalc/internal/calc/gas"

	"go.uber.org/zap"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	Engine  *gas.Engine
	Log     *zap.Logger
	MaxSize int64
}

func (h *Handler) engine() *gas.Engine {
	if h.Engine == nil {
		return gas.Default()
	}
	return h.Engine
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// Gas sizes every room of an uploaded workbook. ?format=xlsx answers with a
// workbook instead of JSON.
func (h *Handler) Gas(w http.ResponseWriter, r *http.Request) {
	maxSize := h.MaxSize
	if maxSize <= 0 {
		maxSize = 10 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		gas.WriteError(w, http.StatusBadRequest, "file too big or not a multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		gas.WriteError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	rooms, rowErrs, err := ParseRooms(file)
	if err != nil {
		h.log().Debug("workbook rejected", zap.Error(err))
		gas.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res := Calculate(h.engine(), rooms, rowErrs)
	h.log().Info("workbook imported", zap.Int("rooms", res.Count), zap.Int("rejected", len(res.Errors)))

	if r.URL.Query().Get("format") != "xlsx" {
		gas.WriteJSON(w, http.StatusOK, res)
		return
	}
	data, err := Workbook(h.engine(), res)
	if err != nil {
		h.log().Error("workbook export failed", zap.Error(err))
		gas.WriteError(w, http.StatusInternalServerError, "workbook generation error")
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", "attachment; filename=\"gas_sizing.xlsx\"")
	w.Write(data)
}

func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	data, err := Template()
	if err != nil {
		h.log().Error("template generation failed", zap.Error(err))
		gas.WriteError(w, http.StatusInternalServerError, "workbook generation error")
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", "attachment; filename=\"rooms_template.xlsx\"")
	w.Write(data)
}
