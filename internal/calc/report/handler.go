package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"Gascalc/internal/calc/gas"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type Handler struct {
	Engine *gas.Engine
	Log    *zap.Logger
	// Lang is used when the request carries no usable ?lang= or Accept-Language.
	Lang language.Tag
}

func (h *Handler) log() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func (h *Handler) lang(r *http.Request) language.Tag {
	if v := strings.TrimSpace(r.URL.Query().Get("lang")); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return Match(tag)
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return Match(tags...)
		}
	}
	if h.Lang == language.Und {
		return language.French
	}
	return Match(h.Lang)
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		gas.WriteError(w, gas.DecodeStatus(err), err.Error())
		return
	}
	switch input.ExtinctionType {
	case "":
		input.ExtinctionType = ExtinctionNone
	case ExtinctionNone, ExtinctionIG55, ExtinctionHifog:
	default:
		gas.WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown extinction_type %q", input.ExtinctionType))
		return
	}

	engine := h.Engine
	if engine == nil {
		engine = gas.Default()
	}
	res, err := engine.Calculate(input.Room)
	if err != nil {
		gas.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	doc := Document{
		ID:        uuid.NewString(),
		Generated: time.Now(),
		Lang:      h.lang(r),
		Input:     input,
		Result:    res,
	}
	pdf, err := Build(doc)
	if err != nil {
		h.log().Error("report build failed", zap.String("report_id", doc.ID), zap.Error(err))
		gas.WriteError(w, http.StatusInternalServerError, "report generation error")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"Rapport_Technique_"+doc.ID+".pdf\"")
	w.Header().Set("X-Report-Id", doc.ID)
	if err := pdf.Output(w); err != nil {
		h.log().Error("report output failed", zap.String("report_id", doc.ID), zap.Error(err))
		return
	}
	h.log().Info("report generated", zap.String("report_id", doc.ID), zap.String("lang", doc.Lang.String()))
}
