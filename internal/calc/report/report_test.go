package report

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Gascalc/internal/calc/gas"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func room() gas.RoomDimensions {
	return gas.RoomDimensions{Length: 10, Width: 6, HeightFloorVoid: 0.5, HeightAmbient: 2.5, HeightCeilingVoid: 0.3, Temperature: 20}
}

func render(t *testing.T, doc Document) string {
	t.Helper()
	pdf, err := Build(doc)
	require.NoError(t, err)
	pdf.SetCompression(false)
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.String()
}

func TestBuild_English(t *testing.T) {
	res, err := gas.Calculate(room())
	require.NoError(t, err)

	out := render(t, Document{
		ID:        "ref-1",
		Generated: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Lang:      language.English,
		Input:     Input{Project: "Server room B2", Author: "J. Doe", ExtinctionType: ExtinctionIG55, Room: room()},
		Result:    res,
	})

	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.Contains(t, out, "Technical Report")
	assert.Contains(t, out, "Server room B2")
	assert.Contains(t, out, "ref-1")
	assert.Contains(t, out, "2026-03-01")
	assert.Contains(t, out, "129.80 kg")
	assert.Contains(t, out, "IG55 (Inert Gas)")
}

func TestBuild_FrenchDefaultsAndWarning(t *testing.T) {
	r := room()
	r.Temperature = 60
	res, err := gas.Calculate(r)
	require.NoError(t, err)

	out := render(t, Document{
		ID:     "ref-2",
		Lang:   language.French,
		Input:  Input{ExtinctionType: ExtinctionHifog, Notes: "Local onduleurs", Room: r},
		Result: res,
	})

	assert.Contains(t, out, "Rapport Technique")
	assert.Contains(t, out, "Avertissement")
	assert.Contains(t, out, "Local onduleurs")
}

func TestMatch(t *testing.T) {
	assert.Equal(t, language.English, Match(language.MustParse("en-GB")))
	assert.Equal(t, language.French, Match(language.MustParse("fr-CA")))
	assert.Equal(t, language.French, Match(language.MustParse("de")))
}

func TestHandler_Generate(t *testing.T) {
	body := `{"project":"DC-1","extinction_type":"hifog","room":{"length":10,"width":6,"height_fp":0.5,"height_amb":2.5,"height_fc":0.3}}`
	req := httptest.NewRequest(http.MethodPost, "/api/tools/gas/report?lang=en", strings.NewReader(body))
	rec := httptest.NewRecorder()
	(&Handler{}).Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	id := rec.Header().Get("X-Report-Id")
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestHandler_Generate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{"room":`, http.StatusBadRequest},
		{"unknown system", `{"extinction_type":"co2","room":{"length":10,"width":6,"height_fp":0,"height_amb":2.5,"height_fc":0}}`, http.StatusUnprocessableEntity},
		{"missing room", `{"project":"x"}`, http.StatusUnprocessableEntity},
		{"invalid room", `{"room":{"length":-1,"width":6,"height_fp":0,"height_amb":2.5,"height_fc":0}}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			(&Handler{}).Generate(rec, httptest.NewRequest(http.MethodPost, "/api/tools/gas/report", strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
