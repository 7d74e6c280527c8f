package importer

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"Gascalc/internal/calc/gas"

	"github.com/xuri/excelize/v2"
)

// Columns of an import sheet; the first row is a header and is skipped.
var ImportHeader = []string{"Name", "Length (m)", "Width (m)", "Floor void (m)", "Ambient (m)", "Ceiling void (m)", "Temperature (°C)"}

type Room struct {
	Row  int                `json:"row"`
	Name string             `json:"name"`
	Dims gas.RoomDimensions `json:"room"`
}

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type RoomResult struct {
	Room
	Result gas.GasCalculationResult `json:"result"`
}

type ImportResult struct {
	Count   int          `json:"count"`
	Results []RoomResult `json:"results"`
	Errors  []RowError   `json:"errors"`
}

// ParseRooms reads the first sheet of an xlsx workbook. Rows that cannot be
// parsed come back as RowError with their 1-based sheet row number; blank
// rows are skipped.
func ParseRooms(r io.Reader) ([]Room, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("sheet %q has no data rows", sheet)
	}

	var rooms []Room
	var errs []RowError
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		dims, err := parseRoomRow(row)
		if err != nil {
			errs = append(errs, RowError{Row: i + 1, Error: err.Error()})
			continue
		}
		rooms = append(rooms, Room{Row: i + 1, Name: strings.TrimSpace(row[0]), Dims: dims})
	}
	return rooms, errs, nil
}

func parseRoomRow(row []string) (gas.RoomDimensions, error) {
	// expected: name, length, width, height_fp, height_amb, height_fc, temperature(optional)
	if len(row) < 6 {
		return gas.RoomDimensions{}, fmt.Errorf("%w: expected at least 6 columns, got %d", gas.ErrInvalidInput, len(row))
	}
	names := []string{"length", "width", "height_fp", "height_amb", "height_fc"}
	values := make([]float64, len(names))
	for j, name := range names {
		v, err := toFloat(row[j+1])
		if err != nil {
			return gas.RoomDimensions{}, fmt.Errorf("%w: %s: %q is not a number", gas.ErrInvalidInput, name, row[j+1])
		}
		values[j] = v
	}
	dims := gas.RoomDimensions{
		Length:            values[0],
		Width:             values[1],
		HeightFloorVoid:   values[2],
		HeightAmbient:     values[3],
		HeightCeilingVoid: values[4],
		Temperature:       gas.DefaultTemperature,
	}
	if len(row) > 6 && strings.TrimSpace(row[6]) != "" {
		t, err := toFloat(row[6])
		if err != nil {
			return gas.RoomDimensions{}, fmt.Errorf("%w: temperature: %q is not a number", gas.ErrInvalidInput, row[6])
		}
		dims.Temperature = t
	}
	return dims, nil
}

// toFloat accepts both "2.5" and "2,5".
func toFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return strconv.ParseFloat(s, 64)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Calculate sizes every parsed room; rooms failing validation are appended
// to errs.
func Calculate(engine *gas.Engine, rooms []Room, errs []RowError) ImportResult {
	out := ImportResult{Results: []RoomResult{}, Errors: append([]RowError{}, errs...)}
	for _, room := range rooms {
		res, err := engine.Calculate(room.Dims)
		if err != nil {
			out.Errors = append(out.Errors, RowError{Row: room.Row, Error: err.Error()})
			continue
		}
		out.Results = append(out.Results, RoomResult{Room: room, Result: res})
	}
	sort.Slice(out.Errors, func(i, j int) bool { return out.Errors[i].Row < out.Errors[j].Row })
	out.Count = len(out.Results)
	return out
}

// Workbook renders an import result as an xlsx file: one "Results" sheet
// with a mass column per agent, and an "Errors" sheet when rows were rejected.
func Workbook(engine *gas.Engine, res ImportResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	agents := engine.Agents()
	header := []any{"Row", "Name", "Length (m)", "Width (m)", "Floor void (m)", "Ambient (m)", "Ceiling void (m)", "Temperature (°C)", "Volume (m³)"}
	for _, a := range agents {
		header = append(header, fmt.Sprintf("%s (kg)", a.Name))
	}
	header = append(header, "IG55 cylinders", "IG55 nozzles", "Hi-Fog tank (L)")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, rr := range res.Results {
		d := rr.Dims
		row := []any{rr.Row, rr.Name, d.Length, d.Width, d.HeightFloorVoid, d.HeightAmbient, d.HeightCeilingVoid, d.Temperature, rr.Result.VolumeTotal}
		for _, a := range agents {
			row = append(row, rr.Result.AgentDetails[a.Name].MassKg)
		}
		ext := rr.Result.ExtinctionSystem
		row = append(row, ext.IG55Cylinders, ext.IG55Nozzles, ext.HifogTankLiters)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if len(res.Errors) > 0 {
		const errSheet = "Errors"
		if _, err := f.NewSheet(errSheet); err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(errSheet, "A1", &[]any{"Row", "Error"}); err != nil {
			return nil, err
		}
		for i, e := range res.Errors {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(errSheet, cell, &[]any{e.Row, e.Error}); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Template returns an empty import workbook with the header row.
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(ImportHeader))
	for i, h := range ImportHeader {
		header[i] = h
	}
	if err := f.SetSheetName("Sheet1", "Rooms"); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow("Rooms", "A1", &header); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
