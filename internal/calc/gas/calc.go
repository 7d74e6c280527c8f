package gas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	DefaultTemperature = 20.0
	absoluteZero       = -273.15

	// Outside this range the vapor volume fit is extrapolated.
	warnTemperatureMin = -20.0
	warnTemperatureMax = 50.0

	// Physical bounds for a single protected enclosure.
	maxArea   = 1e7 // m²
	maxVolume = 1e9 // m³
	maxCount  = math.MaxInt32
)

var ErrInvalidInput = errors.New("invalid input")

// RoomDimensions describes a protected room: a footprint and three stacked
// height segments (raised floor void, ambient space, suspended ceiling void).
type RoomDimensions struct {
	Length            float64 `json:"length"`
	Width             float64 `json:"width"`
	HeightFloorVoid   float64 `json:"height_fp"`
	HeightAmbient     float64 `json:"height_amb"`
	HeightCeilingVoid float64 `json:"height_fc"`
	Temperature       float64 `json:"temperature"`
}

// UnmarshalJSON requires every geometric field, rejects unknown fields and
// applies DefaultTemperature when temperature is absent.
func (d *RoomDimensions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Length            *float64 `json:"length"`
		Width             *float64 `json:"width"`
		HeightFloorVoid   *float64 `json:"height_fp"`
		HeightAmbient     *float64 `json:"height_amb"`
		HeightCeilingVoid *float64 `json:"height_fc"`
		Temperature       *float64 `json:"temperature"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	required := []struct {
		name string
		v    *float64
	}{
		{"length", raw.Length},
		{"width", raw.Width},
		{"height_fp", raw.HeightFloorVoid},
		{"height_amb", raw.HeightAmbient},
		{"height_fc", raw.HeightCeilingVoid},
	}
	for _, f := range required {
		if f.v == nil {
			return fmt.Errorf("%w: missing field %s", ErrInvalidInput, f.name)
		}
	}
	*d = RoomDimensions{
		Length:            *raw.Length,
		Width:             *raw.Width,
		HeightFloorVoid:   *raw.HeightFloorVoid,
		HeightAmbient:     *raw.HeightAmbient,
		HeightCeilingVoid: *raw.HeightCeilingVoid,
		Temperature:       DefaultTemperature,
	}
	if raw.Temperature != nil {
		d.Temperature = *raw.Temperature
	}
	return nil
}

type AgentDetail struct {
	MassKg              float64 `json:"mass_kg"`
	ConcentrationDesign float64 `json:"concentration_design"`
}

type ExtinctionSystem struct {
	IG55Cylinders   int `json:"ig55_cylinders"`
	IG55Nozzles     int `json:"ig55_nozzles"`
	HifogTankLiters int `json:"hifog_tank_liters"`
}

type GasCalculationResult struct {
	VolumeTotal      float64                `json:"volume_total"`
	AgentDetails     map[string]AgentDetail `json:"agent_details"`
	ExtinctionSystem ExtinctionSystem       `json:"extinction_system"`
}

// Area is the floor area in m².
func Area(d RoomDimensions) float64 {
	return d.Length * d.Width
}

// Volume is the floor area times the sum of the three height segments, in m³.
func Volume(d RoomDimensions) float64 {
	return Area(d) * (d.HeightFloorVoid + d.HeightAmbient + d.HeightCeilingVoid)
}

// Engine sizes clean agent masses and the IG55/Hi-Fog equipment of a room.
// An Engine is immutable after NewEngine and safe for concurrent use.
type Engine struct {
	agents   []Agent
	coverage CoverageRules
}

var defaultEngine = &Engine{agents: DefaultAgents(), coverage: DefaultCoverage()}

// Default returns the engine built on DefaultAgents and DefaultCoverage.
func Default() *Engine {
	return defaultEngine
}

func NewEngine(agents []Agent, coverage CoverageRules) (*Engine, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: no agents", ErrAgentTable)
	}
	seen := make(map[string]bool, len(agents))
	for _, a := range agents {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: agent without name", ErrAgentTable)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("%w: duplicate agent %q", ErrAgentTable, a.Name)
		}
		seen[a.Name] = true
		if !(a.Concentration > 0 && a.Concentration < 100) {
			return nil, fmt.Errorf("%w: agent %q concentration must be in (0, 100)", ErrAgentTable, a.Name)
		}
		if !finite(a.S0) || !finite(a.S1) || !(a.SpecificVolume(DefaultTemperature) > 0) {
			return nil, fmt.Errorf("%w: agent %q specific volume must be positive at %.0f °C", ErrAgentTable, a.Name, DefaultTemperature)
		}
	}
	if err := coverage.validate(); err != nil {
		return nil, err
	}
	return &Engine{agents: append([]Agent(nil), agents...), coverage: coverage}, nil
}

// Agents returns a copy of the agent table.
func (e *Engine) Agents() []Agent {
	return append([]Agent(nil), e.agents...)
}

func (e *Engine) Coverage() CoverageRules {
	return e.coverage
}

// Validate rejects dimensions the formulas are not defined for.
func (e *Engine) Validate(d RoomDimensions) error {
	fields := []struct {
		name     string
		v        float64
		positive bool
	}{
		{"length", d.Length, true},
		{"width", d.Width, true},
		{"height_fp", d.HeightFloorVoid, false},
		{"height_amb", d.HeightAmbient, false},
		{"height_fc", d.HeightCeilingVoid, false},
	}
	for _, f := range fields {
		if !finite(f.v) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, f.name)
		}
		if f.positive && f.v <= 0 {
			return fmt.Errorf("%w: %s must be greater than 0", ErrInvalidInput, f.name)
		}
		if f.v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, f.name)
		}
	}
	if !finite(d.Temperature) {
		return fmt.Errorf("%w: temperature must be a finite number", ErrInvalidInput)
	}
	if d.Temperature < absoluteZero {
		return fmt.Errorf("%w: temperature below absolute zero", ErrInvalidInput)
	}
	for _, a := range e.agents {
		if !(a.SpecificVolume(d.Temperature) > 0) {
			return fmt.Errorf("%w: temperature %.2f °C is outside the range of agent %q", ErrInvalidInput, d.Temperature, a.Name)
		}
	}
	area, volume := Area(d), Volume(d)
	if !(area <= maxArea) {
		return fmt.Errorf("%w: floor area exceeds %.0e m²", ErrInvalidInput, maxArea)
	}
	if !(volume <= maxVolume) {
		return fmt.Errorf("%w: room volume exceeds %.0e m³", ErrInvalidInput, maxVolume)
	}
	for name, m := range e.AgentMasses(volume, d.Temperature) {
		if !finite(m*100) || m > maxCount {
			return fmt.Errorf("%w: %s mass is out of range at %.2f °C", ErrInvalidInput, name, d.Temperature)
		}
	}
	c := e.coverage
	for _, q := range []float64{
		math.Ceil(area / c.AreaPerCylinder),
		math.Ceil(area / c.AreaPerNozzle),
		math.Max(1, area/c.AreaPerMistNozzle) * c.MistFlowLPM * c.MistDurationMin,
	} {
		if !(q <= maxCount) {
			return fmt.Errorf("%w: equipment count out of range for %.2f m²", ErrInvalidInput, area)
		}
	}
	return nil
}

// Calculate validates d and computes the result. No partial result is
// returned on error.
func (e *Engine) Calculate(d RoomDimensions) (GasCalculationResult, error) {
	if err := e.Validate(d); err != nil {
		return GasCalculationResult{}, err
	}
	return e.Compute(d), nil
}

// Compute assumes d has passed Validate.
func (e *Engine) Compute(d RoomDimensions) GasCalculationResult {
	volume := Volume(d)
	masses := e.AgentMasses(volume, d.Temperature)

	details := make(map[string]AgentDetail, len(e.agents))
	for _, a := range e.agents {
		details[a.Name] = AgentDetail{
			MassKg:              round2(masses[a.Name]),
			ConcentrationDesign: a.Concentration,
		}
	}
	return GasCalculationResult{
		VolumeTotal:      round2(volume),
		AgentDetails:     details,
		ExtinctionSystem: e.ExtinctionSystem(Area(d)),
	}
}

// AgentMasses returns the unrounded mass in kg of every agent for the volume
// at temperature t.
func (e *Engine) AgentMasses(volume, t float64) map[string]float64 {
	out := make(map[string]float64, len(e.agents))
	for _, a := range e.agents {
		out[a.Name] = a.Mass(volume, t)
	}
	return out
}

// ExtinctionSystem sizes the IG55 cylinders and nozzles and the Hi-Fog tank
// from the floor area. Cylinder and nozzle counts round up; the tank volume is
// truncated to whole liters.
func (e *Engine) ExtinctionSystem(area float64) ExtinctionSystem {
	c := e.coverage
	cylinders := math.Ceil(area / c.AreaPerCylinder)
	nozzles := math.Ceil(area / c.AreaPerNozzle)
	mistNozzles := math.Max(1, area/c.AreaPerMistNozzle)
	liters := mistNozzles * c.MistFlowLPM * c.MistDurationMin

	return ExtinctionSystem{
		IG55Cylinders:   int(cylinders),
		IG55Nozzles:     int(nozzles),
		HifogTankLiters: int(liters),
	}
}

// Calculate runs the default engine.
func Calculate(d RoomDimensions) (GasCalculationResult, error) {
	return defaultEngine.Calculate(d)
}

// Compute runs the default engine without validation.
func Compute(d RoomDimensions) GasCalculationResult {
	return defaultEngine.Compute(d)
}

// TemperatureWarning returns an advisory message when t lies outside the
// range the vapor volume coefficients are fitted for. It is not an error.
func TemperatureWarning(t float64) (string, bool) {
	if t < warnTemperatureMin || t > warnTemperatureMax {
		return fmt.Sprintf("temperature %.1f °C is outside %.0f..%.0f °C, agent masses are extrapolated", t, warnTemperatureMin, warnTemperatureMax), true
	}
	return "", false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
