package gas

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrAgentTable reports an unusable agent table or coverage rule set.
var ErrAgentTable = errors.New("invalid agent table")

// Agent is a clean agent with its design concentration (volume %) and the
// linear specific vapor volume coefficients S = S0 + S1*T (m³/kg, T in °C).
type Agent struct {
	Name          string  `json:"name" yaml:"name"`
	Concentration float64 `json:"concentration_design" yaml:"concentration"`
	S0            float64 `json:"s0" yaml:"s0"`
	S1            float64 `json:"s1" yaml:"s1"`
}

// SpecificVolume returns S at temperature t.
func (a Agent) SpecificVolume(t float64) float64 {
	return a.S0 + a.S1*t
}

// Mass is the total flooding relation M = V * C/(100-C) * 1/S.
func (a Agent) Mass(volume, t float64) float64 {
	return volume * (a.Concentration / (100 - a.Concentration)) * (1 / a.SpecificVolume(t))
}

// DefaultAgents returns the Novec 1230 (FK-5-1-12) and FM-200 (HFC-227ea) table.
func DefaultAgents() []Agent {
	return []Agent{
		{Name: "Novec 1230", Concentration: 4.5, S0: 0.0664, S1: 0.000274},
		{Name: "FM-200", Concentration: 7.9, S0: 0.1269, S1: 0.000513},
	}
}

// CoverageRules are the area rules of the inert gas and water mist system.
type CoverageRules struct {
	AreaPerCylinder   float64 `json:"area_per_cylinder_m2" yaml:"area_per_cylinder_m2"`     // IG55, m²
	AreaPerNozzle     float64 `json:"area_per_nozzle_m2" yaml:"area_per_nozzle_m2"`         // IG55, m²
	AreaPerMistNozzle float64 `json:"area_per_mist_nozzle_m2" yaml:"area_per_mist_nozzle_m2"` // Hi-Fog, m²
	MistFlowLPM       float64 `json:"mist_flow_l_min" yaml:"mist_flow_l_min"`
	MistDurationMin   float64 `json:"mist_duration_min" yaml:"mist_duration_min"`
}

func DefaultCoverage() CoverageRules {
	return CoverageRules{
		AreaPerCylinder:   30.0,
		AreaPerNozzle:     30.0,
		AreaPerMistNozzle: 16.0,
		MistFlowLPM:       10.0,
		MistDurationMin:   30.0,
	}
}

func (c CoverageRules) validate() error {
	rules := []struct {
		name string
		v    float64
	}{
		{"area_per_cylinder_m2", c.AreaPerCylinder},
		{"area_per_nozzle_m2", c.AreaPerNozzle},
		{"area_per_mist_nozzle_m2", c.AreaPerMistNozzle},
		{"mist_flow_l_min", c.MistFlowLPM},
		{"mist_duration_min", c.MistDurationMin},
	}
	for _, r := range rules {
		if !(r.v > 0) || math.IsInf(r.v, 0) {
			return fmt.Errorf("%w: coverage rule %s must be positive", ErrAgentTable, r.name)
		}
	}
	return nil
}

// agentFile is the layout of an AGENTS_FILE document. Coverage rules
// missing from the file keep their defaults.
type agentFile struct {
	Agents   []Agent       `yaml:"agents"`
	Coverage CoverageRules `yaml:"coverage"`
}

// LoadAgents reads an agent table (and optionally coverage rules) from a YAML file.
func LoadAgents(path string) ([]Agent, CoverageRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, CoverageRules{}, fmt.Errorf("read agent table: %w", err)
	}
	doc := agentFile{Coverage: DefaultCoverage()}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, CoverageRules{}, fmt.Errorf("parse agent table %s: %w", path, err)
	}
	return doc.Agents, doc.Coverage, nil
}
