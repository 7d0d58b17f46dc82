package solver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the file name the solver reads its parameters from.
const DefaultConfigName = "input.json"

const maxConfigSize = 1 << 20

// Config is the part of a solver run configuration that post-processing needs.
type Config struct {
	FlowType           string  `json:"flow_type" yaml:"flow_type"`
	ReynoldsNumber     float64 `json:"reynolds_number" yaml:"reynolds_number"`
	MachNumber         float64 `json:"mach_number" yaml:"mach_number"`
	ShockAngle         float64 `json:"shock_angle" yaml:"shock_angle"`
	XLength            float64 `json:"x_length" yaml:"x_length"`
	YLength            float64 `json:"y_length" yaml:"y_length"`
	ZLength            float64 `json:"z_length" yaml:"z_length"`
	Steps              int     `json:"steps" yaml:"steps"`
	ProbeIOSteps       int     `json:"probe_io_steps" yaml:"probe_io_steps"`
	SpanAverageIOSteps int     `json:"span_average_io_steps" yaml:"span_average_io_steps"`
	Snapshots3D        bool    `json:"snapshots_3d" yaml:"snapshots_3d"`

	Decomposition `yaml:",inline"`
}

// Load reads a JSON or YAML config file and validates its decomposition.
func Load(path string) (*Config, error) {
	clean := filepath.Clean(path)

	switch ext := strings.ToLower(filepath.Ext(clean)); ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must be .json, .yaml or .yml, got %q", ext)
	}

	info, err := os.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes config bytes. JSON is accepted since it is a subset of YAML.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Decomposition.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
