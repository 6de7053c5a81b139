// Package config loads simulation requests from YAML files and server
// settings from the environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wealthpath/planning-engine/internal/domain"
)

// RequestParser loads simulation requests from configuration files.
type RequestParser struct{}

// NewRequestParser creates a new request parser.
func NewRequestParser() *RequestParser {
	return &RequestParser{}
}

// LoadFromFile loads a simulation request from a YAML file, applies defaults
// and validates it.
func (rp *RequestParser) LoadFromFile(filename string) (*domain.SimulationRequest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return rp.Parse(data)
}

// Parse decodes, normalizes and validates request YAML.
func (rp *RequestParser) Parse(data []byte) (*domain.SimulationRequest, error) {
	var req domain.SimulationRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
