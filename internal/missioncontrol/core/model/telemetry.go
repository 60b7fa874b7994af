package model

import (
	"math"
	"time"
)

// DefaultSystemHealth is recorded when a reading carries no health status.
const DefaultSystemHealth = "nominal"

const (
	MinFuelLevel = 0.0
	MaxFuelLevel = 100.0
)

// Telemetry is an immutable snapshot of one measurement event.
type Telemetry struct {
	Timestamp time.Time `json:"timestamp"`

	// Altitude in kilometers.
	Altitude float64 `json:"altitude"`

	// Velocity in km/h.
	Velocity float64 `json:"velocity"`

	// FuelLevel in percent, within [0, 100].
	FuelLevel float64 `json:"fuel_level"`

	SystemHealth string `json:"system_health"`
}

// TelemetryReading is the caller-provided part of a telemetry record.
// An empty SystemHealth defaults to DefaultSystemHealth.
type TelemetryReading struct {
	Altitude     float64 `json:"altitude"`
	Velocity     float64 `json:"velocity"`
	FuelLevel    float64 `json:"fuel_level"`
	SystemHealth string  `json:"system_health,omitempty"`
}

// Validate checks the reading. Altitude and velocity are raw sensor values and are not checked.
func (r TelemetryReading) Validate() error {
	if math.IsNaN(r.FuelLevel) || r.FuelLevel < MinFuelLevel || r.FuelLevel > MaxFuelLevel {
		return Validationf("fuel level %v outside [%v, %v]", r.FuelLevel, MinFuelLevel, MaxFuelLevel)
	}
	return nil
}

// NewTelemetry validates the reading and stamps it with now.
func NewTelemetry(r TelemetryReading, now time.Time) (Telemetry, error) {
	if err := r.Validate(); err != nil {
		return Telemetry{}, err
	}

	health := r.SystemHealth
	if health == "" {
		health = DefaultSystemHealth
	}

	return Telemetry{
		Timestamp:    now,
		Altitude:     r.Altitude,
		Velocity:     r.Velocity,
		FuelLevel:    r.FuelLevel,
		SystemHealth: health,
	}, nil
}
