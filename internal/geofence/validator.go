package geofence

import (
	"fmt"
	"math"

	"github.com/congo-pay/pos_trust/internal/geo"
)

const (
	DefaultMaxDistanceKm    = 0.5
	DefaultMaxAccuracyMeter = 100.0
)

// Reason explains a rejection.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonTooFar        Reason = "LocationTooFar"
	ReasonImprecise     Reason = "LocationImprecise"
	ReasonInvalidCoords Reason = "LocationInvalidCoordinates"
)

// Config holds the per-deployment thresholds.
type Config struct {
	MaxDistanceKm     float64
	MaxAccuracyMeters float64
}

// Reported is a location claim from a terminal.
type Reported struct {
	Point     geo.Point
	AccuracyM float64
}

// Decision is the outcome of a geofence check. DistanceKm is set whenever
// the distance was computed.
type Decision struct {
	Accepted   bool
	Reason     Reason
	DistanceKm float64
	AccuracyM  float64
	Limit      float64
}

// String renders an internal-only description for audit records.
func (d Decision) String() string {
	switch d.Reason {
	case ReasonNone:
		return fmt.Sprintf("accepted distance_km=%.3f accuracy_m=%.0f", d.DistanceKm, d.AccuracyM)
	case ReasonImprecise:
		return fmt.Sprintf("%s accuracy_m=%.0f max_m=%.0f", d.Reason, d.AccuracyM, d.Limit)
	case ReasonTooFar:
		return fmt.Sprintf("%s distance_km=%.3f max_km=%.3f", d.Reason, d.DistanceKm, d.Limit)
	default:
		return string(d.Reason)
	}
}

// Validator accepts or rejects reported locations against a terminal's anchor.
type Validator struct {
	cfg Config
}

// NewValidator builds a Validator. Non-positive thresholds fall back to the defaults.
func NewValidator(cfg Config) *Validator {
	if cfg.MaxDistanceKm <= 0 {
		cfg.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if cfg.MaxAccuracyMeters <= 0 {
		cfg.MaxAccuracyMeters = DefaultMaxAccuracyMeter
	}
	return &Validator{cfg: cfg}
}

// Config returns the effective thresholds.
func (v *Validator) Config() Config { return v.cfg }

// Validate checks accuracy first, then distance. A claim that is itself too
// uncertain is rejected even when it is nominally inside the fence.
func (v *Validator) Validate(anchor geo.Point, reported Reported) Decision {
	if !reported.Point.Valid() || reported.AccuracyM < 0 || math.IsNaN(reported.AccuracyM) || math.IsInf(reported.AccuracyM, 0) {
		return Decision{Reason: ReasonInvalidCoords, AccuracyM: reported.AccuracyM}
	}
	if reported.AccuracyM > v.cfg.MaxAccuracyMeters {
		return Decision{Reason: ReasonImprecise, AccuracyM: reported.AccuracyM, Limit: v.cfg.MaxAccuracyMeters}
	}

	distance := geo.Distance(anchor, reported.Point)
	if distance > v.cfg.MaxDistanceKm {
		return Decision{Reason: ReasonTooFar, DistanceKm: distance, AccuracyM: reported.AccuracyM, Limit: v.cfg.MaxDistanceKm}
	}
	return Decision{Accepted: true, DistanceKm: distance, AccuracyM: reported.AccuracyM}
}
