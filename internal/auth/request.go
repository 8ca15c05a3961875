package auth

import (
	"log/slog"
	"math"
	"strings"

	"github.com/congo-pay/pos_trust/internal/geo"
)

const redacted = "[REDACTED]"

// AccessKey is a plaintext terminal secret. Every printing path redacts it.
type AccessKey string

func (AccessKey) String() string { return redacted }

func (AccessKey) GoString() string { return redacted }

func (AccessKey) LogValue() slog.Value { return slog.StringValue(redacted) }

func (AccessKey) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// DeviceInfo is what the terminal reports about itself.
type DeviceInfo struct {
	HardwareID string `json:"hardwareId"`
	Model      string `json:"model"`
	OSVersion  string `json:"osVersion"`
	AppVersion string `json:"appVersion"`
}

// LocationInfo is the reported GPS fix. Pointers distinguish a missing
// field from a zero coordinate.
type LocationInfo struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

// LoginRequest is the terminal login payload.
type LoginRequest struct {
	TerminalID   string       `json:"terminalId"`
	AccessKey    AccessKey    `json:"accessKey"`
	DeviceInfo   DeviceInfo   `json:"deviceInfo"`
	LocationInfo LocationInfo `json:"locationInfo"`
}

// LogValue keeps the access key out of structured logs.
func (r LoginRequest) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("terminal_id", r.TerminalID),
		slog.String("access_key", redacted),
		slog.String("hardware_id", r.DeviceInfo.HardwareID),
		slog.String("model", r.DeviceInfo.Model),
		slog.String("app_version", r.DeviceInfo.AppVersion),
	}
	if r.LocationInfo.Accuracy != nil {
		attrs = append(attrs, slog.Float64("accuracy_m", *r.LocationInfo.Accuracy))
	}
	return slog.GroupValue(attrs...)
}

// RenewRequest carries the token to exchange.
type RenewRequest struct {
	CurrentToken string `json:"currentToken"`
}

// validate trims identifiers in place and reports the first shape problem.
func (r *LoginRequest) validate() string {
	r.TerminalID = strings.TrimSpace(r.TerminalID)
	r.DeviceInfo.HardwareID = strings.TrimSpace(r.DeviceInfo.HardwareID)

	switch {
	case r.TerminalID == "":
		return "terminalId is required"
	case r.AccessKey == "":
		return "accessKey is required"
	case r.DeviceInfo.HardwareID == "":
		return "deviceInfo.hardwareId is required"
	case r.LocationInfo.Latitude == nil, r.LocationInfo.Longitude == nil, r.LocationInfo.Accuracy == nil:
		return "locationInfo.latitude, longitude and accuracy are required"
	}
	if !r.point().Valid() {
		return "locationInfo coordinates out of range"
	}
	acc := *r.LocationInfo.Accuracy
	if acc < 0 || math.IsNaN(acc) || math.IsInf(acc, 0) {
		return "locationInfo.accuracy must be a non-negative number"
	}
	return ""
}

func (r LoginRequest) point() geo.Point {
	return geo.Point{Latitude: *r.LocationInfo.Latitude, Longitude: *r.LocationInfo.Longitude}
}
