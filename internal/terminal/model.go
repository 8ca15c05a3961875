package terminal

import (
	"errors"
	"time"

	"github.com/congo-pay/pos_trust/internal/geo"
)

var (
	// ErrNotFound is returned when no terminal exists for the id.
	ErrNotFound = errors.New("terminal not found")
	// ErrDuplicateID is returned by Create when the id is already taken.
	ErrDuplicateID = errors.New("terminal id already exists")
	// ErrAlreadyBound is returned by BindHardware when the terminal is locked
	// to a different hardware identifier.
	ErrAlreadyBound = errors.New("terminal bound to another device")
)

// DeviceType is the capability profile of the physical terminal.
type DeviceType string

const (
	DeviceAndroidPOS DeviceType = "android_pos"
	DeviceIOSTablet  DeviceType = "ios_tablet"
	DeviceWebKiosk   DeviceType = "web_kiosk"
	DeviceGeneric    DeviceType = "generic"
)

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceAndroidPOS, DeviceIOSTablet, DeviceWebKiosk, DeviceGeneric:
		return true
	}
	return false
}

// Location is the registered business address the geofence is anchored to.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Region    string  `json:"region"`
}

// Point returns the coordinates of the location.
func (l Location) Point() geo.Point {
	return geo.Point{Latitude: l.Latitude, Longitude: l.Longitude}
}

// LoginSnapshot is what the terminal reported on its last successful login.
type LoginSnapshot struct {
	At         time.Time `json:"at"`
	HardwareID string    `json:"hardwareId"`
	Model      string    `json:"model,omitempty"`
	OSVersion  string    `json:"osVersion,omitempty"`
	AppVersion string    `json:"appVersion,omitempty"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AccuracyM  float64   `json:"accuracyM"`
	DistanceKm float64   `json:"distanceKm"`
}

// Record is the trust anchor of one physical point-of-sale device.
type Record struct {
	ID              string         `json:"id"`
	SecretHash      []byte         `json:"-"`
	DeviceType      DeviceType     `json:"deviceType"`
	BoundHardwareID string         `json:"boundHardwareId,omitempty"`
	BusinessName    string         `json:"businessName"`
	Location        Location       `json:"location"`
	Permissions     []string       `json:"permissions"`
	Active          bool           `json:"active"`
	LastLogin       *LoginSnapshot `json:"lastLogin,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// clone returns a deep copy so callers never share slices with a store.
func (r Record) clone() Record {
	out := r
	out.SecretHash = append([]byte(nil), r.SecretHash...)
	out.Permissions = append([]string(nil), r.Permissions...)
	if r.LastLogin != nil {
		snap := *r.LastLogin
		out.LastLogin = &snap
	}
	return out
}
