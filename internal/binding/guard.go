// Package binding enforces first-bind-then-lock between a terminal identity
// and the hardware that logs in with it.
package binding

import (
	"strings"

	"github.com/congo-pay/pos_trust/internal/terminal"
)

// Outcome is the state the guard reaches for one login.
type Outcome int

const (
	// Mismatch means the terminal is locked to different hardware.
	Mismatch Outcome = iota
	// FirstBind means the terminal is unbound and the caller should bind it.
	FirstBind
	// Matched means the reported hardware is the bound hardware.
	Matched
)

func (o Outcome) String() string {
	switch o {
	case FirstBind:
		return "first_bind"
	case Matched:
		return "matched"
	default:
		return "mismatch"
	}
}

// Accepted reports whether the login may continue.
func (o Outcome) Accepted() bool {
	return o == FirstBind || o == Matched
}

// Guard decides device binding from a snapshot of the terminal record. It
// never writes; the compare-and-set bind is left to terminal.Registry.
type Guard struct{}

// NewGuard returns a Guard.
func NewGuard() Guard { return Guard{} }

// Check compares the reported hardware id against rec.
func (Guard) Check(rec terminal.Record, hardwareID string) Outcome {
	hardwareID = strings.TrimSpace(hardwareID)
	if hardwareID == "" {
		return Mismatch
	}
	switch rec.BoundHardwareID {
	case "":
		return FirstBind
	case hardwareID:
		return Matched
	default:
		return Mismatch
	}
}
