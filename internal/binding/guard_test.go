package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/congo-pay/pos_trust/internal/terminal"
)

func TestGuardCheck(t *testing.T) {
	g := NewGuard()

	tests := []struct {
		name     string
		bound    string
		reported string
		want     Outcome
	}{
		{"unbound terminal first binds", "", "IMEI-A", FirstBind},
		{"same hardware matches", "IMEI-A", "IMEI-A", Matched},
		{"whitespace is ignored", "IMEI-A", " IMEI-A ", Matched},
		{"different hardware mismatches", "IMEI-A", "IMEI-B", Mismatch},
		{"empty report never binds", "", "", Mismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Check(terminal.Record{BoundHardwareID: tt.bound}, tt.reported)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutcomeAccepted(t *testing.T) {
	assert.True(t, FirstBind.Accepted())
	assert.True(t, Matched.Accepted())
	assert.False(t, Mismatch.Accepted())
	assert.Equal(t, "first_bind", FirstBind.String())
	assert.Equal(t, "mismatch", Mismatch.String())
}
