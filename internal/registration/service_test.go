package registration

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/congo-pay/pos_trust/internal/clock"
	"github.com/congo-pay/pos_trust/internal/credential"
	"github.com/congo-pay/pos_trust/internal/metrics"
	"github.com/congo-pay/pos_trust/internal/terminal"
)

var idPattern = regexp.MustCompile(`^POS-[0-9A-Z]+-[A-Z2-9]{6}$`)

func newTestService(t *testing.T) (*Service, *terminal.Registry, *metrics.Metrics) {
	t.Helper()
	reg := terminal.NewRegistry(terminal.NewMemoryRepository())
	m := metrics.New()
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewService(reg, credential.NewHasher(bcrypt.MinCost), clk, m, "https://pos.example.com/"), reg, m
}

func santiagoInput() Input {
	return Input{
		Business: Business{
			Name:     "  Panaderia Central ",
			Location: terminal.Location{Latitude: -33.4489, Longitude: -70.6693, Address: "Av. Libertador 100", Region: "RM"},
		},
		DeviceType: terminal.DeviceAndroidPOS,
	}
}

func TestRegisterStoresHashAndReturnsKeyOnce(t *testing.T) {
	svc, reg, m := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, santiagoInput())
	require.NoError(t, err)

	assert.Regexp(t, idPattern, res.TerminalID)
	assert.Len(t, res.AccessKey, credential.SecretLength)
	assert.NotContains(t, res.AccessKey, "0")
	assert.NotContains(t, res.AccessKey, "l")

	rec, err := reg.FindByID(ctx, res.TerminalID)
	require.NoError(t, err)
	assert.Equal(t, "Panaderia Central", rec.BusinessName)
	assert.True(t, rec.Active)
	assert.Empty(t, rec.BoundHardwareID)
	assert.Equal(t, DefaultPermissions, rec.Permissions)
	assert.NotContains(t, string(rec.SecretHash), res.AccessKey)
	assert.True(t, credential.NewVerifier().Verify(res.AccessKey, rec.SecretHash))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TerminalsRegistered))
}

func TestRegisterPrebindsHardwareAndDedupesPermissions(t *testing.T) {
	svc, reg, _ := newTestService(t)
	in := santiagoInput()
	in.HardwareID = " IMEI-1 "
	in.Permissions = []string{"documents:create", " ", "documents:create", "reports:read"}

	res, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	rec, err := reg.FindByID(context.Background(), res.TerminalID)
	require.NoError(t, err)
	assert.Equal(t, "IMEI-1", rec.BoundHardwareID)
	assert.Equal(t, []string{"documents:create", "reports:read"}, rec.Permissions)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	cases := map[string]func(*Input){
		"missing name":    func(in *Input) { in.Business.Name = "  " },
		"bad latitude":    func(in *Input) { in.Business.Location.Latitude = 91 },
		"bad longitude":   func(in *Input) { in.Business.Location.Longitude = -181 },
		"bad device type": func(in *Input) { in.DeviceType = "toaster" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := santiagoInput()
			mutate(&in)
			_, err := svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterDefaultsDeviceType(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := santiagoInput()
	in.DeviceType = ""
	res, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, terminal.DeviceGeneric, res.Onboarding.DeviceType)
}

func TestNewTerminalIDEncodesTime(t *testing.T) {
	id, err := NewTerminalID(36)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "POS-10-"), id)
	assert.Regexp(t, idPattern, id)
}

func TestOnboardingPerDeviceType(t *testing.T) {
	for _, dt := range []terminal.DeviceType{terminal.DeviceAndroidPOS, terminal.DeviceIOSTablet, terminal.DeviceWebKiosk, terminal.DeviceGeneric} {
		ob := BuildOnboarding(dt, "POS-X-ABCDEF", "https://pos.example.com")
		assert.Equal(t, "https://pos.example.com/api/v1/auth/login", ob.LoginURL)
		assert.Equal(t, "https://pos.example.com/api/v1/auth/renew", ob.RenewURL)
		require.NotEmpty(t, ob.Steps, dt)
		for i, s := range ob.Steps {
			assert.Equal(t, i+1, s.Order)
		}
	}
	assert.Equal(t, BuildOnboarding(terminal.DeviceWebKiosk, "a", "b"), BuildOnboarding(terminal.DeviceWebKiosk, "a", "b"))
}

func TestOnboardingNeverContainsAccessKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	res, err := svc.Register(context.Background(), santiagoInput())
	require.NoError(t, err)
	for _, s := range res.Onboarding.Steps {
		assert.NotContains(t, s.Detail, res.AccessKey)
	}
}
