package registration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/congo-pay/pos_trust/internal/clock"
	"github.com/congo-pay/pos_trust/internal/credential"
	"github.com/congo-pay/pos_trust/internal/geo"
	"github.com/congo-pay/pos_trust/internal/metrics"
	"github.com/congo-pay/pos_trust/internal/terminal"
)

const (
	idPrefix       = "POS"
	idRandomLength = 6
)

// DefaultPermissions are granted when the caller does not specify any.
var DefaultPermissions = []string{"documents:create", "documents:read"}

// ErrInvalidInput wraps every validation failure of Register.
var ErrInvalidInput = errors.New("invalid registration input")

// Business describes the merchant the terminal belongs to.
type Business struct {
	Name     string            `json:"name"`
	Location terminal.Location `json:"location"`
}

// Input is an administrative registration request.
type Input struct {
	Business    Business            `json:"business"`
	DeviceType  terminal.DeviceType `json:"deviceType"`
	HardwareID  string              `json:"hardwareId,omitempty"`
	Permissions []string            `json:"permissions,omitempty"`
}

// Result is returned exactly once. AccessKey is the only copy of the
// plaintext secret and cannot be retrieved later.
type Result struct {
	TerminalID string     `json:"terminalId"`
	AccessKey  string     `json:"accessKey"`
	Onboarding Onboarding `json:"onboardingPayload"`
}

// Service creates terminal identities.
type Service struct {
	registry *terminal.Registry
	hasher   *credential.Hasher
	clock    clock.Clock
	metrics  *metrics.Metrics
	baseURL  string
}

// NewService constructs a registration service.
func NewService(registry *terminal.Registry, hasher *credential.Hasher, clk clock.Clock, m *metrics.Metrics, baseURL string) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{registry: registry, hasher: hasher, clock: clk, metrics: m, baseURL: strings.TrimRight(baseURL, "/")}
}

// Register validates input, generates the id and access key, stores only
// the hash, and returns the onboarding payload. A colliding id surfaces as
// terminal.ErrDuplicateID; there is no retry.
func (s *Service) Register(ctx context.Context, in Input) (Result, error) {
	in, err := normalize(in)
	if err != nil {
		return Result{}, err
	}

	now := s.clock.Now()
	id, err := NewTerminalID(now.Unix())
	if err != nil {
		return Result{}, err
	}
	secret, err := credential.GenerateSecret(credential.SecretLength)
	if err != nil {
		return Result{}, fmt.Errorf("generate access key: %w", err)
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return Result{}, err
	}

	rec := terminal.Record{
		ID:              id,
		SecretHash:      hash,
		DeviceType:      in.DeviceType,
		BoundHardwareID: in.HardwareID,
		BusinessName:    in.Business.Name,
		Location:        in.Business.Location,
		Permissions:     in.Permissions,
		Active:          true,
		CreatedAt:       now,
	}
	if err := s.registry.Create(ctx, rec); err != nil {
		return Result{}, err
	}
	s.metrics.IncrementRegistrations()

	return Result{
		TerminalID: id,
		AccessKey:  secret,
		Onboarding: BuildOnboarding(in.DeviceType, id, s.baseURL),
	}, nil
}

// NewTerminalID builds "POS-<base36 unix seconds>-<6 unambiguous chars>".
// The time part keeps ids roughly sortable and the random part makes
// same-second collisions unlikely.
func NewTerminalID(unixSeconds int64) (string, error) {
	suffix, err := credential.RandomString(idRandomLength, idAlphabet)
	if err != nil {
		return "", fmt.Errorf("generate terminal id: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", idPrefix, strings.ToUpper(strconv.FormatInt(unixSeconds, 36)), suffix), nil
}

// uppercase subset of the access key alphabet so ids read well when spoken
const idAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func normalize(in Input) (Input, error) {
	in.Business.Name = strings.TrimSpace(in.Business.Name)
	in.Business.Location.Address = strings.TrimSpace(in.Business.Location.Address)
	in.Business.Location.Region = strings.TrimSpace(in.Business.Location.Region)
	in.HardwareID = strings.TrimSpace(in.HardwareID)
	if in.DeviceType == "" {
		in.DeviceType = terminal.DeviceGeneric
	}

	if in.Business.Name == "" {
		return in, fmt.Errorf("%w: business name is required", ErrInvalidInput)
	}
	if !in.DeviceType.Valid() {
		return in, fmt.Errorf("%w: unknown device type %q", ErrInvalidInput, in.DeviceType)
	}
	point := geo.Point{Latitude: in.Business.Location.Latitude, Longitude: in.Business.Location.Longitude}
	if !point.Valid() {
		return in, fmt.Errorf("%w: business coordinates out of range", ErrInvalidInput)
	}

	perms := make([]string, 0, len(in.Permissions))
	seen := make(map[string]struct{}, len(in.Permissions))
	for _, p := range in.Permissions {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		perms = append(perms, p)
	}
	if len(perms) == 0 {
		perms = append(perms, DefaultPermissions...)
	}
	in.Permissions = perms
	return in, nil
}
