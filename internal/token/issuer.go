package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/congo-pay/pos_trust/internal/clock"
	"github.com/congo-pay/pos_trust/internal/terminal"
)

// DefaultLifetime is how long a token stays valid when not configured.
const DefaultLifetime = 12 * time.Hour

var (
	// ErrExpired means the signature is valid but the token is past expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers malformed tokens, bad signatures, wrong algorithm or issuer.
	ErrInvalid = errors.New("token invalid")
	// ErrTerminalInactive is returned by Renew when the terminal no longer
	// exists or has been deactivated.
	ErrTerminalInactive = errors.New("terminal inactive")
	// ErrDeviceChanged is returned by Renew when the token's hardware id no
	// longer matches the terminal's bound hardware.
	ErrDeviceChanged = errors.New("terminal device changed")
)

// Claims is the payload carried by a terminal bearer token.
type Claims struct {
	TerminalID   string              `json:"tid"`
	BusinessName string              `json:"biz"`
	DeviceType   terminal.DeviceType `json:"dev"`
	HardwareID   string              `json:"hwid"`
	Permissions  []string            `json:"perm"`
	jwt.RegisteredClaims
}

// Issued is a freshly signed token.
type Issued struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    *Claims
}

// Lookup is the registry view Renew needs for its liveness check.
type Lookup interface {
	FindByID(ctx context.Context, id string) (terminal.Record, error)
}

// Config configures an Issuer.
type Config struct {
	Secret   []byte
	Issuer   string
	Lifetime time.Duration
}

// Issuer mints and verifies HS256 terminal tokens. Only this type touches
// token signatures.
type Issuer struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	clock    clock.Clock
	lookup   Lookup
}

// NewIssuer builds an Issuer. lookup may be nil when Renew is not used.
func NewIssuer(cfg Config, clk clock.Clock, lookup Lookup) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("token signing secret is required")
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultLifetime
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Issuer{
		secret:   append([]byte(nil), cfg.Secret...),
		issuer:   cfg.Issuer,
		lifetime: cfg.Lifetime,
		clock:    clk,
		lookup:   lookup,
	}, nil
}

// Lifetime returns the configured token lifetime.
func (i *Issuer) Lifetime() time.Duration { return i.lifetime }

// Issue signs a token for rec as presented by hardwareID.
func (i *Issuer) Issue(rec terminal.Record, hardwareID string) (Issued, error) {
	now := i.clock.Now().Truncate(time.Second)
	exp := now.Add(i.lifetime)

	claims := &Claims{
		TerminalID:   rec.ID,
		BusinessName: rec.BusinessName,
		DeviceType:   rec.DeviceType,
		HardwareID:   hardwareID,
		Permissions:  append([]string(nil), rec.Permissions...),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   rec.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign token: %w", err)
	}
	return Issued{Token: signed, IssuedAt: now, ExpiresAt: exp, Claims: claims}, nil
}

// Verify checks signature, algorithm, issuer and expiry. It does not consult
// the registry; claims are a snapshot from issue time.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !parsed.Valid || claims.TerminalID == "" || claims.IssuedAt == nil {
		return nil, ErrInvalid
	}
	return claims, nil
}

// Renew verifies the presented token, confirms the terminal is still active
// and bound to the same hardware, then mints a new token from the current
// record. The presented token stays valid until its own expiry.
func (i *Issuer) Renew(ctx context.Context, tokenString string) (Issued, *Claims, error) {
	claims, err := i.Verify(tokenString)
	if err != nil {
		return Issued{}, nil, err
	}
	if i.lookup == nil {
		return Issued{}, claims, fmt.Errorf("renew: no terminal lookup configured")
	}

	rec, err := i.lookup.FindByID(ctx, claims.TerminalID)
	if err != nil {
		if errors.Is(err, terminal.ErrNotFound) {
			return Issued{}, claims, ErrTerminalInactive
		}
		return Issued{}, claims, fmt.Errorf("renew lookup: %w", err)
	}
	if !rec.Active {
		return Issued{}, claims, ErrTerminalInactive
	}
	if rec.BoundHardwareID != claims.HardwareID {
		return Issued{}, claims, ErrDeviceChanged
	}

	issued, err := i.Issue(rec, claims.HardwareID)
	if err != nil {
		return Issued{}, claims, err
	}
	return issued, claims, nil
}
