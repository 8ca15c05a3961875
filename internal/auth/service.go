package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/congo-pay/pos_trust/internal/audit"
	"github.com/congo-pay/pos_trust/internal/binding"
	"github.com/congo-pay/pos_trust/internal/clock"
	"github.com/congo-pay/pos_trust/internal/credential"
	"github.com/congo-pay/pos_trust/internal/geofence"
	"github.com/congo-pay/pos_trust/internal/logging"
	"github.com/congo-pay/pos_trust/internal/metrics"
	"github.com/congo-pay/pos_trust/internal/notification"
	"github.com/congo-pay/pos_trust/internal/terminal"
	"github.com/congo-pay/pos_trust/internal/token"
)

// ErrRevocationDisabled is returned by RevokeTokens when no revocation list
// is configured.
var ErrRevocationDisabled = errors.New("token revocation is disabled")

// Deps are the collaborators of the orchestrator. Revocations, Notifier,
// Metrics and Logger are optional.
type Deps struct {
	Registry    *terminal.Registry
	Verifier    credential.Verifier
	Guard       binding.Guard
	Geofence    *geofence.Validator
	Issuer      *token.Issuer
	Trail       *audit.Trail
	Revocations token.RevocationList
	Notifier    notification.Notifier
	Metrics     *metrics.Metrics
	Clock       clock.Clock
	Logger      *slog.Logger
}

// Service sequences lookup, credential, device binding, geofence and token
// issue for login, and the token checks for verify and renew.
type Service struct {
	registry    *terminal.Registry
	verifier    credential.Verifier
	guard       binding.Guard
	geofence    *geofence.Validator
	issuer      *token.Issuer
	trail       *audit.Trail
	revocations token.RevocationList
	notifier    notification.Notifier
	metrics     *metrics.Metrics
	clock       clock.Clock
	logger      *slog.Logger
}

func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Geofence == nil {
		d.Geofence = geofence.NewValidator(geofence.Config{})
	}
	return &Service{
		registry:    d.Registry,
		verifier:    d.Verifier,
		guard:       d.Guard,
		geofence:    d.Geofence,
		issuer:      d.Issuer,
		trail:       d.Trail,
		revocations: d.Revocations,
		notifier:    d.Notifier,
		metrics:     d.Metrics,
		clock:       d.Clock,
		logger:      d.Logger,
	}
}

// TerminalConfig is the non-secret configuration a terminal may display.
type TerminalConfig struct {
	GeofenceRadiusKm     float64 `json:"geofenceRadiusKm"`
	MaxAccuracyM         float64 `json:"maxAccuracyM"`
	TokenLifetimeSeconds int64   `json:"tokenLifetimeSeconds"`
}

// TerminalInfo summarises a terminal for its own client.
type TerminalInfo struct {
	ID           string              `json:"id"`
	BusinessName string              `json:"businessName"`
	Permissions  []string            `json:"permissions"`
	DeviceType   terminal.DeviceType `json:"deviceType"`
	Region       string              `json:"region"`
	Config       TerminalConfig      `json:"config"`
}

// LoginResult is a granted login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Terminal  TerminalInfo
	Claims    *token.Claims
}

// RenewResult is a granted renewal.
type RenewResult struct {
	Token     string
	ExpiresAt time.Time
	Claims    *token.Claims
}

// Login authenticates a terminal. Failures are returned as *Error after
// being recorded in the audit trail exactly once.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	s.logger.DebugContext(ctx, "auth.login started", slog.Any("request", req))

	attempt := audit.Attempt{
		Action:     audit.ActionLogin,
		TerminalID: req.TerminalID,
		HardwareID: req.DeviceInfo.HardwareID,
	}
	if reason := req.validate(); reason != "" {
		return LoginResult{}, s.failLogin(ctx, attempt, invalidRequest(reason))
	}
	attempt.TerminalID = req.TerminalID
	attempt.HardwareID = req.DeviceInfo.HardwareID

	rec, err := s.registry.FindByID(ctx, req.TerminalID)
	if errors.Is(err, terminal.ErrNotFound) {
		return LoginResult{}, s.failLogin(ctx, attempt, identityError(CodeTerminalNotFound))
	}
	if err != nil {
		return LoginResult{}, s.failLogin(ctx, attempt, internalError(fmt.Errorf("lookup terminal: %w", err)))
	}
	if !rec.Active {
		return LoginResult{}, s.failLogin(ctx, attempt, identityError(CodeTerminalInactive))
	}
	if !s.verifier.Verify(string(req.AccessKey), rec.SecretHash) {
		return LoginResult{}, s.failLogin(ctx, attempt, identityError(CodeInvalidAccessKey))
	}

	hardwareID := req.DeviceInfo.HardwareID
	bindOutcome := s.guard.Check(rec, hardwareID)
	if !bindOutcome.Accepted() {
		return LoginResult{}, s.failLogin(ctx, attempt, trustError(CodeDeviceNotAuthorized, "hardware mismatch"))
	}

	decision := s.geofence.Validate(rec.Location.Point(), geofence.Reported{
		Point:     req.point(),
		AccuracyM: *req.LocationInfo.Accuracy,
	})
	if decision.Reason != geofence.ReasonImprecise && decision.Reason != geofence.ReasonInvalidCoords {
		s.metrics.ObserveGeofenceDistance(decision.DistanceKm)
	}
	if !decision.Accepted {
		if decision.Reason == geofence.ReasonInvalidCoords {
			return LoginResult{}, s.failLogin(ctx, attempt, invalidRequest("locationInfo out of range"))
		}
		e := trustError(CodeLocationInvalid, string(decision.Reason))
		e.DistanceKm = decision.DistanceKm
		e.AccuracyM = decision.AccuracyM
		attempt.Reason = decision.String()
		return LoginResult{}, s.failLogin(ctx, attempt, e)
	}

	if bindOutcome == binding.FirstBind {
		err := s.registry.BindHardware(ctx, rec.ID, hardwareID)
		if errors.Is(err, terminal.ErrAlreadyBound) {
			return LoginResult{}, s.failLogin(ctx, attempt, trustError(CodeDeviceNotAuthorized, "lost first-bind race"))
		}
		if err != nil {
			return LoginResult{}, s.failLogin(ctx, attempt, internalError(fmt.Errorf("bind hardware: %w", err)))
		}
		rec.BoundHardwareID = hardwareID
	}

	issued, err := s.issuer.Issue(rec, hardwareID)
	if err != nil {
		return LoginResult{}, s.failLogin(ctx, attempt, internalError(err))
	}

	snap := terminal.LoginSnapshot{
		At:         s.clock.Now(),
		HardwareID: hardwareID,
		Model:      req.DeviceInfo.Model,
		OSVersion:  req.DeviceInfo.OSVersion,
		AppVersion: req.DeviceInfo.AppVersion,
		Latitude:   *req.LocationInfo.Latitude,
		Longitude:  *req.LocationInfo.Longitude,
		AccuracyM:  decision.AccuracyM,
		DistanceKm: decision.DistanceKm,
	}
	if err := s.registry.UpdateLastLogin(ctx, rec.ID, snap); err != nil {
		return LoginResult{}, s.failLogin(ctx, attempt, internalError(fmt.Errorf("update last login: %w", err)))
	}

	attempt.Outcome = audit.OutcomeSuccess
	attempt.Reason = bindOutcome.String() + " " + decision.String()
	if _, err := s.trail.Record(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "auth.login audit failed", slog.String("terminal_id", rec.ID), slog.String("error", err.Error()))
		s.metrics.ObserveLogin(string(CodeInternalError))
		return LoginResult{}, internalError(err)
	}
	s.metrics.ObserveLogin(audit.OutcomeSuccess)

	return LoginResult{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Terminal:  s.summary(rec),
		Claims:    issued.Claims,
	}, nil
}

// Verify checks a bearer token and that its terminal is still active, still
// bound to the same hardware and, when revocation is enabled, not revoked.
// It is not audited.
func (s *Service) Verify(ctx context.Context, tokenString string) (*token.Claims, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, mapTokenError(err)
	}
	rec, err := s.registry.FindByID(ctx, claims.TerminalID)
	if errors.Is(err, terminal.ErrNotFound) {
		return nil, trustError(CodeTerminalInactive, "terminal no longer exists")
	}
	if err != nil {
		return nil, internalError(fmt.Errorf("lookup terminal: %w", err))
	}
	if !rec.Active {
		return nil, trustError(CodeTerminalInactive, "terminal deactivated")
	}
	if rec.BoundHardwareID != claims.HardwareID {
		return nil, trustError(CodeDeviceNotAuthorized, "device changed")
	}
	if e := s.checkRevoked(ctx, claims); e != nil {
		return nil, e
	}
	return claims, nil
}

// Renew exchanges a valid token for a fresh one. The presented token is not
// invalidated.
func (s *Service) Renew(ctx context.Context, req RenewRequest) (RenewResult, error) {
	attempt := audit.Attempt{Action: audit.ActionRenew}
	if req.CurrentToken == "" {
		return RenewResult{}, s.failRenew(ctx, attempt, invalidRequest("currentToken is required"))
	}

	claims, err := s.issuer.Verify(req.CurrentToken)
	if err != nil {
		return RenewResult{}, s.failRenew(ctx, attempt, mapTokenError(err))
	}
	attempt.TerminalID = claims.TerminalID
	attempt.HardwareID = claims.HardwareID
	if e := s.checkRevoked(ctx, claims); e != nil {
		return RenewResult{}, s.failRenew(ctx, attempt, e)
	}

	issued, _, err := s.issuer.Renew(ctx, req.CurrentToken)
	switch {
	case errors.Is(err, token.ErrTerminalInactive):
		return RenewResult{}, s.failRenew(ctx, attempt, trustError(CodeTerminalInactive, "terminal inactive or removed"))
	case errors.Is(err, token.ErrDeviceChanged):
		return RenewResult{}, s.failRenew(ctx, attempt, trustError(CodeDeviceNotAuthorized, "device changed"))
	case errors.Is(err, token.ErrExpired), errors.Is(err, token.ErrInvalid):
		return RenewResult{}, s.failRenew(ctx, attempt, mapTokenError(err))
	case err != nil:
		return RenewResult{}, s.failRenew(ctx, attempt, internalError(err))
	}

	attempt.Outcome = audit.OutcomeSuccess
	if _, err := s.trail.Record(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "auth.renew audit failed", slog.String("terminal_id", claims.TerminalID), slog.String("error", err.Error()))
		s.metrics.ObserveRenew(string(CodeInternalError))
		return RenewResult{}, internalError(err)
	}
	s.metrics.ObserveRenew(audit.OutcomeSuccess)
	return RenewResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, Claims: issued.Claims}, nil
}

// Terminal returns the current summary for a verified terminal.
func (s *Service) Terminal(ctx context.Context, terminalID string) (TerminalInfo, error) {
	rec, err := s.registry.FindByID(ctx, terminalID)
	if err != nil {
		return TerminalInfo{}, err
	}
	return s.summary(rec), nil
}

// SetActive enables or disables a terminal. Existing tokens of a disabled
// terminal fail verify and renew from then on.
func (s *Service) SetActive(ctx context.Context, terminalID string, active bool) error {
	if err := s.registry.SetActive(ctx, terminalID, active); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "terminal.active changed", slog.String("terminal_id", terminalID), slog.Bool("active", active))
	return nil
}

// RevokeTokens rejects every token issued for terminalID up to now.
func (s *Service) RevokeTokens(ctx context.Context, terminalID string) (time.Time, error) {
	if s.revocations == nil {
		return time.Time{}, ErrRevocationDisabled
	}
	if _, err := s.registry.FindByID(ctx, terminalID); err != nil {
		return time.Time{}, err
	}
	cutoff := s.clock.Now().Truncate(time.Second)
	if err := s.revocations.RevokeIssuedBefore(ctx, terminalID, cutoff); err != nil {
		return time.Time{}, err
	}
	s.logger.InfoContext(ctx, "terminal.tokens revoked", slog.String("terminal_id", terminalID), slog.Time("cutoff", cutoff))
	return cutoff, nil
}

// Attempts lists the audit trail of a terminal, newest first.
func (s *Service) Attempts(ctx context.Context, terminalID string, limit int) ([]audit.Attempt, error) {
	return s.trail.ListByTerminal(ctx, terminalID, limit)
}

// RejectMalformed audits a request whose body could not be decoded at all.
// rawTerminalID is whatever identifier could be salvaged from the body.
func (s *Service) RejectMalformed(ctx context.Context, action audit.Action, rawTerminalID string) error {
	attempt := audit.Attempt{Action: action, TerminalID: rawTerminalID}
	e := invalidRequest("invalid JSON body")
	if action == audit.ActionRenew {
		return s.failRenew(ctx, attempt, e)
	}
	return s.failLogin(ctx, attempt, e)
}

// RecordRateLimited audits a login turned away by the rate limiter before
// it reached Login.
func (s *Service) RecordRateLimited(ctx context.Context, rawTerminalID, clientIP string) {
	attempt := audit.Attempt{
		Action:     audit.ActionLogin,
		TerminalID: rawTerminalID,
		Reason:     "rate limited client " + clientIP,
	}
	e := &Error{Code: CodeRateLimited, Category: CategoryRequest}
	s.logger.WarnContext(ctx, "auth.login rate limited",
		slog.String("terminal_id", rawTerminalID),
		slog.String("ip", clientIP),
	)
	_ = s.failLogin(ctx, attempt, e)
}

func (s *Service) summary(rec terminal.Record) TerminalInfo {
	cfg := s.geofence.Config()
	return TerminalInfo{
		ID:           rec.ID,
		BusinessName: rec.BusinessName,
		Permissions:  append([]string(nil), rec.Permissions...),
		DeviceType:   rec.DeviceType,
		Region:       rec.Location.Region,
		Config: TerminalConfig{
			GeofenceRadiusKm:     cfg.MaxDistanceKm,
			MaxAccuracyM:         cfg.MaxAccuracyMeters,
			TokenLifetimeSeconds: int64(s.issuer.Lifetime() / time.Second),
		},
	}
}

func (s *Service) checkRevoked(ctx context.Context, claims *token.Claims) *Error {
	revoked, err := token.IsRevoked(ctx, s.revocations, claims)
	if err != nil {
		return internalError(fmt.Errorf("revocation check: %w", err))
	}
	if revoked {
		e := tokenError(CodeTokenInvalid)
		e.Reason = "revoked"
		return e
	}
	return nil
}

func (s *Service) failLogin(ctx context.Context, attempt audit.Attempt, e *Error) error {
	s.record(ctx, attempt, e)
	s.metrics.ObserveLogin(string(e.Code))
	return e
}

func (s *Service) failRenew(ctx context.Context, attempt audit.Attempt, e *Error) error {
	s.record(ctx, attempt, e)
	s.metrics.ObserveRenew(string(e.Code))
	return e
}

// record audits a failure, logs internal causes and alerts on trust failures.
func (s *Service) record(ctx context.Context, attempt audit.Attempt, e *Error) {
	attempt.Outcome = string(e.Code)
	if attempt.Reason == "" {
		attempt.Reason = e.Reason
	}
	if _, err := s.trail.Record(ctx, attempt); err != nil {
		s.logger.ErrorContext(ctx, "auth.audit failed",
			slog.String("terminal_id", attempt.TerminalID),
			slog.String("outcome", attempt.Outcome),
			slog.String("error", err.Error()),
		)
	}
	if e.Category == CategoryInternal {
		s.logger.ErrorContext(ctx, "auth.internal error",
			slog.String("action", string(attempt.Action)),
			slog.String("terminal_id", attempt.TerminalID),
			slog.String("error", e.Reason),
		)
	}
	if s.notifier == nil {
		return
	}
	var kind string
	switch e.Code {
	case CodeDeviceNotAuthorized:
		kind = notification.KindDeviceMismatch
	case CodeLocationInvalid:
		kind = notification.KindLocationRejected
	default:
		return
	}
	msg := notification.Message{
		Kind:       kind,
		TerminalID: attempt.TerminalID,
		HardwareID: attempt.HardwareID,
		Body:       attempt.Reason,
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "auth.notification failed", slog.String("error", err.Error()))
	}
}

func mapTokenError(err error) *Error {
	if errors.Is(err, token.ErrExpired) {
		return tokenError(CodeTokenExpired)
	}
	return tokenError(CodeTokenInvalid)
}
