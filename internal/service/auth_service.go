package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creatorstribe/internal/cache"
	"creatorstribe/internal/config"
	"creatorstribe/internal/ids"
	"creatorstribe/internal/models"
	"creatorstribe/internal/repository"
	"creatorstribe/internal/security"
	"creatorstribe/internal/tasks"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidCode     = errors.New("Invalid verification code")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
	ErrAdminSuspended  = errors.New("admin suspended")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNotAllowed         = errors.New("email is not allowed to register")
)

const minPasswordLength = 8

type AdminStore interface {
	UpsertLogin(ctx context.Context, admin models.Admin) (models.Admin, error)
	Create(ctx context.Context, admin models.Admin) (models.Admin, error)
	FindByEmail(ctx context.Context, email string) (models.Admin, error)
	GetByID(ctx context.Context, id string) (models.Admin, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	GetByID(ctx context.Context, id string) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	Touch(ctx context.Context, sessionID, ip, userAgent string) error
}

type CodeStore interface {
	Save(ctx context.Context, email, hash string, ttl time.Duration) error
	Reserve(ctx context.Context, email string, limit int) (cache.OTPEntry, error)
	Consume(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, email string) error
	ReleaseCooldown(ctx context.Context, email string) error
}

type Publisher interface {
	Publish(ctx context.Context, values map[string]any) (string, error)
}

type AuthService struct {
	admins   AdminStore
	sessions SessionStore
	codes    CodeStore
	outbox   Publisher
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	admins AdminStore,
	sessions SessionStore,
	codes CodeStore,
	outbox Publisher,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		admins:   admins,
		sessions: sessions,
		codes:    codes,
		outbox:   outbox,
		cfg:      cfg,
		log:      log.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
}

type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	SessionID   string
	Admin       models.Admin
	User        models.User
}

type VerifyInput struct {
	Email     string
	Code      string
	IPAddress string
	UserAgent string
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func (s *AuthService) allowed(email string) bool {
	if len(s.cfg.Security.AdminEmails) == 0 {
		return true
	}
	for _, candidate := range s.cfg.Security.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(candidate), email) {
			return true
		}
	}
	return false
}

// RequestCode issues a fresh code for email and queues it for delivery.
// Addresses outside the admin allow-list get the same response without a
// code being sent.
func (s *AuthService) RequestCode(ctx context.Context, rawEmail string) error {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return err
	}
	if !s.allowed(email) {
		s.log.Warn().Str("email", email).Msg("code requested for non-admin address")
		return nil
	}
	existing, err := s.admins.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.Status == models.UserStatusSuspended:
		s.log.Warn().Str("admin_id", existing.ID).Msg("code requested for suspended admin")
		return nil
	case err != nil && !errors.Is(err, repository.ErrAdminNotFound):
		return err
	}

	code, err := security.GenerateCode(s.cfg.Security.OTPLength)
	if err != nil {
		return err
	}
	hash, err := security.HashCode(code)
	if err != nil {
		return err
	}

	ttl := s.cfg.Security.OTPTTL
	if err := s.codes.Save(ctx, email, hash, ttl); err != nil {
		return err
	}

	task := tasks.TaskPayload{
		Type:          tasks.TypeLoginCode,
		To:            email,
		Code:          code,
		ExpiresInMins: int(ttl / time.Minute),
	}
	if _, err := s.outbox.Publish(ctx, task.Values()); err != nil {
		if delErr := s.codes.Delete(ctx, email); delErr != nil {
			s.log.Warn().Err(delErr).Str("email", email).Msg("drop unsent code failed")
		}
		if relErr := s.codes.ReleaseCooldown(ctx, email); relErr != nil {
			s.log.Warn().Err(relErr).Str("email", email).Msg("release cooldown failed")
		}
		return fmt.Errorf("queue login code: %w", err)
	}

	s.log.Info().Str("email", email).Msg("login code issued")
	return nil
}

func (s *AuthService) VerifyCode(ctx context.Context, input VerifyInput) (AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return AuthResult{}, err
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return AuthResult{}, ErrInvalidCode
	}

	maxAttempts := s.cfg.Security.OTPMaxAttempts
	entry, err := s.codes.Reserve(ctx, email, maxAttempts)
	switch {
	case errors.Is(err, cache.ErrOTPNotFound):
		return AuthResult{}, ErrInvalidCode
	case errors.Is(err, cache.ErrOTPLocked):
		return AuthResult{}, ErrTooManyAttempts
	case err != nil:
		return AuthResult{}, err
	}

	match, err := security.VerifyCode(code, entry.Hash)
	if err != nil {
		return AuthResult{}, err
	}
	if !match {
		if maxAttempts > 0 && entry.Attempts >= maxAttempts {
			_ = s.codes.Delete(ctx, email)
			s.log.Warn().Str("email", email).Msg("code locked after too many attempts")
		}
		return AuthResult{}, ErrInvalidCode
	}

	// Concurrent verifiers of the same code race here; only the one that
	// removes the key signs in.
	consumed, err := s.codes.Consume(ctx, email)
	if err != nil {
		return AuthResult{}, err
	}
	if !consumed {
		return AuthResult{}, ErrInvalidCode
	}

	admin, err := s.admins.UpsertLogin(ctx, models.Admin{
		ID:          ids.New(),
		Email:       email,
		DisplayName: displayName(email),
		Role:        models.UserRoleAdmin,
		Status:      models.UserStatusActive,
	})
	if err != nil {
		return AuthResult{}, fmt.Errorf("upsert admin: %w", err)
	}
	if admin.Status != models.UserStatusActive {
		return AuthResult{}, ErrAdminSuspended
	}

	return s.issueSession(ctx, admin, input.IPAddress, input.UserAgent)
}

type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	IPAddress string
	UserAgent string
}

// Register creates a password-backed admin and signs it in. Unlike code
// requests, an address outside the allow-list is refused outright.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return AuthResult{}, err
	}
	if len(input.Password) < minPasswordLength {
		return AuthResult{}, ErrWeakPassword
	}
	if !s.allowed(email) {
		s.log.Warn().Str("email", email).Msg("registration refused for non-admin address")
		return AuthResult{}, ErrNotAllowed
	}

	if _, err := s.admins.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrAdminNotFound) {
		return AuthResult{}, err
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = displayName(email)
	}
	admin, err := s.admins.Create(ctx, models.Admin{
		ID:           ids.New(),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	})
	if errors.Is(err, repository.ErrAdminExists) {
		return AuthResult{}, ErrEmailTaken
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("create admin: %w", err)
	}

	return s.issueSession(ctx, admin, input.IPAddress, input.UserAgent)
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// Login signs an admin in with a password. Admins created through a code
// have no password and can only use codes.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}
	if admin.PasswordHash == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	ok, err := security.VerifyPassword(input.Password, admin.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}
	if admin.Status != models.UserStatusActive {
		return AuthResult{}, ErrAdminSuspended
	}

	admin, err = s.admins.UpsertLogin(ctx, admin)
	if err != nil {
		return AuthResult{}, fmt.Errorf("record login: %w", err)
	}

	return s.issueSession(ctx, admin, input.IPAddress, input.UserAgent)
}

func (s *AuthService) issueSession(ctx context.Context, admin models.Admin, ip, userAgent string) (AuthResult, error) {
	now := s.now()
	ttl := s.cfg.Security.JWTAccessTTL
	session := models.Session{
		ID:        ids.New(),
		UserID:    admin.ID,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	token, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		admin.ID,
		session.ID,
		admin.Email,
		string(admin.Role),
		now,
		ttl,
	)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.Info().Str("admin_id", admin.ID).Str("session_id", session.ID).Msg("admin signed in")

	return AuthResult{
		AccessToken: token,
		ExpiresAt:   session.ExpiresAt,
		SessionID:   session.ID,
		Admin:       admin,
		User:        admin.Profile(s.cfg.Table.ProjectID),
	}, nil
}

// Logout ends a session. An already missing session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

// Principal is the authenticated caller of an admin request.
type Principal struct {
	Admin  models.Admin
	Claims security.AccessClaims
}

var (
	ErrInvalidToken    = errors.New("invalid_token")
	ErrSessionMismatch = errors.New("session_mismatch")
)

// Authenticate resolves a bearer token to a live admin session.
func (s *AuthService) Authenticate(ctx context.Context, token, ip, userAgent string) (Principal, error) {
	claims, err := security.ParseAccessToken(token, s.cfg.Security.JWTAccessSecret)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return Principal{}, repository.ErrSessionNotFound
		}
		return Principal{}, err
	}
	if session.UserID != claims.UserID || !session.ExpiresAt.After(s.now()) {
		return Principal{}, ErrSessionMismatch
	}

	admin, err := s.admins.GetByID(ctx, claims.UserID)
	if err != nil {
		return Principal{}, err
	}
	if admin.Status != models.UserStatusActive {
		return Principal{}, ErrAdminSuspended
	}

	if err := s.sessions.Touch(ctx, session.ID, ip, userAgent); err != nil {
		s.log.Debug().Err(err).Str("session_id", session.ID).Msg("touch session failed")
	}

	return Principal{Admin: admin, Claims: *claims}, nil
}

func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
