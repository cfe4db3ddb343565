// Package session drives the admin's passwordless login: request a one-time
// code by email, verify it, hold the resulting identity and persist the
// minimal {user, isAuthenticated} record across restarts.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"creatorstribe/internal/models"
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateOTPRequested    State = "otp_requested"
	StateAuthenticated   State = "authenticated"
)

const (
	msgSendFailed   = "Failed to send verification code"
	msgInvalidCode  = "Invalid verification code"
	msgLogoutFailed = "Logout failed"
)

var (
	ErrEmailRequired        = errors.New("email is required")
	ErrCodeRequired         = errors.New("verification code is required")
	ErrNoPendingCode        = errors.New("no verification code has been requested")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrSuperseded           = errors.New("superseded by a newer request")
)

// Provider is the identity service that issues and checks codes.
type Provider interface {
	SendCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (models.User, error)
	InvalidateSession(ctx context.Context) error
}

// View is a read-only copy of the session.
type View struct {
	State           State
	User            *models.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	PendingEmail    string
	CodeSent        bool
}

type Options struct {
	// Timeout bounds every provider call. Zero disables it.
	Timeout time.Duration
	Log     zerolog.Logger
}

// AuthSession is the single owner of the admin session. Callers read it via
// Snapshot and change it only through its operations.
type AuthSession struct {
	provider Provider
	store    Store
	timeout  time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	state    State
	user     *models.User
	loading  bool
	errMsg   string
	pending  string
	codeSent bool
	seq      uint64
}

// New restores any persisted record before returning; no provider call is
// made.
func New(ctx context.Context, provider Provider, store Store, opts Options) (*AuthSession, error) {
	s := &AuthSession{
		provider: provider,
		store:    store,
		timeout:  opts.Timeout,
		log:      opts.Log,
		state:    StateUnauthenticated,
	}

	persisted, ok, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ok && persisted.IsAuthenticated && persisted.User != nil {
		user := *persisted.User
		s.user = &user
		s.state = StateAuthenticated
	}
	return s, nil
}

func (s *AuthSession) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		State:           s.state,
		IsAuthenticated: s.state == StateAuthenticated,
		IsLoading:       s.loading,
		Error:           s.errMsg,
		PendingEmail:    s.pending,
		CodeSent:        s.codeSent,
	}
	if s.user != nil {
		user := *s.user
		view.User = &user
	}
	return view
}

func (s *AuthSession) RequestOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	s.mu.Lock()
	if s.state == StateAuthenticated {
		s.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	if email == "" {
		s.errMsg = ErrEmailRequired.Error()
		s.mu.Unlock()
		return ErrEmailRequired
	}
	seq := s.begin()
	s.mu.Unlock()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	err := s.provider.SendCode(callCtx, email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return ErrSuperseded
	}
	s.loading = false
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("send verification code failed")
		s.errMsg = messageOr(err, msgSendFailed)
		if s.state != StateOTPRequested {
			s.state = StateUnauthenticated
		}
		return err
	}

	s.state = StateOTPRequested
	s.pending = email
	s.codeSent = true
	return nil
}

func (s *AuthSession) VerifyOTP(ctx context.Context, email, code string) (models.User, error) {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)

	s.mu.Lock()
	if s.state != StateOTPRequested {
		s.mu.Unlock()
		return models.User{}, ErrNoPendingCode
	}
	if email == "" {
		email = s.pending
	}
	if code == "" {
		s.errMsg = ErrCodeRequired.Error()
		s.mu.Unlock()
		return models.User{}, ErrCodeRequired
	}
	seq := s.begin()
	s.mu.Unlock()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	user, err := s.provider.VerifyCode(callCtx, email, code)

	// Runs after mu is released.
	var discard bool
	defer func() {
		if !discard {
			return
		}
		if err := s.provider.InvalidateSession(callCtx); err != nil {
			s.log.Warn().Err(err).Msg("discard unsaved session failed")
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return models.User{}, ErrSuperseded
	}
	s.loading = false
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("verify code failed")
		s.errMsg = messageOr(err, msgInvalidCode)
		return models.User{}, err
	}

	// The code is spent, so an unsaved sign-in goes back to email entry and
	// the token the provider already holds is dropped.
	if err := s.store.Save(ctx, Persisted{User: &user, IsAuthenticated: true}); err != nil {
		s.log.Warn().Err(err).Msg("persist session failed")
		s.errMsg = err.Error()
		s.state = StateUnauthenticated
		s.pending = ""
		s.codeSent = false
		discard = true
		return models.User{}, err
	}
	s.user = &user
	s.state = StateAuthenticated
	s.pending = ""
	s.codeSent = false
	return user, nil
}

// Cancel abandons a pending code and returns to email entry.
func (s *AuthSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOTPRequested {
		return
	}
	s.seq++
	s.state = StateUnauthenticated
	s.loading = false
	s.errMsg = ""
	s.pending = ""
	s.codeSent = false
}

// Logout always clears the local session, even when the provider could not
// invalidate the remote one; that failure is returned and kept as the error.
func (s *AuthSession) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	seq := s.begin()
	s.mu.Unlock()

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	remoteErr := s.provider.InvalidateSession(callCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.seq {
		s.loading = false
	}
	s.user = nil
	s.state = StateUnauthenticated
	s.pending = ""
	s.codeSent = false

	clearErr := s.store.Clear(ctx)
	if clearErr != nil {
		// A signed-out record restores as unauthenticated, same as no record.
		if err := s.store.Save(ctx, Persisted{}); err == nil {
			s.log.Warn().Err(clearErr).Msg("clear persisted session failed, overwritten instead")
			clearErr = nil
		}
	}
	if remoteErr != nil {
		s.log.Warn().Err(remoteErr).Msg("remote session invalidation failed, local session cleared")
		s.errMsg = messageOr(remoteErr, msgLogoutFailed)
		return remoteErr
	}
	if clearErr != nil {
		s.errMsg = clearErr.Error()
		return clearErr
	}
	return nil
}

func (s *AuthSession) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// begin must be called with mu held. It starts a new operation, making any
// in-flight one stale.
func (s *AuthSession) begin() uint64 {
	s.seq++
	s.loading = true
	s.errMsg = ""
	return s.seq
}

func (s *AuthSession) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func messageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
