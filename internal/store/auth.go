package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ngoctd/storefront/internal/api"
	"github.com/ngoctd/storefront/internal/logger"
	"github.com/ngoctd/storefront/internal/model"
	"github.com/ngoctd/storefront/internal/token"
)

// AuthAPI is the slice of the store API the auth store depends on.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Register(ctx context.Context, name, email, password string) (*api.RegisterResponse, error)
	FirebaseLogin(ctx context.Context, idToken string) (*api.LoginResponse, error)
	UpdateProfile(ctx context.Context, bearer string, update api.ProfileUpdate) (*api.LoginResponse, error)
}

// Auth owns the single authenticated identity and its bearer credential.
// All login flows commit user and token together or not at all: a failed
// call leaves the previous session untouched.
type Auth struct {
	api       AuthAPI
	state     model.StateStore
	inspector *token.Inspector
	logger    *logger.Logger

	mu       sync.Mutex
	session  model.Session
	hydrated bool
	inFlight bool
}

// NewAuth creates the auth store. State is empty until Hydrate runs.
func NewAuth(api AuthAPI, state model.StateStore, logger *logger.Logger) *Auth {
	return &Auth{
		api:       api,
		state:     state,
		inspector: token.NewInspector(),
		logger:    logger,
	}
}

// Hydrate loads the persisted session. It runs once per process, before the
// first trustworthy read; anything unusable in durable storage (absent,
// corrupt, wrong version, inconsistent, expired credential) falls back to
// the logged-out default instead of failing.
func (a *Auth) Hydrate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.hydrated {
		return nil
	}
	a.hydrated = true

	data, err := a.state.Load(ctx, model.AuthStateName)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		a.logger.Error("Auth store: failed to load persisted session", "error", err.Error())
		return fmt.Errorf("failed to load persisted session: %w", err)
	}

	var persisted model.AuthState
	if err := json.Unmarshal(data, &persisted); err != nil {
		a.logger.Warn("Auth store: discarding corrupt persisted session", "error", err.Error())
		return nil
	}
	if persisted.Version != model.StateVersion {
		a.logger.Warn("Auth store: discarding persisted session of unsupported version",
			"version", persisted.Version)
		return nil
	}
	if !persisted.Session.Valid() {
		a.logger.Warn("Auth store: discarding inconsistent persisted session")
		return nil
	}
	if persisted.Session.Authenticated() && a.inspector.Expired(persisted.Session.Token, time.Now()) {
		a.logger.Info("Auth store: persisted credential expired, starting logged out",
			"email", persisted.Session.User.Email)
		return nil
	}

	a.session = persisted.Session
	return nil
}

// Hydrated reports whether Hydrate has completed. Consumers should not
// render session-dependent UI before this turns true.
func (a *Auth) Hydrated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hydrated
}

// Session returns the current session snapshot.
func (a *Auth) Session() model.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Login authenticates with email and password. While a login, registration
// or federated login is outstanding, further calls fail with
// ErrRequestInFlight instead of racing the first one.
func (a *Auth) Login(ctx context.Context, email, password string) error {
	if err := a.begin(); err != nil {
		return err
	}
	defer a.end()

	a.logger.Debug("Auth store: logging in", "email", email)

	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		a.logger.Error("Auth store: login failed",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("login failed: %w", err)
	}

	return a.commitFlat(ctx, res)
}

// FirebaseLogin exchanges a federated identity token for a session. Same
// success and failure contract as Login.
func (a *Auth) FirebaseLogin(ctx context.Context, idToken string) error {
	if err := a.begin(); err != nil {
		return err
	}
	defer a.end()

	a.logger.Debug("Auth store: logging in via federated identity")

	res, err := a.api.FirebaseLogin(ctx, idToken)
	if err != nil {
		a.logger.Error("Auth store: federated login failed", "error", err.Error())
		return fmt.Errorf("federated login failed: %w", err)
	}

	return a.commitFlat(ctx, res)
}

// RegisterAndLogin creates an account and starts a session with the
// returned identity.
func (a *Auth) RegisterAndLogin(ctx context.Context, name, email, password string) error {
	if err := a.begin(); err != nil {
		return err
	}
	defer a.end()

	a.logger.Debug("Auth store: registering", "email", email)

	res, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		a.logger.Error("Auth store: registration failed",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("registration failed: %w", err)
	}
	if res.User.ID == "" || res.Token == "" {
		a.logger.Error("Auth store: registration response missing user or token")
		return model.ErrMalformedResponse
	}

	user := res.User
	return a.commit(ctx, model.Session{User: &user, Token: res.Token})
}

// UpdateProfile changes the logged-in user's name, email or password and
// refreshes the session with the identity the server echoes back. Fails
// without touching state when nobody is logged in.
func (a *Auth) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	session := a.Session()
	if !session.Authenticated() {
		return model.ErrUnauthorized
	}

	if err := a.begin(); err != nil {
		return err
	}
	defer a.end()

	res, err := a.api.UpdateProfile(ctx, session.Token, update)
	if err != nil {
		a.logger.Error("Auth store: profile update failed", "error", err.Error())
		return fmt.Errorf("profile update failed: %w", err)
	}

	return a.commitFlat(ctx, res)
}

// Logout unconditionally clears user and token together. It always succeeds
// from the session's point of view; only the durable mirror can fail.
func (a *Auth) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session = model.Session{}
	a.logger.Info("Auth store: logged out")
	return a.persistLocked(ctx)
}

// begin claims the single outstanding-request slot.
func (a *Auth) begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight {
		return model.ErrRequestInFlight
	}
	a.inFlight = true
	return nil
}

func (a *Auth) end() {
	a.mu.Lock()
	a.inFlight = false
	a.mu.Unlock()
}

// commitFlat validates and commits the flat user-plus-token response shape.
func (a *Auth) commitFlat(ctx context.Context, res *api.LoginResponse) error {
	if res.ID == "" || res.Token == "" {
		a.logger.Error("Auth store: login response missing id or token")
		return model.ErrMalformedResponse
	}

	user := model.User{
		ID:      res.ID,
		Name:    res.Name,
		Email:   res.Email,
		IsAdmin: res.IsAdmin,
	}
	return a.commit(ctx, model.Session{User: &user, Token: res.Token})
}

// commit replaces the session and mirrors it to durable storage. The
// in-memory state is committed even when the mirror write fails; the error
// only reports the failed write.
func (a *Auth) commit(ctx context.Context, session model.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.session = session
	a.logger.Info("Auth store: session established",
		"user_id", session.User.ID,
		"email", session.User.Email)
	return a.persistLocked(ctx)
}

func (a *Auth) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(model.AuthState{Version: model.StateVersion, Session: a.session})
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	if err := a.state.Save(ctx, model.AuthStateName, data); err != nil {
		a.logger.Error("Auth store: failed to persist session", "error", err.Error())
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}
