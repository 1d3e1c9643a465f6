package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngoctd/storefront/internal/api"
	"github.com/ngoctd/storefront/internal/model"
	"github.com/ngoctd/storefront/internal/testutil"
)

type fakeAuthAPI struct {
	loginRes    *api.LoginResponse
	loginErr    error
	registerRes *api.RegisterResponse
	registerErr error
	firebaseRes *api.LoginResponse
	firebaseErr error
	profileRes  *api.LoginResponse
	profileErr  error

	started   chan struct{}
	startOnce sync.Once
	block     chan struct{}
}

func (f *fakeAuthAPI) wait() {
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeAuthAPI) Login(context.Context, string, string) (*api.LoginResponse, error) {
	f.wait()
	return f.loginRes, f.loginErr
}

func (f *fakeAuthAPI) Register(context.Context, string, string, string) (*api.RegisterResponse, error) {
	f.wait()
	return f.registerRes, f.registerErr
}

func (f *fakeAuthAPI) FirebaseLogin(context.Context, string) (*api.LoginResponse, error) {
	f.wait()
	return f.firebaseRes, f.firebaseErr
}

func (f *fakeAuthAPI) UpdateProfile(context.Context, string, api.ProfileUpdate) (*api.LoginResponse, error) {
	f.wait()
	return f.profileRes, f.profileErr
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{}
	if !expiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

func newAuthStore(t *testing.T, authAPI AuthAPI, state model.StateStore) *Auth {
	t.Helper()
	a := NewAuth(authAPI, state, testutil.MakeNoopLogger())
	require.NoError(t, a.Hydrate(context.Background()))
	return a
}

func requireConsistent(t *testing.T, session model.Session) {
	t.Helper()
	require.True(t, session.Valid(), "user and token must be set or cleared together")
}

func TestAuth_Login_Success(t *testing.T) {
	ctx := context.Background()
	authAPI := &fakeAuthAPI{loginRes: &api.LoginResponse{ID: "u1", Name: "An", Email: "an@example.com", IsAdmin: true, Token: "tok"}}
	a := newAuthStore(t, authAPI, newMemState())

	require.NoError(t, a.Login(ctx, "an@example.com", "secret"))

	session := a.Session()
	requireConsistent(t, session)
	require.NotNil(t, session.User)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, "An", session.User.Name)
	assert.True(t, session.User.IsAdmin)
	assert.Equal(t, "tok", session.Token)
}

func TestAuth_Login_FailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	authAPI := &fakeAuthAPI{loginErr: model.NewAPIError(401, "invalid email or password")}
	a := newAuthStore(t, authAPI, newMemState())

	err := a.Login(ctx, "an@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	session := a.Session()
	requireConsistent(t, session)
	assert.Nil(t, session.User)
	assert.Empty(t, session.Token)
}

func TestAuth_Login_FailureKeepsPriorSession(t *testing.T) {
	ctx := context.Background()
	authAPI := &fakeAuthAPI{loginRes: &api.LoginResponse{ID: "u1", Name: "An", Email: "an@example.com", Token: "tok"}}
	a := newAuthStore(t, authAPI, newMemState())
	require.NoError(t, a.Login(ctx, "an@example.com", "secret"))

	authAPI.loginRes = nil
	authAPI.loginErr = errors.New("connection refused")
	require.Error(t, a.Login(ctx, "an@example.com", "secret"))

	session := a.Session()
	requireConsistent(t, session)
	require.NotNil(t, session.User)
	assert.Equal(t, "u1", session.User.ID)
	assert.Equal(t, "tok", session.Token)
}

func TestAuth_Login_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		res  *api.LoginResponse
	}{
		{name: "missing token", res: &api.LoginResponse{ID: "u1", Name: "An"}},
		{name: "missing id", res: &api.LoginResponse{Name: "An", Token: "tok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAuthStore(t, &fakeAuthAPI{loginRes: tt.res}, newMemState())

			err := a.Login(context.Background(), "an@example.com", "secret")
			assert.ErrorIs(t, err, model.ErrMalformedResponse)

			session := a.Session()
			requireConsistent(t, session)
			assert.Nil(t, session.User)
		})
	}
}

func TestAuth_FirebaseLogin_Success(t *testing.T) {
	authAPI := &fakeAuthAPI{firebaseRes: &api.LoginResponse{ID: "u2", Name: "Binh", Email: "binh@example.com", Token: "fbtok"}}
	a := newAuthStore(t, authAPI, newMemState())

	require.NoError(t, a.FirebaseLogin(context.Background(), "id-token"))

	session := a.Session()
	require.NotNil(t, session.User)
	assert.Equal(t, "u2", session.User.ID)
	assert.Equal(t, "fbtok", session.Token)
}

func TestAuth_RegisterAndLogin_Success(t *testing.T) {
	authAPI := &fakeAuthAPI{registerRes: &api.RegisterResponse{
		User:  model.User{ID: "u3", Name: "Chi", Email: "chi@example.com"},
		Token: "regtok",
	}}
	a := newAuthStore(t, authAPI, newMemState())

	require.NoError(t, a.RegisterAndLogin(context.Background(), "Chi", "chi@example.com", "secret"))

	session := a.Session()
	requireConsistent(t, session)
	require.NotNil(t, session.User)
	assert.Equal(t, "u3", session.User.ID)
	assert.Equal(t, "regtok", session.Token)
}

func TestAuth_RegisterAndLogin_MalformedResponse(t *testing.T) {
	authAPI := &fakeAuthAPI{registerRes: &api.RegisterResponse{User: model.User{Name: "Chi"}}}
	a := newAuthStore(t, authAPI, newMemState())

	err := a.RegisterAndLogin(context.Background(), "Chi", "chi@example.com", "secret")
	assert.ErrorIs(t, err, model.ErrMalformedResponse)
	assert.Nil(t, a.Session().User)
}

func TestAuth_UpdateProfile_RefreshesSession(t *testing.T) {
	ctx := context.Background()
	authAPI := &fakeAuthAPI{
		loginRes:   &api.LoginResponse{ID: "u1", Name: "An", Email: "an@example.com", Token: "tok"},
		profileRes: &api.LoginResponse{ID: "u1", Name: "An Nguyen", Email: "an@example.com", Token: "tok2"},
	}
	a := newAuthStore(t, authAPI, newMemState())
	require.NoError(t, a.Login(ctx, "an@example.com", "secret"))

	require.NoError(t, a.UpdateProfile(ctx, api.ProfileUpdate{Name: "An Nguyen"}))

	session := a.Session()
	require.NotNil(t, session.User)
	assert.Equal(t, "An Nguyen", session.User.Name)
	assert.Equal(t, "tok2", session.Token)
}

func TestAuth_UpdateProfile_RequiresLogin(t *testing.T) {
	a := newAuthStore(t, &fakeAuthAPI{}, newMemState())

	err := a.UpdateProfile(context.Background(), api.ProfileUpdate{Name: "X"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestAuth_Logout_ClearsBothFields(t *testing.T) {
	ctx := context.Background()
	authAPI := &fakeAuthAPI{loginRes: &api.LoginResponse{ID: "u1", Name: "An", Token: "tok"}}
	a := newAuthStore(t, authAPI, newMemState())
	require.NoError(t, a.Login(ctx, "an@example.com", "secret"))

	require.NoError(t, a.Logout(ctx))

	session := a.Session()
	requireConsistent(t, session)
	assert.Nil(t, session.User)
	assert.Empty(t, session.Token)
}

func TestAuth_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	state := newMemState()
	authAPI := &fakeAuthAPI{loginRes: &api.LoginResponse{ID: "u1", Name: "An", Email: "an@example.com", Token: signedToken(t, time.Now().Add(time.Hour))}}
	a := newAuthStore(t, authAPI, state)
	require.NoError(t, a.Login(ctx, "an@example.com", "secret"))

	rehydrated := NewAuth(authAPI, state, testutil.MakeNoopLogger())
	require.NoError(t, rehydrated.Hydrate(ctx))

	assert.Equal(t, a.Session(), rehydrated.Session())
}

func TestAuth_Hydrate_DropsExpiredCredential(t *testing.T) {
	ctx := context.Background()
	state := newMemState()
	expired := model.Session{
		User:  &model.User{ID: "u1", Name: "An", Email: "an@example.com"},
		Token: signedToken(t, time.Now().Add(-time.Hour)),
	}
	data, err := json.Marshal(model.AuthState{Version: model.StateVersion, Session: expired})
	require.NoError(t, err)
	require.NoError(t, state.Save(ctx, model.AuthStateName, data))

	a := NewAuth(&fakeAuthAPI{}, state, testutil.MakeNoopLogger())
	require.NoError(t, a.Hydrate(ctx))

	assert.True(t, a.Hydrated())
	assert.Nil(t, a.Session().User, "an expired persisted credential starts logged out")
}

func TestAuth_Hydrate_KeepsTokenWithoutExpiry(t *testing.T) {
	ctx := context.Background()
	state := newMemState()
	session := model.Session{
		User:  &model.User{ID: "u1", Name: "An", Email: "an@example.com"},
		Token: signedToken(t, time.Time{}),
	}
	data, err := json.Marshal(model.AuthState{Version: model.StateVersion, Session: session})
	require.NoError(t, err)
	require.NoError(t, state.Save(ctx, model.AuthStateName, data))

	a := NewAuth(&fakeAuthAPI{}, state, testutil.MakeNoopLogger())
	require.NoError(t, a.Hydrate(ctx))

	require.NotNil(t, a.Session().User)
	assert.Equal(t, "u1", a.Session().User.ID)
}

func TestAuth_Hydrate_DiscardsInconsistentSession(t *testing.T) {
	ctx := context.Background()
	state := newMemState()
	orphanToken := model.AuthState{Version: model.StateVersion, Session: model.Session{Token: "tok"}}
	data, err := json.Marshal(orphanToken)
	require.NoError(t, err)
	require.NoError(t, state.Save(ctx, model.AuthStateName, data))

	a := NewAuth(&fakeAuthAPI{}, state, testutil.MakeNoopLogger())
	require.NoError(t, a.Hydrate(ctx))

	session := a.Session()
	requireConsistent(t, session)
	assert.Nil(t, session.User)
	assert.Empty(t, session.Token)
}

func TestAuth_Hydrate_DiscardsCorruptState(t *testing.T) {
	ctx := context.Background()
	state := newMemState()
	require.NoError(t, state.Save(ctx, model.AuthStateName, []byte("??")))

	a := NewAuth(&fakeAuthAPI{}, state, testutil.MakeNoopLogger())
	require.NoError(t, a.Hydrate(ctx))

	assert.True(t, a.Hydrated())
	assert.Nil(t, a.Session().User)
}

func TestAuth_Login_RejectsConcurrentSubmission(t *testing.T) {
	ctx := context.Background()
	authAPI := &fakeAuthAPI{
		loginRes: &api.LoginResponse{ID: "u1", Name: "An", Token: "tok"},
		started:  make(chan struct{}),
		block:    make(chan struct{}),
	}
	a := newAuthStore(t, authAPI, newMemState())

	done := make(chan error, 1)
	go func() {
		done <- a.Login(ctx, "an@example.com", "secret")
	}()

	<-authAPI.started
	assert.ErrorIs(t, a.Login(ctx, "an@example.com", "secret"), model.ErrRequestInFlight)
	assert.ErrorIs(t, a.RegisterAndLogin(ctx, "An", "an@example.com", "secret"), model.ErrRequestInFlight)

	close(authAPI.block)
	require.NoError(t, <-done)
}
