package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Thiritin/shifty/internal/models"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

type mockAuthUsers struct {
	users    map[string]*models.User
	upserted []string
}

func (m *mockAuthUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUsers) UpsertByRemoteID(ctx context.Context, remoteID, name, email string, defaultShiftsExpected int) (*models.User, error) {
	m.upserted = append(m.upserted, remoteID)
	user := &models.User{ID: "user-" + remoteID, RemoteID: remoteID, Name: name, Email: email, ShiftsExpected: defaultShiftsExpected}
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.users[user.ID] = user
	return user, nil
}

type mockStateStore struct {
	states map[string]bool
}

func (m *mockStateStore) StoreLoginState(ctx context.Context, state string, ttl time.Duration) error {
	if m.states == nil {
		m.states = make(map[string]bool)
	}
	m.states[state] = true
	return nil
}

func (m *mockStateStore) ConsumeLoginState(ctx context.Context, state string) (bool, error) {
	if m.states[state] {
		delete(m.states, state)
		return true, nil
	}
	return false, nil
}

func newIdentityProvider(t *testing.T, identity models.Identity) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "provider-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/oauth/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(identity)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newAuthFixture(t *testing.T, identity models.Identity) (*mockAuthUsers, *mockStateStore, *AuthService) {
	return newAuthFixtureWithGroup(t, identity, "volunteers")
}

func newAuthFixtureWithGroup(t *testing.T, identity models.Identity, requiredGroup string) (*mockAuthUsers, *mockStateStore, *AuthService) {
	idp := newIdentityProvider(t, identity)
	users := &mockAuthUsers{}
	states := &mockStateStore{}
	oauthCfg := &oauth2.Config{
		ClientID:     "shifty",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/callback",
		Scopes:       []string{"openid", "profile", "email", "groups"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  idp.URL + "/oauth/authorize",
			TokenURL: idp.URL + "/oauth/token",
		},
	}
	svc := NewAuthService(users, states, oauthCfg, AuthConfig{
		UserInfoURL:           idp.URL + "/oauth/userinfo",
		RequiredGroup:         requiredGroup,
		StateTTL:              time.Minute,
		TokenSecret:           "test-secret",
		TokenExpiry:           time.Hour,
		Issuer:                "shifty-test",
		DefaultShiftsExpected: 3,
	}, zap.NewNop())
	return users, states, svc
}

func TestAuthServiceBeginLogin(t *testing.T) {
	_, states, svc := newAuthFixture(t, models.Identity{})

	url, err := svc.BeginLogin(context.Background())
	require.NoError(t, err)
	assert.Contains(t, url, "state=")
	assert.Len(t, states.states, 1)
}

func TestAuthServiceCallback(t *testing.T) {
	identity := models.Identity{Sub: "idp-1", Name: "alice", Email: "alice@example.com", Groups: []string{"volunteers", "staff"}}
	users, states, svc := newAuthFixture(t, identity)
	require.NoError(t, states.StoreLoginState(context.Background(), "state-1", time.Minute))

	resp, err := svc.HandleCallback(context.Background(), "state-1", "code-1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "alice", resp.User.Name)
	assert.Contains(t, users.upserted, "idp-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestAuthServiceCallbackUnknownState(t *testing.T) {
	_, _, svc := newAuthFixture(t, models.Identity{Sub: "idp-1", Groups: []string{"volunteers"}})

	_, err := svc.HandleCallback(context.Background(), "state-unknown", "code-1")
	require.ErrorContains(t, err, "login state")
}

func TestAuthServiceCallbackStateSingleUse(t *testing.T) {
	identity := models.Identity{Sub: "idp-1", Name: "alice", Email: "alice@example.com", Groups: []string{"volunteers"}}
	_, states, svc := newAuthFixture(t, identity)
	require.NoError(t, states.StoreLoginState(context.Background(), "state-1", time.Minute))

	_, err := svc.HandleCallback(context.Background(), "state-1", "code-1")
	require.NoError(t, err)

	_, err = svc.HandleCallback(context.Background(), "state-1", "code-1")
	require.Error(t, err)
}

func TestAuthServiceCallbackGroupGate(t *testing.T) {
	identity := models.Identity{Sub: "idp-2", Name: "mallory", Email: "mallory@example.com", Groups: []string{"guests"}}
	users, states, svc := newAuthFixture(t, identity)
	require.NoError(t, states.StoreLoginState(context.Background(), "state-1", time.Minute))

	_, err := svc.HandleCallback(context.Background(), "state-1", "code-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrGroupNotAllowed.Code, appErr.Code)
	assert.Empty(t, users.upserted)
}

func TestAuthServiceCallbackDeniesWhenGroupUnconfigured(t *testing.T) {
	identity := models.Identity{Sub: "idp-3", Name: "trent", Email: "trent@example.com", Groups: []string{"volunteers"}}
	users, states, svc := newAuthFixtureWithGroup(t, identity, "")
	require.NoError(t, states.StoreLoginState(context.Background(), "state-1", time.Minute))

	_, err := svc.HandleCallback(context.Background(), "state-1", "code-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrGroupNotAllowed.Code, appErr.Code)
	assert.Empty(t, users.upserted)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	_, _, svc := newAuthFixture(t, models.Identity{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
