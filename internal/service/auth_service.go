package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Thiritin/shifty/internal/models"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

type authUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpsertByRemoteID(ctx context.Context, remoteID, name, email string, defaultShiftsExpected int) (*models.User, error)
}

type loginStateStore interface {
	StoreLoginState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeLoginState(ctx context.Context, state string) (bool, error)
}

// AuthConfig defines configuration for the identity-provider login flow.
type AuthConfig struct {
	UserInfoURL           string
	RequiredGroup         string
	StateTTL              time.Duration
	TokenSecret           string
	TokenExpiry           time.Duration
	Issuer                string
	DefaultShiftsExpected int
}

// AuthService drives the OAuth2/OIDC login flow against the external
// identity provider and issues the API's own access tokens.
type AuthService struct {
	users  authUserRepository
	states loginStateStore
	oauth  *oauth2.Config
	config AuthConfig
	logger *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, states loginStateStore, oauth *oauth2.Config, config AuthConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.StateTTL <= 0 {
		config.StateTTL = 10 * time.Minute
	}
	return &AuthService{users: users, states: states, oauth: oauth, config: config, logger: logger}
}

// BeginLogin stores a fresh state nonce and returns the provider
// authorization URL the browser should be redirected to.
func (s *AuthService) BeginLogin(ctx context.Context) (string, error) {
	state, err := randomState()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate login state")
	}
	if err := s.states.StoreLoginState(ctx, state, s.config.StateTTL); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store login state")
	}
	return s.oauth.AuthCodeURL(state), nil
}

// HandleCallback completes the login: it redeems the state nonce,
// exchanges the code, loads the provider identity, enforces the group
// requirement and upserts the local user before issuing a token.
func (s *AuthService) HandleCallback(ctx context.Context, state, code string) (*models.LoginResponse, error) {
	if state == "" || code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "missing state or code")
	}
	ok, err := s.states.ConsumeLoginState(ctx, state)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify login state")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown or expired login state")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "failed to exchange authorization code")
	}

	identity, err := s.fetchIdentity(ctx, token)
	if err != nil {
		return nil, err
	}

	// The gate fails closed: an unconfigured required group admits nobody.
	if s.config.RequiredGroup == "" || !identity.HasGroup(s.config.RequiredGroup) {
		s.logger.Info("login rejected, missing group",
			zap.String("sub", identity.Sub),
			zap.String("required_group", s.config.RequiredGroup))
		return nil, appErrors.Clone(appErrors.ErrGroupNotAllowed, "account is not a member of the required group")
	}

	user, err := s.users.UpsertByRemoteID(ctx, identity.Sub, identity.Name, identity.Email, s.config.DefaultShiftsExpected)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert user")
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.TokenExpiry.Seconds()),
		IssuedAt:    time.Now().UTC(),
		User: models.UserInfo{
			ID:      user.ID,
			Name:    user.Name,
			Email:   user.Email,
			IsAdmin: user.IsAdmin,
		},
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.TokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// CurrentUser loads the authenticated user's record.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "user no longer exists")
	}
	return user, nil
}

// Logout records the end of a session. Tokens are stateless, so the
// client discards its copy; nothing is revoked server side.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	s.logger.Info("user logged out", zap.String("user_id", userID))
}

func (s *AuthService) fetchIdentity(ctx context.Context, token *oauth2.Token) (*models.Identity, error) {
	client := s.oauth.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.UserInfoURL, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build userinfo request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch userinfo")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, fmt.Sprintf("userinfo request failed with status %d", resp.StatusCode))
	}
	var identity models.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode userinfo")
	}
	if identity.Sub == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "userinfo response missing subject")
	}
	return &identity, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		UserID:  user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.TokenSecret))
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
