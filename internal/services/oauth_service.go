package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wdv96wdv/Doclimb/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ProviderKakao  = "kakao"
	ProviderGoogle = "google"

	oauthStateTTL = 10 * time.Minute
)

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const (
	kakaoUserInfoURL  = "https://kapi.kakao.com/v2/user/me"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

type oauthStateStore interface {
	SaveState(ctx context.Context, state, provider string, ttl time.Duration) error
	ConsumeState(ctx context.Context, state string) (string, error)
}

type identitySignIn interface {
	SignInWithIdentity(ctx context.Context, identity models.ExternalIdentity) (*SignInResult, error)
}

type oauthProvider struct {
	config      *oauth2.Config
	userInfoURL string
	parse       func(body []byte) (models.ExternalIdentity, error)
}

// OAuthCredentials configures one provider.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
}

type OAuthService struct {
	providers map[string]*oauthProvider
	states    oauthStateStore
	auth      identitySignIn
}

// NewOAuthService registers every provider that has credentials. Callbacks
// land on callbackBase + "/api/auth/oauth/<provider>/callback".
func NewOAuthService(states oauthStateStore, auth identitySignIn, callbackBase string, creds map[string]OAuthCredentials) *OAuthService {
	s := &OAuthService{providers: make(map[string]*oauthProvider), states: states, auth: auth}

	if c, ok := creds[ProviderKakao]; ok && c.ClientID != "" {
		s.providers[ProviderKakao] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     c.ClientID,
				ClientSecret: c.ClientSecret,
				Endpoint:     kakaoEndpoint,
				RedirectURL:  callbackBase + "/api/auth/oauth/kakao/callback",
				Scopes:       []string{"profile_nickname", "profile_image", "account_email"},
			},
			userInfoURL: kakaoUserInfoURL,
			parse:       parseKakaoUser,
		}
	}
	if c, ok := creds[ProviderGoogle]; ok && c.ClientID != "" && c.ClientSecret != "" {
		s.providers[ProviderGoogle] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     c.ClientID,
				ClientSecret: c.ClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  callbackBase + "/api/auth/oauth/google/callback",
				Scopes: []string{
					"https://www.googleapis.com/auth/userinfo.email",
					"https://www.googleapis.com/auth/userinfo.profile",
				},
			},
			userInfoURL: googleUserInfoURL,
			parse:       parseGoogleUser,
		}
	}
	return s
}

func (s *OAuthService) provider(name string) (*oauthProvider, error) {
	provider, ok := s.providers[name]
	if !ok {
		return nil, fmt.Errorf("oauth provider %q: %w", name, ErrNotFound)
	}
	return provider, nil
}

// AuthURL starts a sign-in with the provider and remembers its state.
func (s *OAuthService) AuthURL(ctx context.Context, name string) (string, error) {
	provider, err := s.provider(name)
	if err != nil {
		return "", err
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}
	if err := s.states.SaveState(ctx, state, name, oauthStateTTL); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return provider.config.AuthCodeURL(state), nil
}

// Complete exchanges the code, reads the user profile and signs the user in.
func (s *OAuthService) Complete(ctx context.Context, name, state, code string) (*SignInResult, error) {
	provider, err := s.provider(name)
	if err != nil {
		return nil, err
	}
	if state == "" || code == "" {
		return nil, invalid("code", "missing authorization code")
	}

	issuedFor, err := s.states.ConsumeState(ctx, state)
	if err != nil || issuedFor != name {
		return nil, invalid("state", "invalid or expired sign-in attempt")
	}

	token, err := provider.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %v", ErrInvalidCredentials, err)
	}

	identity, err := s.fetchIdentity(ctx, provider, token)
	if err != nil {
		return nil, err
	}
	identity.Provider = name
	return s.auth.SignInWithIdentity(ctx, identity)
}

func (s *OAuthService) fetchIdentity(ctx context.Context, provider *oauthProvider, token *oauth2.Token) (models.ExternalIdentity, error) {
	client := provider.config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.userInfoURL, nil)
	if err != nil {
		return models.ExternalIdentity{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return models.ExternalIdentity{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.ExternalIdentity{}, fmt.Errorf("read user info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.ExternalIdentity{}, fmt.Errorf("user info status %d", resp.StatusCode)
	}
	return provider.parse(body)
}

func parseKakaoUser(body []byte) (models.ExternalIdentity, error) {
	var user struct {
		ID      int64 `json:"id"`
		Account struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname string `json:"nickname"`
				ImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return models.ExternalIdentity{}, fmt.Errorf("decode kakao user: %w", err)
	}
	if user.ID == 0 {
		return models.ExternalIdentity{}, errors.New("kakao user without id")
	}
	return models.ExternalIdentity{
		Subject:   strconv.FormatInt(user.ID, 10),
		Email:     user.Account.Email,
		Name:      user.Account.Profile.Nickname,
		AvatarURL: user.Account.Profile.ImageURL,
	}, nil
}

func parseGoogleUser(body []byte) (models.ExternalIdentity, error) {
	var user struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return models.ExternalIdentity{}, fmt.Errorf("decode google user: %w", err)
	}
	if user.Subject == "" {
		return models.ExternalIdentity{}, errors.New("google user without subject")
	}
	return models.ExternalIdentity{
		Subject:   user.Subject,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.Picture,
	}, nil
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
