package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finora/api/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already registered")
)

// Provider is the identity provider the API delegates sign-in to.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password, name string) (*models.Session, error)
	SignInWithIDToken(ctx context.Context, provider, idToken string) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// ProviderError is a non-credential failure reported by the provider.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error (status %d): %s", e.Status, e.Message)
}

// Supabase talks to the GoTrue REST API under <url>/auth/v1.
type Supabase struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSupabase(url, apiKey string) *Supabase {
	return &Supabase{
		baseURL: strings.TrimRight(url, "/") + "/auth/v1",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type gotrueUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        *time.Time `json:"created_at"`
	LastSignInAt     *time.Time `json:"last_sign_in_at"`
	UserMetadata     struct {
		Name      string `json:"name"`
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user_metadata"`
}

type gotrueSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         *gotrueUser `json:"user"`
}

type gotrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
}

func (e gotrueError) message() string {
	for _, m := range []string{e.Msg, e.ErrorDescription, e.Error, e.ErrorCode} {
		if m != "" {
			return m
		}
	}
	return "unknown error"
}

func (s *Supabase) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]string{"email": email, "password": password}
	session, err := s.session(ctx, "/token?grant_type=password", body)
	var perr *ProviderError
	if errors.As(err, &perr) && (perr.Status == http.StatusBadRequest || perr.Status == http.StatusUnauthorized) {
		return nil, ErrInvalidCredentials
	}
	return session, err
}

// SignUp creates the account. When the project requires e-mail
// confirmation the returned session has no access token.
func (s *Supabase) SignUp(ctx context.Context, email, password, name string) (*models.Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}
	session, err := s.session(ctx, "/signup", body)
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Status == http.StatusUnprocessableEntity {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, err
	}
	if session.User.Name == "" {
		session.User.Name = name
	}
	return session, nil
}

// SignInWithIDToken exchanges a federated id token (e.g. Google) for a
// session.
func (s *Supabase) SignInWithIDToken(ctx context.Context, provider, idToken string) (*models.Session, error) {
	body := map[string]string{"provider": provider, "id_token": idToken}
	session, err := s.session(ctx, "/token?grant_type=id_token", body)
	var perr *ProviderError
	if errors.As(err, &perr) && (perr.Status == http.StatusBadRequest || perr.Status == http.StatusUnauthorized) {
		return nil, ErrInvalidCredentials
	}
	return session, err
}

func (s *Supabase) SignOut(ctx context.Context, accessToken string) error {
	req, err := s.newRequest(ctx, http.MethodPost, "/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

func (s *Supabase) session(ctx context.Context, path string, body any) (*models.Session, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := s.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity provider response: %w", err)
	}

	var gs gotrueSession
	if err := json.Unmarshal(raw, &gs); err != nil {
		return nil, fmt.Errorf("failed to decode identity provider response: %w", err)
	}
	if gs.User == nil {
		// signup without auto-confirm answers with the bare user object
		var u gotrueUser
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("failed to decode identity provider user: %w", err)
		}
		gs.User = &u
	}
	if gs.User.ID == "" {
		return nil, &ProviderError{Status: resp.StatusCode, Message: "response carried no user"}
	}

	return &models.Session{
		AccessToken:  gs.AccessToken,
		RefreshToken: gs.RefreshToken,
		ExpiresIn:    gs.ExpiresIn,
		User:         toUser(*gs.User),
	}, nil
}

func (s *Supabase) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func decodeError(resp *http.Response) error {
	var ge gotrueError
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &ge); err != nil {
		return &ProviderError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return &ProviderError{Status: resp.StatusCode, Message: ge.message()}
}

func toUser(u gotrueUser) models.User {
	user := models.User{
		UserID:        u.ID,
		Email:         u.Email,
		Name:          u.UserMetadata.Name,
		EmailVerified: u.EmailConfirmedAt != nil,
		LastLoginAt:   u.LastSignInAt,
		CreatedAt:     u.CreatedAt,
	}
	if user.Name == "" {
		user.Name = u.UserMetadata.FullName
	}
	if u.UserMetadata.AvatarURL != "" {
		photo := u.UserMetadata.AvatarURL
		user.PhotoURL = &photo
	}
	return user
}
