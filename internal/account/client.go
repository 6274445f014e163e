// Package account talks to the nutriscan account backend: a small REST API
// authenticated with a bearer token returned by login or register.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/nutriscan/internal/constants"
	nserrors "github.com/julianstephens/nutriscan/internal/errors"
	"github.com/julianstephens/nutriscan/internal/models"
	"github.com/julianstephens/nutriscan/internal/session"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// StatusError is a non-2xx reply from the backend.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = constants.DefaultBackendURL
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, username, password string) (session.Session, error) {
	return c.authenticate(ctx, "/register", username, password)
}

// Login returns a fresh session. The backend rotates the token on every login.
func (c *Client) Login(ctx context.Context, username, password string) (session.Session, error) {
	return c.authenticate(ctx, "/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (session.Session, error) {
	creds := credentials{Username: strings.TrimSpace(username), Password: password}
	if err := validate.Struct(creds); err != nil {
		return session.Session{}, &nserrors.AuthError{Detail: "username and password are required"}
	}

	var out authResponse
	err := c.do(ctx, session.Session{}, http.MethodPost, path, creds, &out)
	var se *StatusError
	if errors.As(err, &se) && (se.Status == http.StatusBadRequest || se.Status == http.StatusUnauthorized) {
		return session.Session{}, &nserrors.AuthError{Status: se.Status, Detail: se.Detail}
	}
	if err != nil {
		return session.Session{}, err
	}
	if out.Token == "" {
		return session.Session{}, fmt.Errorf("backend returned an empty token")
	}
	if out.Username == "" {
		out.Username = creds.Username
	}
	return session.Session{Token: out.Token, Username: out.Username}, nil
}

// ListMeals returns the remote meal collection, newest first.
func (c *Client) ListMeals(ctx context.Context, s session.Session) ([]models.Meal, error) {
	var dtos []mealDTO
	if err := c.do(ctx, s, http.MethodGet, "/meals", nil, &dtos); err != nil {
		return nil, err
	}
	meals := make([]models.Meal, 0, len(dtos))
	for _, d := range dtos {
		meals = append(meals, d.toMeal())
	}
	return meals, nil
}

// CreateMeal stores meal remotely and returns the backend's copy, which
// carries the backend's own id.
func (c *Client) CreateMeal(ctx context.Context, s session.Session, meal models.Meal) (models.Meal, error) {
	var out mealDTO
	if err := c.do(ctx, s, http.MethodPost, "/meals", toMealDTO(meal), &out); err != nil {
		return models.Meal{}, err
	}
	return out.toMeal(), nil
}

func (c *Client) DeleteMeal(ctx context.Context, s session.Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/meals/"+url.PathEscape(id), nil, nil)
}

func (c *Client) GetStats(ctx context.Context, s session.Session) (models.UserStats, error) {
	var out statsDTO
	if err := c.do(ctx, s, http.MethodGet, "/stats", nil, &out); err != nil {
		return models.UserStats{}, err
	}
	return out.toStats(), nil
}

func (c *Client) UpdateStats(ctx context.Context, s session.Session, u StatsUpdate) error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("invalid stats update: %w", err)
	}
	return c.do(ctx, s, http.MethodPut, "/stats", u, nil)
}

func (c *Client) GetProfile(ctx context.Context, s session.Session) (models.UserProfile, error) {
	var out profileDTO
	if err := c.do(ctx, s, http.MethodGet, "/profile", nil, &out); err != nil {
		return models.UserProfile{}, err
	}
	return out.toProfile(), nil
}

func (c *Client) UpdateProfile(ctx context.Context, s session.Session, u ProfileUpdate) error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("invalid profile update: %w", err)
	}
	return c.do(ctx, s, http.MethodPut, "/profile", u, nil)
}

// do sends one JSON request. Paths other than login and register require an
// authenticated session.
func (c *Client) do(ctx context.Context, s session.Session, method, path string, in, out interface{}) error {
	public := path == "/login" || path == "/register"
	if !public && !s.Authenticated() {
		return nserrors.ErrNotAuthenticated
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !public {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := http.StatusText(resp.StatusCode)
		var e errorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Detail != "" {
			detail = e.Detail
		}
		return &StatusError{Status: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
