// Package apiclient talks to the creatorstribe API on behalf of the admin
// CLI. It satisfies session.Provider and keeps the bearer token in its own
// file next to auth-storage.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"creatorstribe/internal/models"
)

const tokenFile = "access-token"

var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the server's {"error": "..."} message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// Is lets callers match any 401 with errors.Is(err, ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL   string
	http      *http.Client
	log       zerolog.Logger
	tokenPath string

	mu    sync.Mutex
	token string
}

func New(baseURL, stateDir string, timeout time.Duration, log zerolog.Logger) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: timeout},
		log:       log.With().Str("component", "apiclient").Logger(),
		tokenPath: filepath.Join(stateDir, tokenFile),
	}
	if raw, err := os.ReadFile(c.tokenPath); err == nil {
		c.token = strings.TrimSpace(string(raw))
	}
	return c
}

func (c *Client) SendCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/v1/auth/otp", map[string]string{"email": email}, nil)
}

type verifyResponse struct {
	AccessToken string      `json:"accessToken"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	User        models.User `json:"user"`
}

func (c *Client) VerifyCode(ctx context.Context, email, code string) (models.User, error) {
	var resp verifyResponse
	body := map[string]string{"email": email, "code": code}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/otp/verify", body, &resp); err != nil {
		return models.User{}, err
	}
	if err := c.setToken(resp.AccessToken); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// InvalidateSession revokes the server session. The local token is dropped
// whatever the outcome.
func (c *Client) InvalidateSession(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if clearErr := c.setToken(""); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) Me(ctx context.Context) (models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/auth/me", nil, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

type ListParams struct {
	Specialty string
	Status    string
	Search    string
	Limit     int
	Cursor    string
}

type CreatorPage struct {
	Creators   []models.Creator `json:"creators"`
	NextCursor string           `json:"nextCursor"`
}

func (c *Client) ListCreators(ctx context.Context, p ListParams) (CreatorPage, error) {
	q := url.Values{}
	setIf(q, "specialty", p.Specialty)
	setIf(q, "status", p.Status)
	setIf(q, "search", p.Search)
	setIf(q, "cursor", p.Cursor)
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	path := "/v1/admin/creators"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page CreatorPage
	err := c.do(ctx, http.MethodGet, path, nil, &page)
	return page, err
}

type CreatorDetail struct {
	Creator   models.Creator         `json:"creator"`
	Portfolio []models.PortfolioItem `json:"portfolio"`
}

func (c *Client) GetCreator(ctx context.Context, uid, id string) (CreatorDetail, error) {
	var detail CreatorDetail
	err := c.do(ctx, http.MethodGet, creatorPath(uid, id), nil, &detail)
	return detail, err
}

func (c *Client) DeleteCreator(ctx context.Context, uid, id string) error {
	return c.do(ctx, http.MethodDelete, creatorPath(uid, id), nil, nil)
}

func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	err := c.do(ctx, http.MethodGet, "/v1/admin/stats", nil, &stats)
	return stats, err
}

func creatorPath(uid, id string) string {
	return "/v1/admin/creators/" + url.PathEscape(uid) + "/" + url.PathEscape(id)
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return err
	}
	defer resp.Body.Close()

	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api call")

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token

	if token == "" {
		if err := os.Remove(c.tokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove token: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenPath), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(c.tokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
