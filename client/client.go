package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

var (
	// ErrUnauthorized indicates missing, invalid, or expired credentials.
	// Always recoverable by re-authenticating.
	ErrUnauthorized = errors.New("client: unauthorized")
	// ErrNotFound indicates an unknown resource such as a username.
	ErrNotFound = errors.New("client: not found")
	// ErrTransport indicates a network failure before a response arrived.
	ErrTransport = errors.New("client: transport failure")
)

// Client talks to the feed API. Credentials travel both ways: the shared
// cookie jar carries the session cookies and the token store supplies the
// explicit bearer header.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	tokens     *TokenStore
	session    *SessionContext
	logger     *zap.Logger
}

// Options configures the client.
type Options struct {
	// BaseURL is the API origin, e.g. "https://feed.example.com".
	BaseURL string
	// Credentials backs the durable token copy. Defaults to in-memory.
	Credentials CredentialStore
	// HTTPTimeout bounds each request. Defaults to 15s.
	HTTPTimeout time.Duration
	Logger      *zap.Logger
}

// New constructs a client with a fresh cookie jar, token store, and session context.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute, got %q", opts.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
		baseURL:    base,
		tokens:     NewTokenStore(jar, base, opts.Credentials),
		session:    NewSessionContext(),
		logger:     logger,
	}, nil
}

// Tokens exposes the token store for the bootstrap flow.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// Session exposes the session context holding the ambient identity.
func (c *Client) Session() *SessionContext {
	return c.session
}

// Me resolves the caller's identity from the current credentials.
func (c *Client) Me(ctx context.Context) (*domain.Profile, error) {
	var out struct {
		Profile domain.Profile `json:"profile"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

// Logout tears the session down. The server call is best-effort: local
// credentials and identity are dropped even if it fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if err != nil {
		c.logger.Warn("logout request failed, clearing local state anyway", zap.Error(err))
	}

	if clearErr := c.tokens.Clear(); clearErr != nil {
		c.logger.Warn("failed to clear credential store", zap.Error(clearErr))
	}
	c.session.Clear()

	return err
}

// ToggleLike flips the caller's like on a post.
func (c *Client) ToggleLike(ctx context.Context, postID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(postID)+"/like", nil, nil)
}

// ToggleBookmark flips the caller's bookmark on a post.
func (c *Client) ToggleBookmark(ctx context.Context, postID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(postID)+"/bookmark", nil, nil)
}

// ToggleFollow flips the caller's follow edge toward a user.
func (c *Client) ToggleFollow(ctx context.Context, userID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/profile/follow/"+url.PathEscape(userID), nil, nil)
}

// Profile fetches a public profile by username.
func (c *Client) Profile(ctx context.Context, username string) (*domain.Profile, error) {
	var out struct {
		Profile domain.Profile `json:"profile"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/profile/"+url.PathEscape(username), nil, &out); err != nil {
		return nil, err
	}
	return &out.Profile, nil
}

// ProfilePosts fetches the newest posts on a public profile page.
func (c *Client) ProfilePosts(ctx context.Context, username string) ([]domain.Post, error) {
	var out struct {
		Posts []domain.Post `json:"posts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/profile/"+url.PathEscape(username)+"/posts", nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// ProfileUpdate carries the updatable profile fields.
type ProfileUpdate struct {
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UpdateProfile saves profile changes and replaces the ambient identity with
// the stored result.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*domain.Profile, error) {
	var out struct {
		Profile domain.Profile `json:"profile"`
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/profile", update, &out); err != nil {
		return nil, err
	}

	c.session.SetIdentity(&out.Profile)
	return &out.Profile, nil
}

// Search matches profiles by username or full name substring.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Profile, error) {
	var out struct {
		Profiles []domain.Profile `json:"profiles"`
	}
	path := "/api/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

// Notifications pulls the current notification list. The server marks the
// returned rows read and clears the unread indicator.
func (c *Client) Notifications(ctx context.Context) ([]domain.NotificationEvent, error) {
	var out struct {
		Notifications []domain.NotificationEvent `json:"notifications"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// HasUnread reports whether the persistent unread indicator is set.
func (c *Client) HasUnread(ctx context.Context) (bool, error) {
	var out struct {
		Unread bool `json:"unread"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/notifications/unread", nil, &out); err != nil {
		return false, err
	}
	return out.Unread, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if token, _ := c.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("unexpected status %d from %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
