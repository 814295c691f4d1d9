package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arklim/social-platform-feed/internal/core/domain"
)

const (
	accessTokenCookie  = "sb-access-token"
	refreshTokenCookie = "sb-refresh-token"

	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// CredentialStore is the durable local store backing the token hand-off. The
// cookie jar covers transport; this copy backs the explicit bearer header.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryCredentialStore keeps the token in process memory only.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryCredentialStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryCredentialStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryCredentialStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

type fileCredentials struct {
	AccessToken string `json:"access_token"`
}

// FileCredentialStore persists the token as a JSON file with owner-only
// permissions, surviving process restarts the way browser localStorage does.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

// NewFileCredentialStore constructs a store rooted at the given file path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (f *FileCredentialStore) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read credential file: %w", err)
	}

	var creds fileCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("decode credential file: %w", err)
	}

	return creds.AccessToken, nil
}

func (f *FileCredentialStore) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(fileCredentials{AccessToken: token})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}

	return nil
}

func (f *FileCredentialStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

// TokenStore owns access/refresh token persistence across the cookie jar and
// the durable store, and resolves the single authoritative access token.
type TokenStore struct {
	mu      sync.Mutex
	jar     http.CookieJar
	baseURL *url.URL
	store   CredentialStore
	handoff string
}

// NewTokenStore constructs the store. The jar is shared with the HTTP client
// so cookie writes here ride along on subsequent requests.
func NewTokenStore(jar http.CookieJar, baseURL *url.URL, store CredentialStore) *TokenStore {
	if store == nil {
		store = &MemoryCredentialStore{}
	}
	return &TokenStore{jar: jar, baseURL: baseURL, store: store}
}

// ConsumeHandoff inspects the URL fragment for a one-time token hand-off. When
// both tokens are present it persists them and returns the URL with the
// fragment stripped. All writes complete before this returns, so an identity
// check issued afterwards never reads a partially-written credential set.
func (t *TokenStore) ConsumeHandoff(rawURL string) (cleanURL string, consumed bool, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, false, fmt.Errorf("parse url: %w", err)
	}

	if parsed.Fragment == "" {
		return rawURL, false, nil
	}

	fragment, err := url.ParseQuery(parsed.Fragment)
	if err != nil {
		return rawURL, false, nil
	}

	access := fragment.Get("access_token")
	refresh := fragment.Get("refresh_token")
	if access == "" || refresh == "" {
		return rawURL, false, nil
	}

	if err := t.SetTokens(access, refresh); err != nil {
		return rawURL, false, err
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String(), true, nil
}

// SetTokens writes the token pair to the cookie jar and mirrors the access
// token into the durable store. The hand-off copy becomes authoritative.
func (t *TokenStore) SetTokens(access, refresh string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.jar != nil && t.baseURL != nil {
		now := time.Now()
		t.jar.SetCookies(t.baseURL, []*http.Cookie{
			{
				Name:     accessTokenCookie,
				Value:    access,
				Path:     "/",
				Expires:  now.Add(accessTokenTTL),
				SameSite: http.SameSiteLaxMode,
			},
			{
				Name:     refreshTokenCookie,
				Value:    refresh,
				Path:     "/",
				Expires:  now.Add(refreshTokenTTL),
				SameSite: http.SameSiteLaxMode,
			},
		})
	}

	if err := t.store.Save(access); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}

	t.handoff = access
	return nil
}

// AccessToken resolves the current access token. The just-received hand-off
// copy wins over the durable store so a token mid-write is never used.
func (t *TokenStore) AccessToken() (string, domain.TokenSource) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handoff != "" {
		return t.handoff, domain.TokenSourceHash
	}

	if token, err := t.store.Load(); err == nil && token != "" {
		return token, domain.TokenSourceLocalStore
	}

	return "", domain.TokenSourceNone
}

// Clear removes the durable copy and forgets the hand-off token. Cookie
// removal is the server's responsibility on logout or credential rejection.
func (t *TokenStore) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handoff = ""
	if err := t.store.Clear(); err != nil {
		return fmt.Errorf("clear credential store: %w", err)
	}
	return nil
}
