package client

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// BootstrapState is one step of the startup state machine. Each run is
// terminal: it ends in Authenticated or Guest.
type BootstrapState string

const (
	StateCheckingHandoff   BootstrapState = "checking_handoff"
	StateResolvingIdentity BootstrapState = "resolving_identity"
	StateAuthenticated     BootstrapState = "authenticated"
	StateGuest             BootstrapState = "guest"
)

// BootstrapResult reports where the startup flow ended up.
type BootstrapResult struct {
	State BootstrapState
	// CleanURL is the entry URL with any consumed token fragment stripped.
	CleanURL string
	// Redirect is the path the caller should navigate to, or empty to stay.
	Redirect string
}

// AuthBootstrapper reconciles token hand-off and resolves the session identity
// once at startup. Safe to re-run on every load: it assumes nothing beyond
// what the token store reports.
type AuthBootstrapper struct {
	client *Client
	logger *zap.Logger
}

// NewAuthBootstrapper constructs the bootstrapper for the given client.
func NewAuthBootstrapper(c *Client, logger *zap.Logger) *AuthBootstrapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthBootstrapper{client: c, logger: logger}
}

// authPathPrefix is the login view; a valid session there is redirected away.
const authPathPrefix = "/auth"

// handoffExemptPaths stay put even with a valid session: the user is mid-flow.
var handoffExemptPaths = []string{"/reset-password", "/verify-email", "/onboarding"}

// guestVisiblePaths never bounce guests to login.
var guestVisiblePaths = []string{"/auth", "/onboarding", "/reset-password", "/verify-email", "/profile"}

// Run executes the startup flow for the given entry URL. The token hand-off,
// when present, is fully persisted before the identity check is issued.
func (b *AuthBootstrapper) Run(ctx context.Context, rawURL string) (BootstrapResult, error) {
	result := BootstrapResult{State: StateCheckingHandoff, CleanURL: rawURL}

	cleaned, consumed, err := b.client.Tokens().ConsumeHandoff(rawURL)
	if err != nil {
		b.logger.Warn("token hand-off failed", zap.Error(err))
	} else {
		result.CleanURL = cleaned
	}
	if consumed {
		b.logger.Debug("token hand-off consumed")
	}

	entry, parseErr := url.Parse(result.CleanURL)
	if parseErr != nil {
		entry = &url.URL{Path: "/"}
	}

	result.State = StateResolvingIdentity

	profile, err := b.client.Me(ctx)
	switch {
	case err == nil:
		b.client.Session().SetIdentity(profile)
		result.State = StateAuthenticated
		result.Redirect = authenticatedRedirect(entry)
		return result, nil

	case errors.Is(err, ErrUnauthorized):
		b.client.Session().Clear()
		result.State = StateGuest
		result.Redirect = guestRedirect(entry)
		return result, nil

	default:
		// Network failure degrades to guest mode rather than blocking startup.
		b.logger.Warn("identity check failed", zap.Error(err))
		b.client.Session().Clear()
		result.State = StateGuest
		result.Redirect = guestRedirect(entry)
		return result, err
	}
}

// pathWithin reports whether path equals root or sits below it on a path
// segment boundary, so "/profile" matches "/profile/alice" but not
// "/profilesomething".
func pathWithin(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}

// authenticatedRedirect bounces a signed-in user off the login view, honoring
// the post-login return target carried in the redirect query parameter.
func authenticatedRedirect(entry *url.URL) string {
	if !pathWithin(entry.Path, authPathPrefix) {
		return ""
	}

	for _, exempt := range handoffExemptPaths {
		if pathWithin(entry.Path, exempt) || pathWithin(entry.Path, authPathPrefix+exempt) {
			return ""
		}
	}

	target := entry.Query().Get("redirect")
	if target == "" || !strings.HasPrefix(target, "/") {
		return "/"
	}
	return target
}

// guestRedirect bounces a guest off private views toward login, preserving the
// original path and query for post-login return.
func guestRedirect(entry *url.URL) string {
	for _, visible := range guestVisiblePaths {
		if pathWithin(entry.Path, visible) {
			return ""
		}
	}

	original := entry.Path
	if entry.RawQuery != "" {
		original += "?" + entry.RawQuery
	}

	return authPathPrefix + "/?redirect=" + url.QueryEscape(original)
}
