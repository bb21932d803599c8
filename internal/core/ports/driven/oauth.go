package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// CallbackListener receives exactly one OAuth redirect on a fixed local port.
type CallbackListener interface {
	// Start binds the listener. Returns domain.ErrPortInUse when the port
	// is held by another process.
	Start() error

	// RedirectURI returns the URI registered with the OAuth provider.
	RedirectURI() string

	// WaitForCode blocks until the callback has been handled, the timeout
	// elapses (domain.ErrCallbackTimeout) or ctx is cancelled.
	WaitForCode(ctx context.Context, timeout time.Duration) (string, error)

	// Stop shuts the listener down. Safe to call more than once.
	Stop() error
}

// CallbackListenerFactory creates a listener bound to one flow's state token.
type CallbackListenerFactory func(port int, expectedState string) CallbackListener

// TokenRequest carries the parameters of an authorization-code exchange.
type TokenRequest struct {
	TokenURL     string
	Code         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	ExtraParams  map[string]string
	NoGrantType  bool
}

// OAuthClient builds authorization URLs and exchanges codes for tokens.
type OAuthClient interface {
	// AuthCodeURL returns the URL the user must visit to authorize.
	AuthCodeURL(desc *domain.OAuthDescriptor, clientID, redirectURI, state string) string

	// Exchange trades a code for the token payload, which is returned
	// uninterpreted. Endpoint errors are *domain.TokenExchangeError;
	// transport errors wrap domain.ErrNetwork.
	Exchange(ctx context.Context, req TokenRequest) (map[string]any, error)
}

// BrowserOpener opens a URL in the user's default browser.
type BrowserOpener interface {
	Open(url string) error
}
