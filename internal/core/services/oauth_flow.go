package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Ensure OAuthFlowController implements the interface.
var _ driving.OAuthFlow = (*OAuthFlowController)(nil)

// FlowState is a step of an authorization flow.
type FlowState string

const (
	FlowIdle             FlowState = "idle"
	FlowAwaitingRedirect FlowState = "awaiting_redirect"
	FlowCodeReceived     FlowState = "code_received"
	FlowDenied           FlowState = "denied"
	FlowTimedOut         FlowState = "timed_out"
	FlowExchanging       FlowState = "exchanging"
	FlowTokensObtained   FlowState = "tokens_obtained"
	FlowExchangeFailed   FlowState = "exchange_failed"
)

// DefaultCallbackPort is the port the redirect URI points at. It must match
// the URI registered with the OAuth provider.
const DefaultCallbackPort = 9876

// DefaultCallbackTimeout bounds the wait for the user to authorize.
const DefaultCallbackTimeout = 5 * time.Minute

// OAuthFlowController runs loopback authorization-code flows. At most one
// flow runs at a time because the callback port is fixed.
type OAuthFlowController struct {
	client  driven.OAuthClient
	listen  driven.CallbackListenerFactory
	browser driven.BrowserOpener
	out     io.Writer

	port    int
	timeout time.Duration

	running sync.Mutex

	mu    sync.Mutex
	state FlowState
}

// NewOAuthFlowController creates a controller. browser may be nil, in which
// case the user must open the printed URL.
func NewOAuthFlowController(
	client driven.OAuthClient,
	listen driven.CallbackListenerFactory,
	browser driven.BrowserOpener,
	out io.Writer,
	port int,
	timeout time.Duration,
) *OAuthFlowController {
	if port == 0 {
		port = DefaultCallbackPort
	}
	if timeout == 0 {
		timeout = DefaultCallbackTimeout
	}
	if out == nil {
		out = io.Discard
	}
	return &OAuthFlowController{
		client:  client,
		listen:  listen,
		browser: browser,
		out:     out,
		port:    port,
		timeout: timeout,
		state:   FlowIdle,
	}
}

// State returns the step reached by the current or last flow.
func (c *OAuthFlowController) State() FlowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run performs one authorization: it opens the consent page, waits for the
// redirect on the callback port and exchanges the code. The listener is
// shut down before the exchange starts.
func (c *OAuthFlowController) Run(
	ctx context.Context,
	desc *domain.OAuthDescriptor,
	clientID, clientSecret string,
) (map[string]any, error) {
	if !desc.Complete() {
		return nil, domain.ErrIncompleteOAuth
	}
	if clientID == "" || clientSecret == "" {
		return nil, domain.ErrMissingClientCredentials
	}
	if !c.running.TryLock() {
		return nil, domain.ErrFlowInProgress
	}
	defer c.running.Unlock()

	c.transition(FlowIdle)

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	listener := c.listen(c.port, state)
	if err := listener.Start(); err != nil {
		return nil, err
	}
	defer func() {
		if err := listener.Stop(); err != nil {
			logger.Warn("stopping callback listener: %v", err)
		}
	}()

	authURL := c.client.AuthCodeURL(desc, clientID, listener.RedirectURI(), state)
	fmt.Fprintln(c.out, "Opening browser for authorization...")
	fmt.Fprintf(c.out, "If the browser doesn't open, visit:\n%s\n\n", authURL)
	if c.browser != nil {
		if err := c.browser.Open(authURL); err != nil {
			logger.Warn("could not open browser: %v", err)
		}
	}

	c.transition(FlowAwaitingRedirect)
	code, err := listener.WaitForCode(ctx, c.timeout)
	if err != nil {
		if errors.Is(err, domain.ErrCallbackTimeout) {
			c.transition(FlowTimedOut)
		} else {
			c.transition(FlowDenied)
		}
		return nil, err
	}
	c.transition(FlowCodeReceived)

	if err := listener.Stop(); err != nil {
		logger.Warn("stopping callback listener: %v", err)
	}

	c.transition(FlowExchanging)
	tokens, err := c.client.Exchange(ctx, driven.TokenRequest{
		TokenURL:     desc.TokenURL,
		Code:         code,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  listener.RedirectURI(),
		ExtraParams:  desc.ExtraTokenParams,
		NoGrantType:  desc.NoGrantType,
	})
	if err != nil {
		c.transition(FlowExchangeFailed)
		return nil, err
	}
	c.transition(FlowTokensObtained)
	return tokens, nil
}

func (c *OAuthFlowController) transition(s FlowState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	logger.Debug("oauth flow: %s", s)
}
