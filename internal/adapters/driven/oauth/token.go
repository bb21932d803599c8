// Package oauth provides the loopback callback server, the token exchange
// client and the browser opener used by authorization flows.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.OAuthClient = (*Client)(nil)

// DefaultTokenTimeout bounds a token request.
const DefaultTokenTimeout = 30 * time.Second

// maxTokenResponse caps the token response body.
const maxTokenResponse = 1 << 20

// Client builds authorization URLs and exchanges codes for tokens.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client whose token requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTokenTimeout
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// AuthCodeURL returns the consent URL: response_type=code, client_id,
// redirect_uri, scope (space separated), state and any extra parameters.
func (c *Client) AuthCodeURL(desc *domain.OAuthDescriptor, clientID, redirectURI, state string) string {
	cfg := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURI,
		Scopes:      desc.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  desc.AuthURL,
			TokenURL: desc.TokenURL,
		},
	}

	keys := make([]string, 0, len(desc.ExtraAuthParams))
	for k := range desc.ExtraAuthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	opts := make([]oauth2.AuthCodeOption, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, oauth2.SetAuthURLParam(k, desc.ExtraAuthParams[k]))
	}
	return cfg.AuthCodeURL(state, opts...)
}

// Exchange posts the code to the token endpoint and returns the decoded
// response untouched. grant_type is omitted when NoGrantType is set.
func (c *Client) Exchange(ctx context.Context, req driven.TokenRequest) (map[string]any, error) {
	data := url.Values{}
	if !req.NoGrantType {
		data.Set("grant_type", "authorization_code")
	}
	data.Set("code", req.Code)
	data.Set("client_id", req.ClientID)
	data.Set("client_secret", req.ClientSecret)
	data.Set("redirect_uri", req.RedirectURI)
	for k, v := range req.ExtraParams {
		data.Set(k, v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: token request: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		return nil, fmt.Errorf("%w: reading token response: %v", domain.ErrNetwork, err)
	}

	payload := decodeTokenResponse(body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		exchangeErr := &domain.TokenExchangeError{StatusCode: resp.StatusCode, Body: payload}
		if payload == nil {
			exchangeErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return nil, exchangeErr
	}
	if payload == nil {
		return nil, &domain.TokenExchangeError{
			StatusCode: resp.StatusCode,
			Message:    "token endpoint returned an unreadable response",
		}
	}
	if _, failed := payload["error"]; failed {
		return nil, &domain.TokenExchangeError{StatusCode: resp.StatusCode, Body: payload}
	}

	if tok := Token(payload); tok.AccessToken != "" {
		logger.Debug("received %s token, expiry %v", tok.Type(), tok.Expiry)
	}
	return payload, nil
}

// decodeTokenResponse parses JSON, falling back to the form encoding some
// providers still use. Returns nil when neither applies.
func decodeTokenResponse(body []byte) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		return payload
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil || len(values) == 0 {
		return nil
	}
	if _, ok := values["access_token"]; !ok {
		if _, ok := values["error"]; !ok {
			return nil
		}
	}
	payload = make(map[string]any, len(values))
	for k := range values {
		payload[k] = values.Get(k)
	}
	return payload
}

// Token views a raw payload as an oauth2.Token.
func Token(payload map[string]any) *oauth2.Token {
	tok := &oauth2.Token{}
	tok.AccessToken, _ = payload["access_token"].(string)
	tok.RefreshToken, _ = payload["refresh_token"].(string)
	tok.TokenType, _ = payload["token_type"].(string)

	var seconds int64
	switch v := payload["expires_in"].(type) {
	case float64:
		seconds = int64(v)
	case string:
		seconds, _ = strconv.ParseInt(v, 10, 64)
	}
	if seconds > 0 {
		tok.Expiry = time.Now().Add(time.Duration(seconds) * time.Second)
	}
	return tok.WithExtra(payload)
}
