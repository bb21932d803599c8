package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error surfaced to a caller wraps exactly one of these.
var (
	// ErrNotFound indicates an unknown skill, provider or field.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a policy or uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrPrecondition indicates the operation cannot run in the current state.
	ErrPrecondition = errors.New("precondition failed")

	// ErrExternalProcess indicates a test or dependency command exited non-zero.
	ErrExternalProcess = errors.New("external process failed")

	// ErrNetwork indicates a transport failure talking to a remote endpoint.
	ErrNetwork = errors.New("network failure")

	// ErrProtocol indicates the OAuth exchange was refused, forged or abandoned.
	ErrProtocol = errors.New("protocol failure")
)

// Lookup errors.
var (
	ErrSkillNotFound    = fmt.Errorf("skill %w", ErrNotFound)
	ErrProviderNotFound = fmt.Errorf("provider %w", ErrNotFound)
	ErrFieldNotFound    = fmt.Errorf("field %w", ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("item %w", ErrNotFound)
)

// Provider registry policy errors.
var (
	// ErrBuiltinProvider is returned when removing a built-in provider.
	ErrBuiltinProvider = fmt.Errorf("%w: built-in providers cannot be removed", ErrConflict)

	// ErrProviderExists is returned when a custom provider id collides with a known one.
	ErrProviderExists = fmt.Errorf("%w: provider already exists", ErrConflict)

	// ErrFlowInProgress is returned when an OAuth flow is already waiting for a callback.
	ErrFlowInProgress = fmt.Errorf("%w: an authorization flow is already in progress", ErrConflict)
)

// Precondition errors.
var (
	ErrNoProviders              = fmt.Errorf("%w: no providers configured", ErrPrecondition)
	ErrProviderDisabled         = fmt.Errorf("%w: provider is disabled", ErrPrecondition)
	ErrNoOAuth                  = fmt.Errorf("%w: skill does not support OAuth", ErrPrecondition)
	ErrIncompleteOAuth          = fmt.Errorf("%w: missing auth_url or token_url in OAuth config", ErrPrecondition)
	ErrMissingClientCredentials = fmt.Errorf("%w: client_id and client_secret required", ErrPrecondition)
	ErrInvalidSkill             = fmt.Errorf("%w: invalid skill declaration", ErrPrecondition)
	ErrInvalidInput             = fmt.Errorf("%w: invalid input", ErrPrecondition)
	ErrPortInUse                = fmt.Errorf("%w: OAuth callback port is in use", ErrPrecondition)
)

// OAuth protocol errors.
var (
	ErrStateMismatch       = fmt.Errorf("%w: state mismatch - possible CSRF attack", ErrProtocol)
	ErrAuthorizationDenied = fmt.Errorf("%w: authorization failed", ErrProtocol)
	ErrNoCode              = fmt.Errorf("%w: no authorization code received", ErrProtocol)
	ErrCallbackTimeout     = fmt.Errorf("%w: timed out waiting for authorization callback", ErrProtocol)
)

// TokenExchangeError is returned when the token endpoint answers with an error.
// Body holds the decoded JSON response when the endpoint sent one.
type TokenExchangeError struct {
	StatusCode int
	Body       map[string]any
	Message    string
}

func (e *TokenExchangeError) Error() string {
	if e.Body != nil {
		if msg, ok := e.Body["error"].(string); ok && msg != "" {
			if desc, ok := e.Body["error_description"].(string); ok && desc != "" {
				return fmt.Sprintf("token exchange failed: %s - %s", msg, desc)
			}
			return "token exchange failed: " + msg
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("token exchange failed with status %d", e.StatusCode)
}

// Unwrap classifies exchange failures as protocol failures.
func (e *TokenExchangeError) Unwrap() error {
	return ErrProtocol
}
