package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Ensure CallbackServer implements the interface.
var _ driven.CallbackListener = (*CallbackServer)(nil)

// CallbackPath is the path of the redirect URI.
const CallbackPath = "/callback"

// callbackResult is what the single handled callback produced.
type callbackResult struct {
	code string
	err  error
}

// CallbackServer handles one OAuth redirect callback.
// It starts a local HTTP server on a fixed port to receive the authorization code.
type CallbackServer struct {
	mu            sync.Mutex
	port          int
	expectedState string
	handled       bool
	stopped       bool
	done          chan callbackResult
	errChan       chan error
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a new OAuth callback server.
// The expectedState is used to validate the callback matches the request.
func NewCallbackServer(port int, expectedState string) *CallbackServer {
	return &CallbackServer{
		port:          port,
		expectedState: expectedState,
		done:          make(chan callbackResult, 1),
		errChan:       make(chan error, 1),
	}
}

// NewCallbackListener adapts NewCallbackServer to driven.CallbackListenerFactory.
func NewCallbackListener(port int, expectedState string) driven.CallbackListener {
	return NewCallbackServer(port, expectedState)
}

// Start starts the callback server on the configured port.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("%w: port %d is already in use, close the application using it and try again",
				domain.ErrPortInUse, s.port)
		}
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	logger.Debug("oauth callback listening on %s", addr)
	return nil
}

// handleCallback processes the OAuth callback request. Only the first
// request is honoured.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.handled {
		s.mu.Unlock()
		writePage(w, http.StatusConflict, "Authorization already handled", "You can close this window.")
		return
	}
	s.handled = true
	s.mu.Unlock()

	query := r.URL.Query()
	var result callbackResult

	switch errParam, code, state := query.Get("error"), query.Get("code"), query.Get("state"); {
	case errParam != "":
		desc := query.Get("error_description")
		if desc == "" {
			desc = errParam
		}
		result.err = fmt.Errorf("%w: %s", domain.ErrAuthorizationDenied, desc)
		writePage(w, http.StatusOK, "Authorization failed", desc)
	case code != "" && state != "" && state != s.expectedState:
		result.err = domain.ErrStateMismatch
		writePage(w, http.StatusBadRequest, "Authorization failed", "Invalid state parameter.")
	case code != "":
		result.code = code
		writePage(w, http.StatusOK, "Authorization successful!", "You can close this window and return to the terminal.")
	default:
		result.err = domain.ErrNoCode
		writePage(w, http.StatusBadRequest, "Authorization failed", "No authorization code received.")
	}

	s.done <- result
}

// WaitForCode blocks until the callback has been handled, the timeout
// elapses or ctx is cancelled. The server is stopped once a callback
// arrives.
func (s *CallbackServer) WaitForCode(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-s.done:
		if err := s.Stop(); err != nil {
			logger.Warn("stopping callback server: %v", err)
		}
		return result.code, result.err
	case err := <-s.errChan:
		return "", fmt.Errorf("callback server: %w", err)
	case <-timer.C:
		return "", domain.ErrCallbackTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop shuts down the callback server. Safe to call more than once.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil || s.stopped {
		return nil
	}
	s.stopped = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	return s.port
}

// RedirectURI returns the redirect URI for this callback server.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", s.port, CallbackPath)
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, resultHTML(html.EscapeString(title), html.EscapeString(message)))
}

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Agent Skills - Authorization</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #FAFAFA;
        }
        .container {
            text-align: center;
            background: white;
            padding: 48px 64px;
            border-radius: 16px;
            border: 1px solid #C7C8CC;
        }
        h1 { color: #333F50; margin: 0 0 8px 0; font-size: 24px; }
        p { color: #7B8088; margin: 0; font-size: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, title, message)
}
