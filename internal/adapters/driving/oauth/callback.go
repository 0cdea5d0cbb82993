// Package oauth provides the loopback callback server and browser
// utilities used by the interactive authorisation flow.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// callbackResult carries the outcome of one redirect, either an
// authorisation code or a terminal error.
type callbackResult struct {
	code string
	err  error
}

// CallbackServer receives the OAuth redirect on a loopback listener.
// Google allows http://localhost redirects for desktop clients, so the
// flow needs no registered public URL.
type CallbackServer struct {
	expectedState string

	mu       sync.Mutex
	port     int
	server   *http.Server
	listener net.Listener

	once    sync.Once
	results chan callbackResult
}

// NewCallbackServer creates a callback server bound to port. Port 0
// picks a free one. expectedState must match the state parameter sent
// in the authorisation URL.
func NewCallbackServer(port int, expectedState string) *CallbackServer {
	return &CallbackServer{
		port:          port,
		expectedState: expectedState,
		results:       make(chan callbackResult, 1),
	}
}

// Start begins listening. The actual port is available via Port once
// Start returns.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.deliver(callbackResult{err: err})
		}
	}()

	return nil
}

// deliver hands the first result to WaitForCode; later redirects are
// answered with a page but otherwise ignored.
func (s *CallbackServer) deliver(res callbackResult) {
	s.once.Do(func() { s.results <- res })
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errName := q.Get("error"); errName != "" {
		desc := q.Get("error_description")
		s.deliver(callbackResult{err: fmt.Errorf("oauth error: %s - %s", errName, desc)})
		writeResultPage(w, "Authorisation failed", html.EscapeString(desc))
		return
	}

	if state := q.Get("state"); state != s.expectedState {
		s.deliver(callbackResult{err: fmt.Errorf("state mismatch: expected %s, got %s", s.expectedState, state)})
		writeResultPage(w, "Authorisation failed", "Invalid state parameter.")
		return
	}

	code := q.Get("code")
	if code == "" {
		s.deliver(callbackResult{err: fmt.Errorf("no authorisation code received")})
		writeResultPage(w, "Authorisation failed", "No code received.")
		return
	}

	s.deliver(callbackResult{code: code})
	writeResultPage(w, "Authorisation successful",
		"You can close this window and return to the terminal.")
}

// WaitForCode blocks until the redirect arrives or timeout passes.
func (s *CallbackServer) WaitForCode(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-s.results:
		return res.code, res.err
	case <-timer.C:
		return "", fmt.Errorf("timeout waiting for authorisation callback")
	}
}

// Stop shuts the server down, letting an in-flight response finish.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Port returns the bound port.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI is the redirect registered with the provider for this
// run.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", s.Port())
}

func writeResultPage(w http.ResponseWriter, title, message string) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
  <title>mailrag</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      display: flex; justify-content: center; align-items: center;
      height: 100vh; margin: 0; background: #F4F4F5;
    }
    main {
      text-align: center; background: #FFFFFF;
      padding: 48px 64px; border-radius: 12px; border: 1px solid #D4D4D8;
    }
    h1 { color: #27272A; margin: 0 0 8px 0; font-size: 22px; }
    p { color: #71717A; margin: 0; font-size: 15px; }
  </style>
</head>
<body>
  <main>
    <h1>%s</h1>
    <p>%s</p>
  </main>
</body>
</html>`, title, message)
}

// OpenBrowser launches the platform's default browser at url.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// GenerateState produces a random state parameter for CSRF protection.
func GenerateState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
