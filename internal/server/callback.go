package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/amx/internal/shared"
)

// CallbackResult contains the outcome of one authorization callback.
type CallbackResult struct {
	Code string
	err  error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler handles the single OAuth2 redirect request of an
// authorization code flow. Implements the [Handler] interface for
// registration with a [Router].
//
// Exactly one callback is accepted; the code/state pair is handed to the
// waiting caller over a one-shot channel scoped to this handshake.
type CallbackHandler struct {
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a new callback handler expecting the given
// state token. The state token should be cryptographically random.
func NewCallbackHandler(state string) *CallbackHandler {
	return &CallbackHandler{
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates the state parameter and captures the authorization code. Missing
// code or state parameters are fatal for the handshake: there is no valid
// recovery path once the provider redirects without them.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle the callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Send(CallbackResult{err: fmt.Errorf("%w: state", shared.ErrMissingCallback)})
		http.Error(w, "Missing state parameter", http.StatusBadRequest)
		return
	}
	if state != h.state {
		h.Send(CallbackResult{err: shared.ErrInvalidState})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		if errParam != "" {
			h.Send(CallbackResult{err: fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam)})
		} else {
			h.Send(CallbackResult{err: fmt.Errorf("%w: code", shared.ErrMissingCallback)})
		}
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{Code: code})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `
<!DOCTYPE html>
<html>
<head><title>Authorization Successful</title></head>
<body onload="window.close()">
    <p>✓ Authorization successful. You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving handshake completion.
//
// The channel receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
