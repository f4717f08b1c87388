package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amx/internal/shared"
)

// DefaultHandshakeTimeout bounds how long Capture waits for the provider to
// redirect back. Without a bound a never-arriving callback would hang the
// process with no way out short of a kill.
const DefaultHandshakeTimeout = 3 * time.Minute

const shutdownGrace = 5 * time.Second

// Handshake runs the ephemeral local listener that recovers a one-time
// authorization code from a browser redirect.
type Handshake struct {
	Addr    string        // listen address, e.g. "127.0.0.1:8888"
	Timeout time.Duration // zero means DefaultHandshakeTimeout
	Logger  *log.Logger
}

// Capture blocks until the provider redirects to /callback with a code
// matching the expected state, then shuts the listener down gracefully and
// returns the code.
//
// The in-flight response to the browser completes during shutdown; whether
// any further connection is accepted afterwards is timing-dependent and
// irrelevant, since only one legitimate callback ever arrives.
func (h *Handshake) Capture(ctx context.Context, state string) (string, error) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	logger := h.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	handler := NewCallbackHandler(state)

	router := NewBasicRouter()
	router.Use(RequestLogging(logger))
	router.Handler(handler)

	srv := &http.Server{Addr: h.Addr, Handler: router}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var code string
	var err error

	select {
	case result := <-handler.Result():
		code, err = result.Code, result.Error()
	case listenErr := <-serveErr:
		return "", fmt.Errorf("callback listener failed: %w", listenErr)
	case <-time.After(timeout):
		err = fmt.Errorf("%w: no authorization callback within %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		err = ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("callback listener shutdown failed", "err", shutdownErr)
	}

	if err != nil {
		return "", err
	}

	return code, nil
}
