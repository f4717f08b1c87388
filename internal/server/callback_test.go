package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/amx/internal/shared"
)

func TestCallbackHandler(t *testing.T) {
	t.Run("Captures Code With Valid State", func(t *testing.T) {
		handler := NewCallbackHandler("expected_state")
		req := httptest.NewRequest(http.MethodGet, "/callback?code=auth_code_123&state=expected_state", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Code != "auth_code_123" {
			t.Errorf("expected auth_code_123, got %s", result.Code)
		}
	})

	t.Run("Rejects Mismatched State", func(t *testing.T) {
		handler := NewCallbackHandler("expected_state")
		req := httptest.NewRequest(http.MethodGet, "/callback?code=c&state=forged", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}

		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", result.Error())
		}
	})

	t.Run("Missing Code Is Fatal", func(t *testing.T) {
		handler := NewCallbackHandler("s")
		req := httptest.NewRequest(http.MethodGet, "/callback?state=s", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrMissingCallback) {
			t.Errorf("expected ErrMissingCallback, got %v", result.Error())
		}
	})

	t.Run("Missing State Is Fatal", func(t *testing.T) {
		handler := NewCallbackHandler("s")
		req := httptest.NewRequest(http.MethodGet, "/callback?code=c", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		result := <-handler.Result()
		if !errors.Is(result.Error(), shared.ErrMissingCallback) {
			t.Errorf("expected ErrMissingCallback, got %v", result.Error())
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		handler := NewCallbackHandler("s")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?code=c1&state=s", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?code=c2&state=s", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected second callback rejected with 400, got %d", second.Code)
		}

		result := <-handler.Result()
		if result.Code != "c1" {
			t.Errorf("expected first code kept, got %s", result.Code)
		}
	})
}

// freePort reserves an ephemeral localhost port for a handshake test.
func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestHandshake(t *testing.T) {
	t.Run("Capture Returns Code From Redirect", func(t *testing.T) {
		addr := freePort(t)
		h := &Handshake{Addr: addr, Timeout: 5 * time.Second, Logger: shared.NewLogger(io.Discard)}

		done := make(chan struct{})
		var code string
		var err error

		go func() {
			defer close(done)
			code, err = h.Capture(context.Background(), "nonce")
		}()

		// Poll until the listener is up, then deliver the callback.
		url := fmt.Sprintf("http://%s/callback?code=the_code&state=nonce", addr)
		deadline := time.Now().Add(3 * time.Second)
		for {
			resp, reqErr := http.Get(url)
			if reqErr == nil {
				resp.Body.Close()
				break
			}
			if time.Now().After(deadline) {
				t.Fatalf("listener never came up: %v", reqErr)
			}
			time.Sleep(10 * time.Millisecond)
		}

		<-done
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if code != "the_code" {
			t.Errorf("expected the_code, got %s", code)
		}
	})

	t.Run("Capture Times Out Without Callback", func(t *testing.T) {
		h := &Handshake{Addr: freePort(t), Timeout: 50 * time.Millisecond, Logger: shared.NewLogger(io.Discard)}

		_, err := h.Capture(context.Background(), "nonce")
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Capture Honors Context Cancellation", func(t *testing.T) {
		h := &Handshake{Addr: freePort(t), Timeout: 5 * time.Second, Logger: shared.NewLogger(io.Discard)}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := h.Capture(ctx, "nonce")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
