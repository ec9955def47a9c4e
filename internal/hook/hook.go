package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"edge-status/internal/trace"
)

// StatusHook posts the status line to a webhook whenever it changes.
type StatusHook struct {
	Endpoint string
	client   *http.Client
	timeout  time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	last string
	wg   sync.WaitGroup
}

type payload struct {
	Status string       `json:"status"`
	Record trace.Record `json:"record"`
}

// New returns nil when endpoint is empty; a nil *StatusHook ignores Notify.
func New(endpoint string, timeout time.Duration, logger *slog.Logger) *StatusHook {
	if endpoint == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHook{
		Endpoint: endpoint,
		timeout:  timeout,
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
	}
}

// Notify delivers status asynchronously if it differs from the last one seen.
func (h *StatusHook) Notify(status string, rec trace.Record) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if status == h.last {
		h.mu.Unlock()
		return
	}
	h.last = status
	h.mu.Unlock()

	recCopy := make(trace.Record, len(rec))
	for k, v := range rec {
		recCopy[k] = v
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.send(status, recCopy); err != nil {
			h.logger.Warn("status hook failed", "endpoint", h.Endpoint, "err", err)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (h *StatusHook) Wait() {
	if h == nil {
		return
	}
	h.wg.Wait()
}

func (h *StatusHook) send(status string, rec trace.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	body, err := json.Marshal(payload{Status: status, Record: rec})
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build hook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("send hook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("hook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
