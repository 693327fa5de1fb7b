package gims

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"time"
)

// Streaming defaults. The per-read timeout must stay shorter than the
// server's keepalive interval so liveness is checked between events.
const (
	DefaultReadTimeout = 15 * time.Second
	DefaultRetryDelay  = 2 * time.Second
)

// StreamOptions configures StreamEvents.
type StreamOptions struct {
	// ReadTimeout bounds the wait for a single line. When it elapses the
	// connection is dropped and re-established, which keeps the overall
	// deadline enforceable even while data trickles in.
	// Default: 15s.
	ReadTimeout time.Duration

	// RetryDelay is the pause before reconnecting after a stream ended
	// without delivering anything.
	// Default: 2s.
	RetryDelay time.Duration
}

// EventFunc receives one server-sent event payload (the text after the
// "data:" prefix). Returning true stops the stream.
type EventFunc func(data string) (stop bool)

// StreamEvents connects to a server-sent-event stream and delivers each
// event payload to fn as it arrives. The stream reconnects transparently on
// per-read timeout and on stream end for as long as ctx is alive; a 401
// triggers the same refresh-and-retry flow as regular requests. The ctx
// deadline is the overall bound: when it elapses StreamEvents returns
// ctx.Err().
func (c *Client) StreamEvents(ctx context.Context, streamURL string, opts StreamOptions, fn EventFunc) error {
	readTimeout := opts.ReadTimeout
	if readTimeout == 0 {
		readTimeout = DefaultReadTimeout
	}
	retryDelay := opts.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}

	// Streaming needs a client without an overall request timeout.
	streamClient := newHTTPClient(c.verifySSL, 0)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		access := c.accessToken()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+access)
		req.Header.Set("Accept", "text/event-stream")

		resp, err := streamClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !sleepCtx(ctx, retryDelay) {
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			if rerr := c.refreshAccess(ctx, access); rerr != nil {
				return rerr
			}
			continue
		}
		if resp.StatusCode >= 400 {
			_, rerr := handleResponse(resp)
			resp.Body.Close()
			return rerr
		}

		delivered, stopped := c.readStream(ctx, resp, readTimeout, fn)
		resp.Body.Close()
		if stopped {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		// Stream ended or stalled. Reconnect, pausing first if the
		// connection produced nothing.
		if !delivered {
			if !sleepCtx(ctx, retryDelay) {
				return ctx.Err()
			}
		}
	}
}

// readStream consumes one connection until stop, timeout, cancellation, or
// stream end. It reports whether any event was delivered and whether fn
// requested a stop.
func (c *Client) readStream(ctx context.Context, resp *http.Response, readTimeout time.Duration, fn EventFunc) (delivered, stopped bool) {
	lines := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64<<10), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	timer := time.NewTimer(readTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			resp.Body.Close()
			return delivered, false
		case <-timer.C:
			// Per-read timeout: drop the connection so the caller's
			// overall deadline stays enforceable.
			resp.Body.Close()
			return delivered, false
		case line, ok := <-lines:
			if !ok {
				return delivered, false
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(readTimeout)

			payload, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			delivered = true
			if fn(strings.TrimPrefix(payload, " ")) {
				return delivered, true
			}
		}
	}
}

// sleepCtx sleeps for d unless ctx finishes first, reporting whether the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
