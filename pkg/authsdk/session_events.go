package authsdk

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrStreamClosed is returned by WatchSession when the server closed the
// event stream without a termination.
var ErrStreamClosed = errors.New("authsdk: session event stream closed")

// WatchSession listens on GET /v1/sessions/events until this session is
// terminated, ctx is done, or the stream fails.
//
// On a termination the session is ended locally first, then onTerminated is
// called with the event, and WatchSession returns nil. The event is a hint
// only: the server has already revoked the token by the time it is sent.
func (s *Session) WatchSession(ctx context.Context, onTerminated func(SessionEvent)) error {
	token, err := s.getValidToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.url("/v1/sessions/events"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", userAgent)

	httpClient := s.client.StreamClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open event stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if err := parseErrorResponse(resp, body); err != nil {
			return err
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return readEvents(resp.Body, func(name, data string) bool {
		if name != SessionEventTerminated {
			return false
		}
		var ev SessionEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return false
		}
		s.End()
		if onTerminated != nil {
			onTerminated(ev)
		}
		return true
	})
}

// readEvents parses a text/event-stream and calls fn for every dispatched
// event until fn returns true.
func readEvents(r io.Reader, fn func(name, data string) bool) error {
	sc := bufio.NewScanner(r)

	var name string
	var data []string
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				if name == "" {
					name = "message"
				}
				if fn(name, strings.Join(data, "\n")) {
					return nil
				}
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
			// heartbeat
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return ErrStreamClosed
}
