package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

// MessagesPath is the HTTP route that carries channel messages.
const MessagesPath = "/v1/messages"

// HTTPSender carries messages to a remote service over HTTP.
//
// The server answers 200 with an EnhancementResult body, or 204 when the
// handler closed the reply channel without a value.
type HTTPSender struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSender creates an HTTPSender for the server at baseURL.
// A nil client means http.DefaultClient.
func NewHTTPSender(baseURL string, client *http.Client) *HTTPSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSender{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: client,
	}
}

// Send implements Sender. The round trip runs in the background and is
// aborted when ctx is cancelled.
func (s *HTTPSender) Send(ctx context.Context, msg Message) (<-chan Reply, error) {
	if s == nil || s.baseURL == "" {
		return nil, ErrUnavailable
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+MessagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if msg.ID != "" {
		req.Header.Set("X-Request-ID", msg.ID)
	}

	out := make(chan Reply, 1)
	go func() {
		defer close(out)
		out <- s.roundTrip(req)
	}()
	return out, nil
}

func (s *HTTPSender) roundTrip(req *http.Request) Reply {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return Reply{Err: ctxErr}
		}
		if isDialError(err) {
			return Reply{Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
		}
		return Reply{Err: fmt.Errorf("send message: %w", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result domain.EnhancementResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return Reply{Err: fmt.Errorf("decode reply: %w", err)}
		}
		return Reply{Result: result}
	case http.StatusNoContent:
		return Reply{Err: ErrNoResponse}
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Reply{Err: fmt.Errorf("channel: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))}
	}
}

// isDialError reports whether err happened before a connection was made.
func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
