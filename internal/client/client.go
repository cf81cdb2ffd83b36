// internal/client/client.go
//
// HTTP feedback channel for the Flagdle challenge endpoint.
// One POST per guess: the body is wrapped in the flag format and sent as
// {"guess":"flag{...}"}; the response {"result":"<32 glyphs>"} is decoded
// into marks. There are no retries; any transport or format failure aborts
// the run that issued the guess.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ctfkit/flagdle/internal/game"
)

const (
	// DefaultURL is the challenge endpoint the tool was written against.
	DefaultURL = "http://challenge.nahamcon.com:30095/guess"

	// DefaultTimeout bounds each guess round-trip; a request that exceeds
	// it fails the whole run.
	DefaultTimeout = 5 * time.Second
)

// ErrUnexpectedStatus reports a non-200 response from the endpoint.
var ErrUnexpectedStatus = errors.New("unexpected response status")

type guessRequest struct {
	Guess string `json:"guess"`
}

type guessResponse struct {
	Result string `json:"result"`
}

// Client submits wrapped guesses to a Flagdle endpoint.
type Client struct {
	httpClient *http.Client
	url        string
}

// New returns a Client for the given endpoint URL with a per-request
// timeout.
func New(url string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

// Probe wraps body in the flag format, posts it, and decodes the emoji
// feedback into per-position marks.
func (c *Client) Probe(ctx context.Context, body string) ([]game.Mark, error) {
	payload, err := json.Marshal(guessRequest{Guess: game.Wrap(body)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal guess request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create guess request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send guess request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var gr guessResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode guess response: %w", err)
	}
	return game.DecodeFeedback(gr.Result)
}
