// Package api talks to the scene backend: the persona catalog, suggestion
// words, streamed chat turns, image generation and the image proxy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wethinkt/go-yesand/internal/session"
	"github.com/wethinkt/go-yesand/internal/sse"
	"github.com/wethinkt/go-yesand/internal/tuilog"
)

const (
	lookupTimeout   = 15 * time.Second
	generateTimeout = 3 * time.Minute
	imageTimeout    = time.Minute
	maxImageBytes   = 32 << 20
	maxErrorBody    = 1024
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Detail)
}

// Generation is the result of an image generation request.
type Generation struct {
	ImageURL   string `json:"image_url"`
	PromptUsed string `json:"prompt_used"`
}

// Client is a scene backend client. The zero value is not usable; call New.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the backend at base, e.g. http://localhost:8000.
// The default HTTP client has no overall timeout, since chat streams stay
// open for as long as the reply takes; the other calls bound themselves.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base returns the backend base URL.
func (c *Client) Base() string { return c.base }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	PersonaID string        `json:"persona_id"`
	Messages  []chatMessage `json:"messages"`
}

func newChatRequest(personaID string, msgs []session.Message) chatRequest {
	req := chatRequest{PersonaID: personaID, Messages: make([]chatMessage, 0, len(msgs))}
	for _, m := range msgs {
		if m.Role != session.RoleHuman && m.Role != session.RoleAI {
			continue
		}
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	return req
}

// Personas fetches the persona catalog.
func (c *Client) Personas(ctx context.Context) ([]session.Persona, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var out struct {
		Personas []session.Persona `json:"personas"`
	}
	if err := c.getJSON(ctx, "load personas", "/personas", &out); err != nil {
		return nil, err
	}
	return out.Personas, nil
}

// Suggestion fetches one audience suggestion word.
func (c *Client) Suggestion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var out struct {
		Word string `json:"word"`
	}
	if err := c.getJSON(ctx, "fetch suggestion", "/suggest", &out); err != nil {
		return "", err
	}
	return out.Word, nil
}

// StreamChat posts the conversation and returns the decoded reply stream.
// Only human and ai messages are sent. The returned channel ends with one
// terminal event; cancelling ctx closes it early without one.
func (c *Client) StreamChat(ctx context.Context, personaID string, msgs []session.Message) (<-chan sse.Event, error) {
	body, err := json.Marshal(newChatRequest(personaID, msgs))
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat stream: %w", err)
	}
	if err := checkStatus("chat stream", resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	tuilog.Log.Debug("chat stream opened", "persona", personaID, "messages", len(msgs))
	return sse.Stream(ctx, resp.Body), nil
}

// Generate asks the backend to turn the conversation into an image.
func (c *Client) Generate(ctx context.Context, personaID string, msgs []session.Message) (Generation, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()
	defer tuilog.Log.Timed("generate image")()

	var out Generation
	if err := c.postJSON(ctx, "generate image", "/generate", newChatRequest(personaID, msgs), &out); err != nil {
		return Generation{}, err
	}
	if out.ImageURL == "" {
		return Generation{}, fmt.Errorf("generate image: response has no image_url")
	}
	return out, nil
}

// ProxyDownloadURL returns the backend URL that serves imageURL as a
// download.
func (c *Client) ProxyDownloadURL(imageURL string) string {
	return c.base + "/proxy-image?url=" + url.QueryEscape(imageURL)
}

// FetchImage downloads rawURL and returns its bytes and content type.
func (c *Client) FetchImage(ctx context.Context, rawURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create image request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus("fetch image", resp); err != nil {
		return nil, "", err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("fetch image: larger than %d bytes", maxImageBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doJSON(op, req, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(op, req, out)
}

func (c *Client) doJSON(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(op, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// checkStatus turns a non-2xx response into a StatusError, picking up the
// {"detail": ...} body the backend sends with its errors.
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	serr := &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(raw))}
	var body struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Detail != "" {
		serr.Detail = body.Detail
	}
	return serr
}
