package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 15 * time.Second

// Error is a failed call. Status is 0 when no response was received.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s: %v", e.Message, e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err never reached the backend.
func IsTransport(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to the marketplace REST backend. Every response is a JSON
// object and only "success": true counts as success.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest executes a request and returns the body of a successful
// envelope.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	return c.send(ctx, method, endpoint, body, false)
}

// send executes a request. With bareArray set, a top-level JSON array is
// accepted in place of a success envelope.
func (c *Client) send(ctx context.Context, method, endpoint string, body any, bareArray bool) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: "read response", Err: err}
	}

	if bareArray && resp.StatusCode < 300 && gjson.ValidBytes(respBody) && gjson.ParseBytes(respBody).IsArray() {
		return respBody, nil
	}

	if !gjson.ValidBytes(respBody) || gjson.GetBytes(respBody, "success").Type != gjson.True {
		return nil, &Error{Status: resp.StatusCode, Message: failureReason(respBody)}
	}

	return respBody, nil
}

func failureReason(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"message", "error.message", "error"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func decodeField(body []byte, field string, dst any) error {
	v := gjson.GetBytes(body, field)
	if !v.Exists() {
		return fmt.Errorf("response has no %q field", field)
	}
	if err := json.Unmarshal([]byte(v.Raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Conversations returns the raw body of the conversation list. The list
// has been served under several envelope keys, so callers probe it.
func (c *Client) Conversations(ctx context.Context) ([]byte, error) {
	return c.send(ctx, http.MethodGet, "/messages/conversations", nil, true)
}

// Thread returns the messages exchanged with peerID, oldest first.
func (c *Client) Thread(ctx context.Context, peerID string) ([]Message, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/messages/"+url.PathEscape(peerID), nil)
	if err != nil {
		return nil, err
	}

	var messages []Message
	if err := decodeField(body, "messages", &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, receiverID, text string) (*Message, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/messages", map[string]string{
		"receiverId": receiverID,
		"text":       text,
	})
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := decodeField(body, "message", &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage replaces the text of message id. The confirmation may omit
// the message entirely.
func (c *Client) EditMessage(ctx context.Context, id, text string) (*EditedMessage, error) {
	body, err := c.doRequest(ctx, http.MethodPut, "/messages/"+url.PathEscape(id), map[string]string{
		"text": text,
	})
	if err != nil {
		return nil, err
	}

	var edited EditedMessage
	if gjson.GetBytes(body, "message").IsObject() {
		if err := decodeField(body, "message", &edited); err != nil {
			return nil, err
		}
	}
	return &edited, nil
}

func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) DeleteConversation(ctx context.Context, peerID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/messages/conversation/"+url.PathEscape(peerID), nil)
	return err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	return c.count(ctx, "/messages/unread-count")
}

func (c *Client) PendingBookingCount(ctx context.Context) (int, error) {
	return c.count(ctx, "/bookings/pending-count")
}

func (c *Client) count(ctx context.Context, endpoint string) (int, error) {
	body, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	v := gjson.GetBytes(body, "count")
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("response has no numeric count")
	}
	return int(v.Int()), nil
}

func (c *Client) FeaturedProviders(ctx context.Context) ([]Provider, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/providers/featured", nil)
	if err != nil {
		return nil, err
	}

	var providers []Provider
	if err := decodeField(body, "providers", &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// PushURL is the websocket endpoint carrying new-message and new-booking
// events for the signed-in user.
func (c *Client) PushURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SubjectFromToken reads the user id from a bearer token. The signature
// is not checked; the backend does that on every request.
func SubjectFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}
