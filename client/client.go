package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/safeher/safeher/server/logger"
)

const DefaultTimeout = 10 * time.Second

var logg = logger.NewLogger()

// User is the client's cached copy of the server-side user record.
type User struct {
	ID         uint   `json:"id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	CreatedAt  string `json:"created_at,omitempty"`
	LastLogin  string `json:"last_login,omitempty"`
	IsVerified bool   `json:"is_verified,omitempty"`
}

// Contact ids are server-issued; the client never assigns them.
type Contact struct {
	ID           uint   `json:"id,omitempty"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	IsPrimary    bool   `json:"is_primary"`
}

type SafetyTip struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DeviceInfo is the device metadata submitted with login/registration.
type DeviceInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	OS   string `json:"os"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LoginParams struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Device   DeviceInfo `json:"device"`
}

type RegisterParams struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone"`
	Password string     `json:"password"`
	Device   DeviceInfo `json:"device"`
}

// APIError carries the server-provided message for a failed request,
// so callers can surface it to the user as-is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %v", e.StatusCode)
}

// Client is a thin wrapper around the remote safeher HTTP API.
// The bearer token is injected uniformly on every request via 'tokenFn',
// rather than passed per-call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokenFn    func() string
}

// NewClient returns an API client for the server at baseURL. tokenFn may be
// nil for a client that only calls unauthenticated endpoints.
func NewClient(baseURL string, timeout time.Duration, tokenFn func() string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokenFn:    tokenFn,
	}
}

func (c *Client) Register(ctx context.Context, params RegisterParams) (*AuthResponse, error) {
	authResponse := AuthResponse{}

	err := c.do(ctx, "POST", "/register", params, &authResponse)
	if err != nil {
		return nil, err
	}

	return &authResponse, nil
}

func (c *Client) Login(ctx context.Context, params LoginParams) (*AuthResponse, error) {
	authResponse := AuthResponse{}

	err := c.do(ctx, "POST", "/login", params, &authResponse)
	if err != nil {
		return nil, err
	}

	return &authResponse, nil
}

// ValidateToken reports whether the current bearer token is still accepted by
// the server. Any transport error is treated as 'invalid' - the session layer
// fails closed on uncertainty.
func (c *Client) ValidateToken(ctx context.Context) bool {
	result := struct {
		Valid bool `json:"valid"`
	}{}

	err := c.do(ctx, "GET", "/validate-token", nil, &result)
	if err != nil {
		logg.Infof("token validation failed: %v", err)
		return false
	}

	return result.Valid
}

func (c *Client) ListContacts(ctx context.Context) ([]Contact, error) {
	contacts := []Contact{}

	err := c.do(ctx, "GET", "/contacts", nil, &contacts)
	if err != nil {
		return nil, err
	}

	return contacts, nil
}

func (c *Client) AddContact(ctx context.Context, contact Contact) (*Contact, error) {
	created := Contact{}

	err := c.do(ctx, "POST", "/contacts", contact, &created)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (c *Client) UpdateContact(ctx context.Context, id uint, contact Contact) (*Contact, error) {
	updated := Contact{}

	err := c.do(ctx, "PUT", fmt.Sprintf("/contacts/%v", id), contact, &updated)
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (c *Client) DeleteContact(ctx context.Context, id uint) error {
	return c.do(ctx, "DELETE", fmt.Sprintf("/contacts/%v", id), nil, nil)
}

// TriggerEmergency notifies the server of an emergency at the given
// coordinates & returns the server's acknowledgement message.
func (c *Client) TriggerEmergency(ctx context.Context, latitude, longitude float64) (string, error) {
	payload := map[string]float64{"latitude": latitude, "longitude": longitude}
	ack := struct {
		Message string `json:"message"`
	}{}

	err := c.do(ctx, "POST", "/emergency", payload, &ack)
	if err != nil {
		return "", err
	}

	return ack.Message, nil
}

// SafetyTips degrades to an empty list on any failure - tips are
// nice-to-have content & never worth an error dialog.
func (c *Client) SafetyTips(ctx context.Context) []SafetyTip {
	tips := []SafetyTip{}

	err := c.do(ctx, "GET", "/safety-tips", nil, &tips)
	if err != nil {
		logg.Infof("fetching safety tips failed: %v", err)
		return []SafetyTip{}
	}

	return tips
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)

	if body != nil {
		err := json.NewEncoder(reqBody).Encode(body)
		if err != nil {
			return fmt.Errorf("unable to encode request body: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokenFn != nil {
		if token := c.tokenFn(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return apiErrorFrom(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func apiErrorFrom(resp *http.Response) *APIError {
	payload := struct {
		Error string `json:"error"`
	}{}

	// A missing/unparsable message still yields a usable APIError
	json.NewDecoder(resp.Body).Decode(&payload)

	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}
