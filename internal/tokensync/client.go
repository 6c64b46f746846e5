package tokensync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/pushsync/internal/models"
)

// IDTokenSource returns the signed-in user's current Firebase ID token.
type IDTokenSource func(ctx context.Context) (string, error)

// CallError is a failed callable invocation.
type CallError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("callable error %s (%d): %s", e.Status, e.HTTPStatus, e.Message)
}

// CallableClient invokes the registration callables over HTTP.
// It implements Registrar.
type CallableClient struct {
	baseURL    string
	idToken    IDTokenSource
	httpClient *http.Client
}

// NewCallableClient creates a client for the callables served under baseURL.
// A nil httpClient uses a client with a 30s timeout.
func NewCallableClient(baseURL string, idToken IDTokenSource, httpClient *http.Client) *CallableClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &CallableClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		idToken:    idToken,
		httpClient: httpClient,
	}
}

// ManageToken calls manageFcmToken.
func (c *CallableClient) ManageToken(ctx context.Context, token, action string) error {
	var resp models.ManageTokenResponse
	return c.call(ctx, "manageFcmToken", models.ManageTokenRequest{Token: token, Action: models.TokenAction(action)}, &resp)
}

// SendTest calls sendTestNotification.
func (c *CallableClient) SendTest(ctx context.Context, currentToken string) (*models.SendTestNotificationResponse, error) {
	var resp models.SendTestNotificationResponse
	if err := c.call(ctx, "sendTestNotification", models.SendTestNotificationRequest{CurrentToken: currentToken}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUserDetails calls getUserDetails.
func (c *CallableClient) GetUserDetails(ctx context.Context) (*models.Profile, error) {
	var resp models.Profile
	if err := c.call(ctx, "getUserDetails", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type callableEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *CallableClient) call(ctx context.Context, name string, data, out interface{}) error {
	body, err := json.Marshal(map[string]interface{}{"data": data})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.idToken != nil {
		idToken, err := c.idToken(ctx)
		if err != nil {
			return fmt.Errorf("getting ID token: %w", err)
		}
		if idToken != "" {
			req.Header.Set("Authorization", "Bearer "+idToken)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", name, err)
	}

	var envelope callableEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &CallError{HTTPStatus: resp.StatusCode, Status: "INTERNAL", Message: "malformed response"}
	}
	if envelope.Error != nil {
		return &CallError{HTTPStatus: resp.StatusCode, Status: envelope.Error.Status, Message: envelope.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return &CallError{HTTPStatus: resp.StatusCode, Status: "INTERNAL", Message: http.StatusText(resp.StatusCode)}
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", name, err)
	}
	return nil
}
