// internal/partner/client.go
package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unclebandit/genesys-campaign-sync/internal/apperrors"
	"github.com/unclebandit/genesys-campaign-sync/internal/retry"
)

// Payload is the outbound reconciliation batch.
type Payload struct {
	CallAttempts []CallAttempt `json:"call_attempts"`
}

// CallAttempt is one forwarded attempt. Field names (including the mixed
// casing) are fixed by the partner contract.
type CallAttempt struct {
	CallDuration      float64          `json:"call_duration"`
	CallDatetime      string           `json:"call_datetime"`
	OrderID           string           `json:"order_id"`
	AgentID           string           `json:"agent_id"`
	Callable          bool             `json:"Callable"`
	PhoneNumber       string           `json:"PhoneNumber"`
	WrapUpReason      string           `json:"wrap_up_reason"`
	CallbackRequested bool             `json:"callback_requested,omitempty"`
	CallbackDetails   *CallbackDetails `json:"callback_details,omitempty"`
}

type CallbackDetails struct {
	CallbackTime    string `json:"callback_time"`
	CallbackAgentID string `json:"callback_agent_id"`
}

// Client authenticates against the partner's identity provider (a separate
// flow from the conversation source) and delivers reconciliation batches.
type Client struct {
	HTTPClient *http.Client
	TokenURL   string
	ClientID   string
	Username   string
	Password   string
	GrantType  string
	APIURL     string

	RetryAttempts int
	RetryDelay    time.Duration
}

func NewClient(tokenURL, clientID, username, password, grantType, apiURL string, retryAttempts int, retryDelay time.Duration) *Client {
	return &Client{
		HTTPClient:    &http.Client{Timeout: 60 * time.Second},
		TokenURL:      tokenURL,
		ClientID:      clientID,
		Username:      username,
		Password:      password,
		GrantType:     grantType,
		APIURL:        apiURL,
		RetryAttempts: retryAttempts,
		RetryDelay:    retryDelay,
	}
}

// AccessToken performs the password grant against the partner IdP.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	token, err := retry.Do(ctx, c.RetryAttempts, c.RetryDelay, func() (string, error) {
		form := url.Values{}
		form.Set("grant_type", c.GrantType)
		form.Set("client_id", c.ClientID)
		form.Set("username", c.Username)
		form.Set("password", c.Password)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return "", fmt.Errorf("partner token endpoint returned %d: %s", resp.StatusCode, body)
		}

		var parsed struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return "", err
		}
		if parsed.AccessToken == "" {
			return "", fmt.Errorf("access token not found in response")
		}
		return parsed.AccessToken, nil
	})
	if err != nil {
		return "", &apperrors.TokenRetrievalError{Source: "partner", Err: err}
	}
	return token, nil
}

// SendAttempts delivers one batch, retried with a fixed delay. The whole
// batch either lands or fails; there is no partial-success bookkeeping.
func (c *Client) SendAttempts(ctx context.Context, token string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = retry.Do(ctx, c.RetryAttempts, c.RetryDelay, func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			raw, _ := io.ReadAll(resp.Body)
			return struct{}{}, fmt.Errorf("partner API returned %d: %s", resp.StatusCode, raw)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Successfully sent %d attempts to partner.", len(payload.CallAttempts))
	return nil
}
