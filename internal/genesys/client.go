// internal/genesys/client.go
package genesys

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

// Client talks to the Genesys Cloud login and API hosts. Token acquisition
// is retried; the paginated conversation scan is not (a page failure aborts
// the whole interval and the next scheduled run retries from page 1).
type Client struct {
	HTTPClient   *http.Client
	ClientID     string
	ClientSecret string
	Region       string

	RetryAttempts int
	RetryDelay    time.Duration

	// LoginBase/APIBase override the region-derived hosts (tests).
	LoginBase string
	APIBase   string
}

func NewClient(clientID, clientSecret, region string, retryAttempts int, retryDelay time.Duration) *Client {
	return &Client{
		HTTPClient:    &http.Client{Timeout: 60 * time.Second},
		ClientID:      clientID,
		ClientSecret:  clientSecret,
		Region:        region,
		RetryAttempts: retryAttempts,
		RetryDelay:    retryDelay,
	}
}

func (c *Client) loginBase() string {
	if c.LoginBase != "" {
		return c.LoginBase
	}
	return fmt.Sprintf("https://login.%s", c.Region)
}

func (c *Client) apiBase() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	return fmt.Sprintf("https://api.%s", c.Region)
}

// AccessToken performs the client-credentials grant.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	token, err := retry.Do(ctx, c.RetryAttempts, c.RetryDelay, func() (string, error) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loginBase()+"/oauth/token", strings.NewReader(form.Encode()))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(c.ClientID, c.ClientSecret)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
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
		return "", &apperrors.TokenRetrievalError{Source: "genesys", Err: err}
	}
	log.Println("✅ Genesys token retrieved successfully")
	return token, nil
}

type conversationQuery struct {
	Interval string            `json:"interval"`
	Order    string            `json:"order"`
	Paging   conversationPaging `json:"paging"`
}

type conversationPaging struct {
	PageSize   int `json:"pageSize"`
	PageNumber int `json:"pageNumber"`
}

type conversationQueryResponse struct {
	TotalHits     int            `json:"totalHits"`
	Conversations []Conversation `json:"conversations"`
}

// ConversationPages walks the paginated conversation-details query for the
// given interval and hands each page to fn in order. It stops on an empty
// page or once pageNumber*pageSize reaches the totalHits reported by the
// first page. Any transport or fn error aborts the scan.
func (c *Client) ConversationPages(ctx context.Context, token, interval string, pageSize int, fn func(page []Conversation) error) error {
	endpoint := c.apiBase() + "/api/v2/analytics/conversations/details/query"
	pageNumber := 1
	totalHits := 0

	for {
		body, err := json.Marshal(conversationQuery{
			Interval: interval,
			Order:    "asc",
			Paging:   conversationPaging{PageSize: pageSize, PageNumber: pageNumber},
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("page %d: %w", pageNumber, err)
		}

		var parsed conversationQueryResponse
		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("page %d: conversation query returned %d: %s", pageNumber, resp.StatusCode, raw)
		}
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("page %d: %w", pageNumber, err)
		}

		if pageNumber == 1 {
			totalHits = parsed.TotalHits
			log.Printf("✅ Total conversations found: %d", totalHits)
		}

		if len(parsed.Conversations) == 0 {
			log.Println("No more conversations to retrieve.")
			return nil
		}

		if err := fn(parsed.Conversations); err != nil {
			return fmt.Errorf("page %d: %w", pageNumber, err)
		}
		log.Printf("✅ Processed page %d with %d conversations.", pageNumber, len(parsed.Conversations))

		if pageNumber*pageSize >= totalHits {
			log.Println("✅ All conversations have been retrieved.")
			return nil
		}
		pageNumber++
	}
}

// WrapupCodes fetches the wrap-up code catalog.
func (c *Client) WrapupCodes(ctx context.Context, token string) ([]WrapupEntity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase()+"/api/v2/routing/wrapupcodes?pageSize=100", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("wrapup codes endpoint returned %d: %s", resp.StatusCode, raw)
	}

	var parsed struct {
		Entities []WrapupEntity `json:"entities"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Entities, nil
}

type userSearchQuery struct {
	PageSize           int                   `json:"pageSize"`
	PageNumber         int                   `json:"pageNumber"`
	Query              []userSearchCriterion `json:"query"`
	SortOrder          string                `json:"sortOrder"`
	SortBy             string                `json:"sortBy"`
	EnforcePermissions bool                  `json:"enforcePermissions"`
	Expand             []string              `json:"expand"`
}

type userSearchCriterion struct {
	Type   string   `json:"type"`
	Fields []string `json:"fields"`
	Values []string `json:"values"`
}

// SearchUsers pages through the user search endpoint and returns every
// active or inactive user.
func (c *Client) SearchUsers(ctx context.Context, token string) ([]UserResult, error) {
	endpoint := c.apiBase() + "/api/v2/users/search"
	var users []UserResult
	pageNumber := 1

	for {
		body, err := json.Marshal(userSearchQuery{
			PageSize:   25,
			PageNumber: pageNumber,
			Query: []userSearchCriterion{{
				Type:   "EXACT",
				Fields: []string{"state"},
				Values: []string{"active", "inactive"},
			}},
			SortOrder:          "ASC",
			SortBy:             "name",
			EnforcePermissions: true,
			Expand:             []string{"images", "authorization", "team"},
		})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}

		var parsed struct {
			Results   []UserResult `json:"results"`
			PageCount int          `json:"pageCount"`
		}
		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("user search returned %d: %s", resp.StatusCode, raw)
		}
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		users = append(users, parsed.Results...)

		pageNumber++
		if pageNumber > parsed.PageCount {
			return users, nil
		}
	}
}

// LookupUserEmail resolves an email through the SCIM user endpoint. Used as
// the live fallback when the local user catalog has no row for the agent.
func (c *Client) LookupUserEmail(ctx context.Context, token, userID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase()+"/api/v2/scim/v2/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("scim user lookup returned %d: %s", resp.StatusCode, raw)
	}

	var parsed struct {
		ID          string `json:"id"`
		UserName    string `json:"userName"`
		DisplayName string `json:"displayName"`
		Emails      []struct {
			Value   string `json:"value"`
			Type    string `json:"type"`
			Primary bool   `json:"primary"`
		} `json:"emails"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	for _, e := range parsed.Emails {
		if e.Primary && e.Value != "" {
			return e.Value, nil
		}
	}
	if len(parsed.Emails) > 0 {
		return parsed.Emails[0].Value, nil
	}
	return "", nil
}
