package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orghub-api/internal/domain"
)

const defaultBaseURL = "https://fcm.googleapis.com"

// Substrings the v1 API uses to report a registration token the backend no
// longer knows about.
var unregisteredMarkers = []string{
	"UNREGISTERED",
	"registration-token-not-registered",
	"NOT_FOUND",
}

// Client sends messages through the FCM HTTP v1 per-project endpoint.
type Client struct {
	projectID  string
	baseURL    string
	httpClient *http.Client
}

func NewClient(projectID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		projectID:  projectID,
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

// NewClientWithBaseURL overrides the API host; used by tests.
func NewClientWithBaseURL(projectID, baseURL string, httpClient *http.Client) *Client {
	c := NewClient(projectID, httpClient)
	c.baseURL = baseURL
	return c
}

type message struct {
	Token        string            `json:"token"`
	Notification notificationBody  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type notificationBody struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Send delivers one message to one registration token. A token the backend
// reports as gone comes back as a DeliveryError with Unregistered set so the
// caller can tombstone the device.
func (c *Client) Send(ctx context.Context, accessToken, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(map[string]message{
		"message": {
			Token:        token,
			Notification: notificationBody{Title: title, Body: body},
			Data:         data,
		},
	})
	if err != nil {
		return &domain.DeliveryError{Token: token, Err: fmt.Errorf("marshal message: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.baseURL, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &domain.DeliveryError{Token: token, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.DeliveryError{Token: token, Err: fmt.Errorf("send: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if isUnregistered(string(respBody)) {
		return &domain.DeliveryError{
			Token:        token,
			Unregistered: true,
			Err:          fmt.Errorf("backend returned %d", resp.StatusCode),
		}
	}
	return &domain.DeliveryError{
		Token: token,
		Err:   fmt.Errorf("backend returned %d: %s", resp.StatusCode, respBody),
	}
}

func isUnregistered(body string) bool {
	for _, marker := range unregisteredMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
