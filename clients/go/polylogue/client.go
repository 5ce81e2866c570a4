// Package polylogue provides a client for the Polylogue room message API.
package polylogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a Polylogue API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new Polylogue client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Message represents a chat message.
type Message struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Name      string    `json:"name"`
	Body      string    `json:"message"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
}

// PostMessageRequest is the request body for posting a message.
type PostMessageRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// PostMessageResponse is the response from posting a message.
type PostMessageResponse struct {
	Status string `json:"status"`
	Seq    int64  `json:"seq"`
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("polylogue error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// Rooms lists the names of all rooms with messages.
func (c *Client) Rooms(ctx context.Context) ([]string, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/rooms", nil)
	if err != nil {
		return nil, err
	}

	var rooms []string
	if err := json.Unmarshal(respBody, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Messages retrieves up to limit of the most recent messages for a room,
// ascending by sequence. sinceSeq > 0 restricts to seq > sinceSeq.
func (c *Client) Messages(ctx context.Context, room string, limit int, sinceSeq int64) ([]Message, error) {
	path := fmt.Sprintf("/rooms/%s/messages?limit=%d", url.PathEscape(room), limit)
	if sinceSeq > 0 {
		path += fmt.Sprintf("&since_seq=%d", sinceSeq)
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := json.Unmarshal(respBody, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PostMessage appends a message to a room and returns its sequence number.
func (c *Client) PostMessage(ctx context.Context, room, name, message string) (*PostMessageResponse, error) {
	reqBody, _ := json.Marshal(PostMessageRequest{Name: name, Message: message})

	respBody, err := c.doRequest(ctx, http.MethodPost, "/rooms/"+url.PathEscape(room)+"/messages", reqBody)
	if err != nil {
		return nil, err
	}

	var resp PostMessageResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
