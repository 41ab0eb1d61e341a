package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError is a structured error returned by the server's error body.
type APIError struct {
	HTTPStatus int
	Message    string `json:"error"`
	Reason     string `json:"reason"`
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
	}
	return e.Message
}

// Client is a thin HTTP client for the data-cleaning API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client against the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Do sends a request. A non-nil body is JSON-encoded unless contentType
// says otherwise.
func (c *Client) Do(method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	return resp, nil
}

// DoJSON marshals v and sends it as an application/json body.
func (c *Client) DoJSON(method, path string, v any) (*http.Response, error) {
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	return c.Do(method, path, body, "application/json")
}

// CheckError converts a non-2xx response into an *APIError.
func CheckError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()
	apiErr := &APIError{HTTPStatus: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && json.Unmarshal(raw, apiErr) == nil && apiErr.Message != "" {
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("server returned %s", resp.Status)
	return apiErr
}

// ReadBody drains and closes the response body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
