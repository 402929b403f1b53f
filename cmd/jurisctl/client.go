package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type baselineClient struct {
	baseURL string
	http    *http.Client

	user    string
	company string
	role    string
}

func newClient() *baselineClient {
	return &baselineClient{
		baseURL: serverURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		user:    resolvedUser(),
		company: resolvedCompany(),
		role:    resolvedRole(),
	}
}

// do performs a request with identity headers and returns the response.
// The caller owns the body.
func (c *baselineClient) do(method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set("X-User-Id", c.user)
	}
	if c.company != "" {
		req.Header.Set("X-Company-Id", c.company)
	}
	if c.role != "" {
		req.Header.Set("X-Company-Role", c.role)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// doJSON performs a request and decodes a 2xx response into v.
func (c *baselineClient) doJSON(method, path string, body any, v any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (c *baselineClient) getJSON(path string, v any) error {
	return c.doJSON(http.MethodGet, path, nil, v)
}

func (c *baselineClient) postJSON(path string, body any, v any) error {
	return c.doJSON(http.MethodPost, path, body, v)
}

func (c *baselineClient) patchJSON(path string, body any, v any) error {
	return c.doJSON(http.MethodPatch, path, body, v)
}

func (c *baselineClient) putJSON(path string, body any, v any) error {
	return c.doJSON(http.MethodPut, path, body, v)
}

func (c *baselineClient) delete(path string) error {
	return c.doJSON(http.MethodDelete, path, nil, nil)
}

// getRaw performs a GET request and returns the raw JSON.
func (c *baselineClient) getRaw(path string) (map[string]any, error) {
	var result map[string]any
	if err := c.getJSON(path, &result); err != nil {
		return nil, err
	}
	return result, nil
}
