package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Client is an HTTP client for the vault API.
type Client struct {
	addr          string
	principalID   int64
	principalName string
	principalRole string
	http          *http.Client
}

// newClient creates a Client from the current config.
func newClient() *Client {
	addr := cfg.Address
	if v := os.Getenv("ASSETVAULT_ADDR"); v != "" {
		addr = v
	}
	principalID := cfg.PrincipalID
	if v := os.Getenv("ASSETVAULT_PRINCIPAL_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			principalID = id
		}
	}
	principalName := cfg.PrincipalName
	if v := os.Getenv("ASSETVAULT_PRINCIPAL_NAME"); v != "" {
		principalName = v
	}
	principalRole := cfg.PrincipalRole
	if v := os.Getenv("ASSETVAULT_PRINCIPAL_ROLE"); v != "" {
		principalRole = v
	}

	return &Client{
		addr:          addr,
		principalID:   principalID,
		principalName: principalName,
		principalRole: principalRole,
		http:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.addr+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.principalID != 0 {
		req.Header.Set("X-Principal-Id", strconv.FormatInt(c.principalID, 10))
		req.Header.Set("X-Principal-Name", c.principalName)
		req.Header.Set("X-Principal-Role", c.principalRole)
	}

	return c.http.Do(req)
}

func (c *Client) get(path string) (map[string]any, error) {
	resp, err := c.do("GET", path, nil)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func (c *Client) post(path string, body any) (map[string]any, error) {
	resp, err := c.do("POST", path, body)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func (c *Client) put(path string, body any) (map[string]any, error) {
	resp, err := c.do("PUT", path, body)
	if err != nil {
		return nil, err
	}
	return parseResponse(resp)
}

func (c *Client) delete(path string, body any) error {
	resp, err := c.do("DELETE", path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		var result map[string]any
		if json.Unmarshal(data, &result) == nil {
			if msg, ok := result["error"].(string); ok {
				return fmt.Errorf("%s", msg)
			}
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func parseResponse(resp *http.Response) (map[string]any, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, data)
	}
	if resp.StatusCode >= 400 {
		if msg, ok := result["error"].(string); ok {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return result, nil
}
