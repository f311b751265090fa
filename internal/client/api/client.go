package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/panoclone/internal/client/tokens"
	"github.com/dmitrijs2005/panoclone/internal/logging"
	"github.com/dmitrijs2005/panoclone/internal/shared"
)

// maxAuthRefreshes caps consecutive credential refreshes within a single
// logical request. Without a cap a permanently invalid credential would spin
// the refresh-and-retry loop forever.
const maxAuthRefreshes = 3

// Client issues authenticated calls against the media server's REST API.
//
// Every call inspects the HTTP status:
//   - 2xx: success.
//   - 401/403: expired credential; the shared token cell is refreshed and the
//     request resubmitted, at most maxAuthRefreshes times.
//   - 400: non-retryable client error (shared.ErrorClientRequest).
//   - anything else: transport error carrying status and a body snippet.
type Client struct {
	baseURL string
	http    *http.Client
	cell    *tokens.Cell
	log     logging.Logger
}

// New builds a Client for the given server FQDN. skipVerify disables TLS
// certificate verification and must never be used against production servers.
func New(server string, skipVerify bool, cell *tokens.Cell, log logging.Logger) *Client {
	transport := &http.Transport{}
	if skipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL: fmt.Sprintf("https://%s/Panopto", server),
		http: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
		},
		cell: cell,
		log:  log,
	}
}

// do performs one authenticated request. payload (if non-nil) is sent as a
// JSON body; out (if non-nil) receives the decoded JSON response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	refreshes := 0
	for {
		token, gen, err := c.cell.Token(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("%s %s: read response: %w", method, path, readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out != nil {
				if err := json.Unmarshal(data, out); err != nil {
					return fmt.Errorf("%s %s: decode response: %w", method, path, err)
				}
			}
			return nil

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			refreshes++
			if refreshes > maxAuthRefreshes {
				return fmt.Errorf("%s %s: %w", method, path, shared.ErrorAuthRefreshExhausted)
			}
			c.log.Warn(ctx, "authorization expired, refreshing access token",
				"method", method, "path", path, "attempt", refreshes)
			if _, _, err := c.cell.Refresh(ctx, gen); err != nil {
				return err
			}
			continue

		case resp.StatusCode == http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", method, path, shared.ErrorNotFound)

		case resp.StatusCode == http.StatusBadRequest:
			return fmt.Errorf("%s %s: %w: %s", method, path, shared.ErrorClientRequest, bodySnippet(data))

		default:
			c.log.Error(ctx, "unexpected response from server",
				"method", method, "path", path, "status", resp.StatusCode)
			return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, bodySnippet(data))
		}
	}
}

// bodySnippet trims a response body for inclusion in error messages.
func bodySnippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
