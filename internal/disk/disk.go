// Package disk is a minimal Yandex Disk REST client covering what the bot
// needs: a credential probe, file download/upload through the API's href
// indirection, and OAuth confirmation-code exchange for token renewal.
package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://cloud-api.yandex.net"
	defaultOAuthURL = "https://oauth.yandex.ru"
)

// Config carries the credentials and endpoints for one drive account.
// AppID/AppSecret are only needed for the token-renewal flow.
type Config struct {
	Token     string
	AppID     string
	AppSecret string
	BaseURL   string
	OAuthURL  string
	Timeout   time.Duration
}

// Client talks to the Yandex Disk REST API. It implements the loader's
// FileTransfer interface.
type Client struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a drive client. Zero-value endpoints and timeout fall
// back to the public API defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = defaultOAuthURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "disk"),
	}
}

// SetToken swaps the OAuth token after a successful renewal.
func (c *Client) SetToken(token string) {
	c.cfg.Token = token
}

// CheckCredential probes the disk metadata endpoint and reports whether the
// current token is accepted.
func (c *Client) CheckCredential(ctx context.Context) bool {
	req, err := c.buildRequest(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/disk", nil)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to build credential check request", "error", err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Credential check request failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "Credential rejected by drive API", "status", resp.StatusCode)
		return false
	}
	return true
}

// Download fetches remotePath from the drive into localPath.
func (c *Client) Download(ctx context.Context, remotePath, localPath string) error {
	href, err := c.resourceHref(ctx, "download", remotePath, false)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to obtain download link", "remote", remotePath, "error", err)
		return err
	}

	req, err := c.buildRequest(ctx, http.MethodGet, href, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Download request failed", "remote", remotePath, "error", err)
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "Download rejected", "remote", remotePath, "status", resp.StatusCode)
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write local file %s: %w", localPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to finalize local file %s: %w", localPath, err)
	}

	c.logger.InfoContext(ctx, "Downloaded file from drive", "remote", remotePath, "local", localPath)
	return nil
}

// Upload pushes localPath to remotePath on the drive, optionally replacing
// an existing file.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string, overwrite bool) error {
	href, err := c.resourceHref(ctx, "upload", remotePath, overwrite)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to obtain upload link", "remote", remotePath, "error", err)
		return err
	}

	in, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer in.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, href, in)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Upload request failed", "remote", remotePath, "error", err)
		return fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		c.logger.ErrorContext(ctx, "Upload rejected", "remote", remotePath, "status", resp.StatusCode)
		return fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	c.logger.InfoContext(ctx, "Uploaded file to drive", "local", localPath, "remote", remotePath)
	return nil
}

// ExchangeCode trades an OAuth confirmation code for a fresh access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.cfg.AppID},
		"client_secret": {c.cfg.AppSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OAuthURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access token")
	}
	return payload.AccessToken, nil
}

// CodeURL is the authorization URL a human visits to obtain a fresh
// confirmation code.
func (c *Client) CodeURL() string {
	return fmt.Sprintf("%s/authorize?response_type=code&client_id=%s", c.cfg.OAuthURL, url.QueryEscape(c.cfg.AppID))
}

// resourceHref asks the API for the one-shot href behind a download or
// upload operation.
func (c *Client) resourceHref(ctx context.Context, op, remotePath string, overwrite bool) (string, error) {
	u := fmt.Sprintf("%s/v1/disk/resources/%s?path=%s", c.cfg.BaseURL, op, url.QueryEscape(remotePath))
	if op == "upload" {
		u += fmt.Sprintf("&overwrite=%t", overwrite)
	}

	req, err := c.buildRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build %s link request: %w", op, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s link request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s link request failed with status %d", op, resp.StatusCode)
	}

	var payload struct {
		Href string `json:"href"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode %s link response: %w", op, err)
	}
	if payload.Href == "" {
		return "", fmt.Errorf("%s link response contained no href", op)
	}
	return payload.Href, nil
}

// buildRequest creates an HTTP request carrying the OAuth header.
func (c *Client) buildRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "OAuth "+c.cfg.Token)
	return req, nil
}
