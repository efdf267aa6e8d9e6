package portal

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pulldata/internal/config"
	apperrors "pulldata/internal/errors"
)

// Client talks to the sharing REST API of an ArcGIS Online or Enterprise
// portal
type Client struct {
	baseURL    string
	username   string
	password   string
	expiration int
	httpClient *http.Client
	logger     *slog.Logger

	token string
}

// Item is the subset of portal item properties the job needs
type Item struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Title string `json:"title"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

// apiError is the error envelope the portal returns with HTTP 200
type apiError struct {
	Error *struct {
		Code    int      `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func (e apiError) err() error {
	if e.Error == nil {
		return nil
	}
	msg := e.Error.Message
	if len(e.Error.Details) > 0 {
		msg += ": " + strings.Join(e.Error.Details, "; ")
	}
	return fmt.Errorf("portal error %d: %s", e.Error.Code, msg)
}

// NewClient creates a portal client. The HTTP transport is instrumented with
// otelhttp so every call shows up as a client span.
func NewClient(cfg config.PortalConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		expiration: cfg.TokenExpiration,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   cfg.Timeout,
		},
		logger: logger.With(slog.String("component", "portal")),
	}
}

// SignIn requests a token with the configured account
func (c *Client) SignIn(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Signing in to portal",
		slog.String("portal", c.baseURL),
		slog.String("username", c.username))

	form := url.Values{
		"username":   {c.username},
		"password":   {c.password},
		"client":     {"referer"},
		"referer":    {c.baseURL},
		"expiration": {strconv.Itoa(c.expiration)},
		"f":          {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("generateToken"), strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.NewConfigError("invalid portal url", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp struct {
		apiError
		Token   string `json:"token"`
		Expires int64  `json:"expires"`
	}
	if err := c.do(req, &resp); err != nil {
		return apperrors.NewNetworkError("token request failed", err)
	}
	if err := resp.err(); err != nil {
		return apperrors.NewAuthError("sign in rejected", err).WithContext("username", c.username)
	}
	if resp.Token == "" {
		return apperrors.NewAuthError("sign in returned no token", nil)
	}

	c.token = resp.Token
	c.logger.InfoContext(ctx, "Signed in",
		slog.Time("token_expires", time.UnixMilli(resp.Expires)))
	return nil
}

// Item fetches the properties of the item with the given id
func (c *Client) Item(ctx context.Context, id string) (*Item, error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	req, err := c.newGet(ctx, c.endpoint("content/items/"+url.PathEscape(id)), url.Values{"f": {"json"}})
	if err != nil {
		return nil, err
	}

	var resp struct {
		apiError
		Item
	}
	if err := c.do(req, &resp); err != nil {
		return nil, apperrors.NewNetworkError("item request failed", err).WithContext("item_id", id)
	}
	if err := resp.err(); err != nil {
		return nil, apperrors.NewPortalError("item lookup failed", err).WithContext("item_id", id)
	}
	if resp.ID == "" {
		return nil, apperrors.NewPortalError("item not found", nil).WithContext("item_id", id)
	}

	item := resp.Item
	c.logger.InfoContext(ctx, "Found survey item",
		slog.String("item_id", item.ID),
		slog.String("title", item.Title),
		slog.String("owner", item.Owner))
	return &item, nil
}

// newGet builds a GET request carrying the token
func (c *Client) newGet(ctx context.Context, endpoint string, query url.Values) (*http.Request, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid portal url", err)
	}
	return req, nil
}

// do sends req and decodes a JSON body into v. Non-2xx statuses are errors.
func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Close releases idle connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) requireToken() error {
	if c.token == "" {
		return apperrors.NewAuthError("not signed in", nil)
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/sharing/rest/" + path
}
