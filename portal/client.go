// Package portal talks to a portal's sharing REST API and builds stories
// that can be published through it.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Token error codes returned in the body of an otherwise successful reply.
const (
	codeInvalidToken  = 498
	codeTokenRequired = 499
)

// Client is a sharing REST API client authenticated with a generated token.
type Client struct {
	httpClient       *http.Client
	baseURL          string
	username         string
	password         string
	token            string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	logger           *slog.Logger
}

// APIError is a failed REST call: a non-2xx status or an error object in
// the reply body.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	if e.Code != 0 && e.Code != e.StatusCode {
		return fmt.Sprintf("portal error: status=%d code=%d message=%s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("portal error: status=%d message=%s", e.StatusCode, msg)
}

// InvalidToken reports whether the error asks for a new token.
func (e *APIError) InvalidToken() bool {
	return e.Code == codeInvalidToken || e.Code == codeTokenRequired
}

// NewClient returns a client for the portal at portalURL, for example
// https://www.arcgis.com. Zero timeout and retry values select defaults.
func NewClient(portalURL, username, password string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &Client{
		httpClient:       &http.Client{Timeout: httpTimeout},
		baseURL:          strings.TrimRight(portalURL, "/") + "/sharing/rest",
		username:         username,
		password:         password,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
		logger:           slog.Default(),
	}
}

// WithLogger sets the logger used for request traces.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

// Username returns the account the client signs in as.
func (c *Client) Username() string {
	return c.username
}

// GenerateToken signs in and stores the token for later calls.
func (c *Client) GenerateToken(ctx context.Context) (string, error) {
	if c.username == "" || c.password == "" {
		return "", errors.New("portal username and password are required")
	}
	form := url.Values{
		"username":   {c.username},
		"password":   {c.password},
		"client":     {"referer"},
		"referer":    {c.baseURL},
		"expiration": {"120"},
	}
	var out struct {
		Token   string `json:"token"`
		Expires int64  `json:"expires"`
	}
	if err := c.call(ctx, http.MethodPost, "/generateToken", form, nil, &out); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("generating token: empty token in reply")
	}
	c.token = out.Token
	c.logger.Debug("portal token generated", "user", c.username, "expires", out.Expires)
	return out.Token, nil
}

// ItemSpec describes a new item.
type ItemSpec struct {
	Title        string
	Type         string
	Tags         []string
	TypeKeywords []string
	Snippet      string
	Description  string
	Data         []byte
}

// AddItem creates an item owned by the signed-in user and returns its id.
func (c *Client) AddItem(ctx context.Context, spec ItemSpec) (string, error) {
	form := url.Values{
		"title":        {spec.Title},
		"type":         {spec.Type},
		"tags":         {strings.Join(spec.Tags, ",")},
		"typeKeywords": {strings.Join(spec.TypeKeywords, ",")},
		"snippet":      {spec.Snippet},
		"description":  {spec.Description},
		"text":         {string(spec.Data)},
	}
	var out struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	if err := c.authed(ctx, http.MethodPost, c.userPath("/addItem"), form, nil, &out); err != nil {
		return "", fmt.Errorf("adding item: %w", err)
	}
	if !out.Success || out.ID == "" {
		return "", errors.New("adding item: portal did not return an id")
	}
	return out.ID, nil
}

// ItemData returns the raw data of an item.
func (c *Client) ItemData(ctx context.Context, itemID string) ([]byte, error) {
	data, err := c.authedRaw(ctx, http.MethodGet, "/content/items/"+url.PathEscape(itemID)+"/data", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching item data: %w", err)
	}
	return data, nil
}

// UpdateItemData replaces the data of an item.
func (c *Client) UpdateItemData(ctx context.Context, itemID string, data []byte) error {
	form := url.Values{"text": {string(data)}}
	var out struct {
		Success bool `json:"success"`
	}
	if err := c.authed(ctx, http.MethodPost, c.userPath("/items/"+url.PathEscape(itemID)+"/update"), form, nil, &out); err != nil {
		return fmt.Errorf("updating item data: %w", err)
	}
	if !out.Success {
		return errors.New("updating item data: portal reported failure")
	}
	return nil
}

// Resources lists the resource names of an item.
func (c *Client) Resources(ctx context.Context, itemID string) ([]string, error) {
	form := url.Values{"num": {"1000"}}
	var out struct {
		Resources []struct {
			Resource string `json:"resource"`
		} `json:"resources"`
	}
	if err := c.authed(ctx, http.MethodGet, "/content/items/"+url.PathEscape(itemID)+"/resources", form, nil, &out); err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	names := make([]string, 0, len(out.Resources))
	for _, r := range out.Resources {
		names = append(names, r.Resource)
	}
	return names, nil
}

// Resource downloads one resource of an item.
func (c *Client) Resource(ctx context.Context, itemID, name string) ([]byte, error) {
	data, err := c.authedRaw(ctx, http.MethodGet, "/content/items/"+url.PathEscape(itemID)+"/resources/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching resource %s: %w", name, err)
	}
	return data, nil
}

// AddResource uploads a new resource to an item.
func (c *Client) AddResource(ctx context.Context, itemID, name string, data []byte) error {
	return c.resourceUpload(ctx, "/addResources", itemID, name, data)
}

// UpdateResource overwrites an existing resource of an item.
func (c *Client) UpdateResource(ctx context.Context, itemID, name string, data []byte) error {
	return c.resourceUpload(ctx, "/updateResources", itemID, name, data)
}

func (c *Client) resourceUpload(ctx context.Context, op, itemID, name string, data []byte) error {
	form := url.Values{"fileName": {name}, "resource": {name}, "access": {"inherit"}}
	var out struct {
		Success bool `json:"success"`
	}
	file := &upload{field: "file", name: name, data: data}
	if err := c.authed(ctx, http.MethodPost, c.userPath("/items/"+url.PathEscape(itemID)+op), form, file, &out); err != nil {
		return fmt.Errorf("uploading resource %s: %w", name, err)
	}
	if !out.Success {
		return fmt.Errorf("uploading resource %s: portal reported failure", name)
	}
	return nil
}

func (c *Client) userPath(p string) string {
	return "/content/users/" + url.PathEscape(c.username) + p
}

// upload is a file part of a multipart request.
type upload struct {
	field string
	name  string
	data  []byte
}

// authed runs a JSON call with a token, signing in first if needed and
// once more if the token was rejected.
func (c *Client) authed(ctx context.Context, method, path string, form url.Values, file *upload, out any) error {
	data, err := c.authedRaw(ctx, method, path, form, file)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authedRaw(ctx context.Context, method, path string, form url.Values, file *upload) ([]byte, error) {
	if c.token == "" {
		if _, err := c.GenerateToken(ctx); err != nil {
			return nil, err
		}
	}
	data, err := c.send(ctx, method, path, c.withToken(form), file)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.InvalidToken() {
		c.logger.Debug("portal token rejected, signing in again", "code", apiErr.Code)
		if _, err := c.GenerateToken(ctx); err != nil {
			return nil, err
		}
		data, err = c.send(ctx, method, path, c.withToken(form), file)
	}
	return data, err
}

func (c *Client) withToken(form url.Values) url.Values {
	out := url.Values{}
	for k, v := range form {
		out[k] = v
	}
	out.Set("token", c.token)
	return out
}

// call runs an unauthenticated JSON call.
func (c *Client) call(ctx context.Context, method, path string, form url.Values, file *upload, out any) error {
	data, err := c.send(ctx, method, path, form, file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs a request with retries on network errors, 429 and 5xx,
// backing off exponentially between attempts.
func (c *Client) send(ctx context.Context, method, path string, form url.Values, file *upload) ([]byte, error) {
	if form == nil {
		form = url.Values{}
	}
	form.Set("f", "json")
	endpoint := c.baseURL + path

	var (
		body        []byte
		contentType string
	)
	switch {
	case file != nil:
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for k, vs := range form {
			for _, v := range vs {
				if err := mw.WriteField(k, v); err != nil {
					return nil, fmt.Errorf("build request: %w", err)
				}
			}
		}
		fw, err := mw.CreateFormFile(file.field, file.name)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if _, err := fw.Write(file.data); err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		body, contentType = buf.Bytes(), mw.FormDataContentType()
	case method == http.MethodGet:
		endpoint += "?" + form.Encode()
	default:
		body, contentType = []byte(form.Encode()), "application/x-www-form-urlencoded"
	}

	backoff := c.retryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		c.logger.Debug("portal request", "method", method, "path", path, "attempt", attempt)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isRetryableNetErr(err) && attempt < c.retryMaxAttempts {
				lastErr = err
				c.sleep(ctx, c.nextDelay(&backoff))
				continue
			}
			return nil, fmt.Errorf("http request: %w", err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			if attempt < c.retryMaxAttempts {
				c.sleep(ctx, c.nextDelay(&backoff))
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := decodeAPIError(resp.StatusCode, data)
			if apiErr == nil {
				apiErr = &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			}
			if retryableStatus(resp.StatusCode) && attempt < c.retryMaxAttempts {
				lastErr = apiErr
				delay := c.nextDelay(&backoff)
				if ra := resp.Header.Get("Retry-After"); ra != "" {
					if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
						delay = time.Duration(secs) * time.Second
					}
				}
				c.sleep(ctx, delay)
				continue
			}
			return nil, apiErr
		}
		if apiErr := decodeAPIError(resp.StatusCode, data); apiErr != nil {
			if retryableStatus(apiErr.Code) && attempt < c.retryMaxAttempts {
				lastErr = apiErr
				c.sleep(ctx, c.nextDelay(&backoff))
				continue
			}
			return nil, apiErr
		}
		return data, nil
	}
	return nil, lastErr
}

// decodeAPIError returns the error object of a reply body, if any.
func decodeAPIError(status int, data []byte) *APIError {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var body struct {
		Error *struct {
			Code    int      `json:"code"`
			Message string   `json:"message"`
			Details []string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &body); err != nil || body.Error == nil {
		return nil
	}
	return &APIError{
		StatusCode: status,
		Code:       body.Error.Code,
		Message:    body.Error.Message,
		Details:    body.Error.Details,
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// nextDelay returns the jittered, capped wait and doubles the backoff.
func (c *Client) nextDelay(backoff *time.Duration) time.Duration {
	d := withJitter(*backoff)
	if c.retryMaxDelay > 0 && d > c.retryMaxDelay {
		d = c.retryMaxDelay
	}
	*backoff *= 2
	return d
}

func (c *Client) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// parseRetryAfterSeconds reads a Retry-After value given as seconds or as
// an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// withJitter returns d with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
