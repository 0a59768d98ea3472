// Package client implements the authenticated HTTP client the suites and
// the e2ectl tool use to talk to the Waterfall gateway.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client wraps an http.Client with a cookie jar bound to the gateway base
// URL. TLS verification is disabled because test deployments run with
// self-signed certificates.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger
}

// Response captures a fully read HTTP exchange.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// New builds a Client for the given gateway base URL.
func New(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base: base,
		log:  log,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}, nil
}

// BaseURL returns the configured gateway base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// SetCookies attaches session cookies (access_token, refresh_token) to the
// jar so every subsequent request carries them.
func (c *Client) SetCookies(cookies map[string]string) {
	hc := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		hc = append(hc, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	c.http.Jar.SetCookies(c.base, hc)
}

// Cookies returns the jar cookies currently set for the gateway.
func (c *Client) Cookies() map[string]string {
	out := map[string]string{}
	for _, ck := range c.http.Jar.Cookies(c.base) {
		out[ck.Name] = ck.Value
	}
	return out
}

// ClearCookies drops all session state.
func (c *Client) ClearCookies() {
	jar, _ := cookiejar.New(nil)
	c.http.Jar = jar
}

func (c *Client) resolve(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := *c.base
	// Paths may carry an inline query string (cleanup helpers register
	// full request lines); keep it out of the escaped path segment.
	if i := strings.IndexByte(path, '?'); i >= 0 {
		u.RawQuery = path[i+1:]
		path = path[:i]
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Do sends a request with an optional raw body and returns the fully read
// response. Callers own status-code interpretation: any HTTP status is a
// successful exchange.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*Response, error) {
	target := c.resolve(path, query)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.log.Debug(">>> request", zap.String("method", method), zap.String("url", target))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.log.Debug("<<< response",
		zap.Int("status", resp.StatusCode),
		zap.String("body", truncate(string(data), 512)))

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// DoJSON marshals body (when non-nil) and sends it as application/json.
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		c.log.Debug(">>> request body", zap.String("body", maskSecrets(body)))
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.Do(ctx, method, path, query, contentType, reader)
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, "", nil)
}

// PostJSON issues a POST with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.DoJSON(ctx, http.MethodPost, path, nil, body)
}

// PutJSON issues a PUT with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.DoJSON(ctx, http.MethodPut, path, nil, body)
}

// PatchJSON issues a PATCH with a JSON body.
func (c *Client) PatchJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.DoJSON(ctx, http.MethodPatch, path, nil, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, "", nil)
}

// File is one part of a multipart upload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// PostMultipart uploads a file plus form fields, as the storage proxy
// upload and the basic-io import endpoints expect.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, file *File) (*Response, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if file != nil {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.Name)}
		if file.ContentType != "" {
			hdr["Content-Type"] = []string{file.ContentType}
		}
		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return c.Do(ctx, http.MethodPost, path, nil, w.FormDataContentType(), buf)
}

// WaitForAPI polls an endpoint until it answers 200. It gives up early on
// 401/403 because those mean the deployment is up but the caller's session
// is broken, and further polling cannot fix that.
func (c *Client) WaitForAPI(ctx context.Context, path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := c.Get(ctx, path, nil)
		if err == nil {
			switch resp.Status {
			case http.StatusOK:
				return true
			case http.StatusUnauthorized, http.StatusForbidden:
				c.log.Warn("authentication issue while waiting for API",
					zap.String("path", path), zap.Int("status", resp.Status))
				return false
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(2 * time.Second):
		}
	}
	return false
}

// JSON decodes the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// JSONMap decodes the response body into a generic map.
func (r *Response) JSONMap() (map[string]any, error) {
	out := map[string]any{}
	err := json.Unmarshal(r.Body, &out)
	return out, err
}

// JSONList decodes the response body into a generic slice.
func (r *Response) JSONList() ([]map[string]any, error) {
	var out []map[string]any
	err := json.Unmarshal(r.Body, &out)
	return out, err
}

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// maskSecrets renders a request body for debug logs with password fields
// blanked out.
func maskSecrets(body any) string {
	data, err := json.Marshal(body)
	if err != nil {
		return "<unserializable>"
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return truncate(string(data), 512)
	}
	if m, ok := generic.(map[string]any); ok {
		if _, has := m["password"]; has {
			m["password"] = "***"
		}
		masked, _ := json.Marshal(m)
		return truncate(string(masked), 512)
	}
	return truncate(string(data), 512)
}
