package httpw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/joshnies/survol/constants"
	"github.com/joshnies/survol/lib/console"
	"github.com/joshnies/survol/lib/errs"
	"github.com/joshnies/survol/lib/httpvalidation"
	"golang.org/x/exp/maps"
)

// HTTP client for the identity and API services.
// Every request carries the client identification header and is bounded by the timeout.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
}

// Create a new client. A zero timeout disables the per-request deadline.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{},
		timeout:    timeout,
		userAgent:  constants.UserAgent,
	}
}

// A single key/value pair of a URL-encoded form.
type FormField struct {
	Key   string
	Value string
}

// Encode form fields, keeping their order.
// Unlike url.Values.Encode, keys are not sorted.
func EncodeForm(fields []FormField) string {
	var sb strings.Builder
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(f.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(f.Value))
	}
	return sb.String()
}

// Send a POST request with a JSON body.
func (c *Client) PostJSON(ctx context.Context, url string, data any, header http.Header) (json.RawMessage, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set("Content-Type", constants.ContentTypeJSON)

	return c.SendRequest(ctx, http.MethodPost, url, bytes.NewReader(body), h)
}

// Send a POST request with a URL-encoded form body.
func (c *Client) PostForm(ctx context.Context, url string, fields []FormField, header http.Header) (json.RawMessage, error) {
	h := header.Clone()
	if h == nil {
		h = http.Header{}
	}
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", constants.ContentTypeForm)
	}

	return c.SendRequest(ctx, http.MethodPost, url, strings.NewReader(EncodeForm(fields)), h)
}

// Send a GET request.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (json.RawMessage, error) {
	return c.SendRequest(ctx, http.MethodGet, url, nil, header)
}

// Send an HTTP request to the specified URL.
//
// @param method - HTTP method
//
// @param url - URL to send the request to
//
// @param body - Request body, may be nil
//
// @param header - Request headers
//
// Returns the response body, which is guaranteed to be valid JSON.
// A bad status still returns a JSON body alongside the KindStatus error.
func (c *Client) SendRequest(ctx context.Context, method string, url string, body io.Reader, header http.Header) (json.RawMessage, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// Build request
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errs.Wrap(errs.KindNetwork, err)
	}

	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", c.userAgent)

	console.Verbose("%s %s", method, url)
	printHeaders(req.Header)

	// Send request
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer res.Body.Close()

	console.Verbose("%s %s -> %s", method, url, res.Status)

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	// Validate response
	if err = httpvalidation.ValidateStatus(res.StatusCode, raw); err != nil {
		if json.Valid(raw) {
			return raw, err
		}
		return nil, err
	}

	if !json.Valid(raw) {
		return nil, errs.New(errs.KindDecode, "response from %s is not valid JSON (%d bytes, content type %q)", url, len(raw), res.Header.Get("Content-Type"))
	}

	return raw, nil
}

// Returns a KindTimeout error for deadline failures and KindNetwork otherwise.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(errs.KindTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.Wrap(errs.KindTimeout, err)
	}

	return errs.Wrap(errs.KindNetwork, err)
}

// Print request headers in verbose mode, with credentials redacted.
func printHeaders(header http.Header) {
	if !console.IsVerbose() {
		return
	}

	keys := maps.Keys(header)
	sort.Strings(keys)
	for _, k := range keys {
		v := strings.Join(header[k], ", ")
		if k == "Authorization" {
			v = "[redacted]"
		}
		console.Verbose("  %s: %s", k, v)
	}
}
