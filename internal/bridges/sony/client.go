package sony

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Defaults for the device control API.
const (
	// DefaultPort is the TCP port of the control API.
	DefaultPort = 10000

	// DefaultPath is the URL path prefix of the control API.
	DefaultPath = "/sony"

	// DefaultTimeout is the per-call timeout when the call site does not set one.
	DefaultTimeout = 3 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 1 << 20
)

// Endpoint is a logical service of the control API, addressed as base_url/<endpoint>.
type Endpoint string

// Services exposed by the device.
const (
	ServiceSystem    Endpoint = "system"
	ServiceAudio     Endpoint = "audio"
	ServiceAVContent Endpoint = "avContent"
)

// BaseURL builds the control API base URL for a device address.
// A zero port or empty path falls back to the defaults.
func BaseURL(host string, port int, path string) string {
	if port == 0 {
		port = DefaultPort
	}
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + strings.TrimRight(path, "/")
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// BaseURL is the API root, e.g. "http://192.168.1.20:10000/sony".
	BaseURL string

	// Timeout is the default per-call timeout. Default: 3s.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client (tests). When nil the client
	// builds its own single-connection transport.
	HTTPClient *http.Client

	// Logger is optional.
	Logger Logger
}

// Client is a JSON-RPC client for one device.
//
// Each call is an independent HTTP request; nothing is retried. The only
// cached response is the system information, which does not change while the
// device is running.
type Client struct {
	baseURL string
	timeout time.Duration
	logger  Logger

	httpMu     sync.Mutex
	httpClient *http.Client
	ownsHTTP   bool

	nextID atomic.Int64

	infoMu sync.Mutex
	info   *SystemInfo
}

// NewClient creates a client for the device at opts.BaseURL.
//
// Parameters:
//   - opts: Client configuration; BaseURL is required
//
// Returns:
//   - *Client: Ready to issue calls (no network I/O is performed here)
//   - error: If BaseURL is empty
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("sony: base URL is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		timeout:    timeout,
		logger:     loggerOrNoop(opts.Logger),
		httpClient: opts.HTTPClient,
	}
	return c, nil
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	timeout time.Duration
}

// WithTimeout overrides the client's default timeout for one call.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

type rpcRequest struct {
	Method  string `json:"method"`
	ID      int64  `json:"id"`
	Params  any    `json:"params"`
	Version string `json:"version"`
}

type rpcResponse struct {
	Result []json.RawMessage `json:"result"`
	Error  []json.RawMessage `json:"error"`
	ID     int64             `json:"id"`
}

// Call issues one JSON-RPC request and returns the first element of the
// result array, or nil when the device answered with an empty result.
//
// Parameters:
//   - ctx: Cancels the request; the per-call timeout is applied on top
//   - service: Logical endpoint, appended to the base URL
//   - method: RPC method name
//   - params: Parameter list; nil is sent as []
//   - version: API version string, e.g. "1.1"
//
// Returns:
//   - json.RawMessage: First result element (nil when empty)
//   - error: *ProtocolError for device errors, *TransportError otherwise
func (c *Client) Call(ctx context.Context, service Endpoint, method string, params []any, version string, opts ...CallOption) (json.RawMessage, error) {
	o := callOptions{timeout: c.timeout}
	for _, opt := range opts {
		opt(&o)
	}

	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		Method:  method,
		ID:      c.nextID.Add(1),
		Params:  params,
		Version: version,
	})
	if err != nil {
		return nil, &TransportError{Service: string(service), Method: method, Err: fmt.Errorf("encoding request: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	url := c.baseURL + "/" + string(service)
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Service: string(service), Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.session().Do(req)
	if err != nil {
		c.logger.Error("device call failed", "service", service, "method", method, "error", err)
		return nil, &TransportError{Service: string(service), Method: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		//nolint:errcheck // Draining so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &TransportError{Service: string(service), Method: method, Err: fmt.Errorf("HTTP status %d", resp.StatusCode)}
	}

	// The Content-Type header is not trusted; some firmware sends text/plain.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Service: string(service), Method: method, Err: fmt.Errorf("reading response: %w", err)}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, &TransportError{Service: string(service), Method: method, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if rpcResp.Error != nil {
		perr := parseRPCError(method, rpcResp.Error)
		c.logger.Warn("device rejected call", "method", method, "code", perr.Code, "message", perr.Message)
		return nil, perr
	}

	if len(rpcResp.Result) == 0 {
		return nil, nil
	}
	return rpcResp.Result[0], nil
}

// parseRPCError decodes the [code, message] error array. Missing or
// malformed entries leave the zero value.
func parseRPCError(method string, raw []json.RawMessage) *ProtocolError {
	perr := &ProtocolError{Method: method}
	if len(raw) > 0 {
		var code json.Number
		if err := json.Unmarshal(raw[0], &code); err == nil {
			if n, convErr := code.Int64(); convErr == nil {
				perr.Code = int(n)
			}
		}
	}
	if len(raw) > 1 {
		//nolint:errcheck // Message stays empty when not a string
		json.Unmarshal(raw[1], &perr.Message)
	}
	return perr
}

// session returns the HTTP client, creating it on first use or after Close.
func (c *Client) session() *http.Client {
	c.httpMu.Lock()
	defer c.httpMu.Unlock()
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        1,
				MaxIdleConnsPerHost: 1,
				IdleConnTimeout:     90 * time.Second,
			},
		}
		c.ownsHTTP = true
	}
	return c.httpClient
}

// Close releases the client's idle connection. The client stays usable;
// the next call opens a fresh connection.
func (c *Client) Close() {
	c.httpMu.Lock()
	defer c.httpMu.Unlock()
	if c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
	if c.ownsHTTP {
		c.httpClient = nil
		c.ownsHTTP = false
	}
}

// decodeResult unmarshals a non-empty result element into v.
func decodeResult(method string, raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%s: %w", method, ErrEmptyResult)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w: %w", method, ErrUnexpectedResult, err)
	}
	return nil
}
