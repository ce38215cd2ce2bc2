package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/puzzlecrawl/internal/model"
)

// Defaults used by NewClient.
const (
	DefaultBaseURL     = "https://adventofcode.com/"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 5 * 1024 * 1024
	DefaultUserAgent   = "github.com/nao1215/puzzlecrawl"

	// sessionCookie is the cookie name the service reads the credential from.
	sessionCookie = "session"

	// maxRedirects bounds redirect chains.
	maxRedirects = 10
)

// Client holds the transport configuration shared by all sessions.
type Client struct {
	baseURL      *url.URL
	proxyAddress string
	timeout      time.Duration
	userAgent    string
	maxBodySize  int64
	transport    http.RoundTripper
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// WithBaseURL sets the service root. Remote paths are resolved against it.
func WithBaseURL(raw string) ClientOption {
	return func(c *Client) error {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
			return ErrInvalidBaseURL
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		c.baseURL = u
		return nil
	}
}

// WithProxy routes all requests through a SOCKS5 proxy at "host:port".
// An empty address disables proxying.
func WithProxy(address string) ClientOption {
	return func(c *Client) error {
		if address != "" && !isValidProxyAddress(address) {
			return ErrInvalidProxyAddress
		}
		c.proxyAddress = address
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		c.timeout = timeout
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) error {
		c.userAgent = userAgent
		return nil
	}
}

// WithMaxBodySize limits how many bytes of a response body are accepted.
func WithMaxBodySize(size int64) ClientOption {
	return func(c *Client) error {
		c.maxBodySize = size
		return nil
	}
}

// WithTransport replaces the base round tripper. Credential and header
// injection still wrap it.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) error {
		c.transport = rt
		return nil
	}
}

// NewClient creates a Client. It does not contact the service or the proxy.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	if err := WithBaseURL(DefaultBaseURL)(c); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.transport == nil {
		transport, err := c.newTransport()
		if err != nil {
			return nil, err
		}
		c.transport = transport
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ProxyAddress returns the configured proxy address, or "" when direct.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

func (c *Client) newTransport() (*http.Transport, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("unexpected default transport type")
	}
	transport = transport.Clone()
	transport.MaxIdleConnsPerHost = 2
	transport.IdleConnTimeout = 30 * time.Second

	if c.proxyAddress == "" {
		return transport, nil
	}

	// The service does not need credentials at the proxy level.
	dialer, err := proxy.SOCKS5("tcp", c.proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	transport.Proxy = nil
	if contextDialer, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = contextDialer.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || port == "" {
		return false
	}

	portNum := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		portNum = portNum*10 + int(c-'0')
		if portNum > 65535 {
			return false
		}
	}
	return portNum >= 1
}

// Session binds a credential to the client. Every request made through the
// returned session carries the credential as the session cookie.
func (c *Client) Session(credential model.Credential) *Session {
	headers := map[string]string{}
	if c.userAgent != "" {
		headers["User-Agent"] = c.userAgent
	}

	cookie := ""
	if credential != "" {
		cookie = (&http.Cookie{Name: sessionCookie, Value: credential.Secret()}).String()
	}

	return &Session{
		client: c,
		http: &http.Client{
			Transport: &headerInjectingTransport{
				base:    c.transport,
				host:    c.baseURL.Host,
				cookie:  cookie,
				headers: headers,
			},
			Timeout: c.timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if req.URL.Host != c.baseURL.Host {
					return fmt.Errorf("%w: %s", ErrCrossHostRedirect, req.URL.Host)
				}
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Session performs authenticated requests for one credential.
type Session struct {
	client *Client
	http   *http.Client
}

// Get fetches path relative to the service root and returns the body.
// A non-2xx response yields *RemoteFetchError.
func (s *Session) Get(ctx context.Context, path string) ([]byte, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid remote path %q: %w", path, err)
	}
	target := s.client.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best effort
		return nil, &RemoteFetchError{Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.client.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", path, err)
	}
	if int64(len(body)) > s.client.maxBodySize {
		return nil, fmt.Errorf("%s: %w", path, ErrBodyTooLarge)
	}
	return body, nil
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// the session cookie and fixed headers into every request.
//
// Design decision: the cookie is bound to the service host. CheckRedirect
// already refuses to follow a redirect off that host, but the transport
// checks again so a credential can never reach another host through any
// path that bypasses the client's redirect policy.
type headerInjectingTransport struct {
	// base performs the actual round trip.
	base http.RoundTripper

	// host is the only host that receives the cookie. Empty means any host.
	host string

	// cookie is the serialized session cookie, or "" for anonymous requests.
	cookie string

	// headers are set on every request, e.g. User-Agent.
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" && (t.host == "" || clone.URL.Host == t.host) {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
