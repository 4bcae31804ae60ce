package httpclient

import (
	"Corsgo/internal/logger"
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Client is the HTTP collaborator the scanners send their probes through.
type Client struct {
	httpClient       *http.Client      // The underlying standard HTTP client.
	logger           *logger.Logger    // Logger for client-related messages.
	userAgent        string            // Custom User-Agent header for requests.
	maxRetries       int               // Maximum number of retries for failed requests.
	requestDelay     time.Duration     // Delay between retries.
	rateLimitBackoff time.Duration     // Wait after a 429 before retrying.
	limiter          *rate.Limiter     // Shared request budget, nil when unlimited.
	authHeaders      map[string]string // Authentication headers to be added to requests.
}

// ClientOptions holds configuration parameters for initializing the HTTP Client.
type ClientOptions struct {
	Timeout            time.Duration     // Timeout for HTTP requests.
	FollowRedirects    bool              // Whether to follow HTTP redirects.
	InsecureSkipVerify bool              // Whether to skip TLS certificate verification.
	UserAgent          string            // Custom User-Agent string.
	MaxRetries         int               // Maximum number of retries for requests.
	RequestDelay       time.Duration     // Delay between retries.
	RateLimitBackoff   time.Duration     // Wait after a 429 response, default 5s.
	RequestsPerSecond  float64           // Global request rate, 0 means unlimited.
	TargetBaseURL      string            // Base URL of the target, used for cookie scope.
	AuthCookie         string            // Static cookie string for authentication.
	AuthHeaders        map[string]string // Static headers for authentication.
	Transport          http.RoundTripper // Optional transport override.
}

// NewClient creates and returns a new HTTP client instance with specified options.
func NewClient(log *logger.Logger, opts ClientOptions) *Client {
	// Set default User-Agent if not provided.
	if opts.UserAgent == "" {
		opts.UserAgent = "Corsgo-Scanner/1.0"
	}
	// Set default timeout if not provided.
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	// Ensure max retries is not negative.
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	// Servers answering 429 get a long pause before the next attempt.
	if opts.RateLimitBackoff == 0 {
		opts.RateLimitBackoff = 5 * time.Second
	}

	// The public suffix list keeps a static cookie from leaking across sibling registrable domains.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	// Configure TLS transport, allowing insecure skip verify if specified.
	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
		}
	}

	// Create the custom Client instance.
	client := &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		logger:           log,
		userAgent:        opts.UserAgent,
		maxRetries:       opts.MaxRetries,
		requestDelay:     opts.RequestDelay,
		rateLimitBackoff: opts.RateLimitBackoff,
		authHeaders:      opts.AuthHeaders,
	}

	// One limiter is shared by every worker, so the budget is global to the scan.
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	// Set static authentication cookie if provided.
	if opts.AuthCookie != "" {
		log.Info("Static cookie authentication configured.")
		targetURL, err := url.Parse(opts.TargetBaseURL)
		if err != nil || targetURL.Host == "" {
			log.Error("Failed to parse target URL for setting cookie: %q", opts.TargetBaseURL)
		} else {
			header := http.Header{}
			header.Add("Cookie", opts.AuthCookie)
			request := http.Request{Header: header}
			client.httpClient.Jar.SetCookies(targetURL, request.Cookies())
			log.Debug("Static session cookie set for domain %s", targetURL.Host)
		}
	}

	// Log if static header authentication is configured.
	if len(opts.AuthHeaders) > 0 {
		log.Info("Static header authentication configured.")
	}

	// Configure redirect policy. By default the CORS headers of the first response are
	// the ones judged, not those of wherever it redirects to.
	client.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !opts.FollowRedirects {
			return http.ErrUseLastResponse // Do not follow redirects.
		}
		if len(via) >= 10 {
			log.Warn("Exceeded maximum redirects (10).")
			return http.ErrUseLastResponse // Stop following redirects after 10.
		}
		return nil // Continue following redirects.
	}
	return client
}

// Do performs an HTTP request, setting headers, waiting on the rate limiter and
// retrying transport errors, 5xx and 429 responses. Every wait honours req.Context().
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	// Set the User-Agent header and any configured authentication headers.
	req.Header.Set("User-Agent", c.userAgent)
	for key, value := range c.authHeaders {
		req.Header.Set(key, value)
	}

	// Log the request and the cookies the jar will attach to it.
	c.logger.Trace("Sending request: %s %s (Origin: %q)", req.Method, req.URL.String(), req.Header.Get("Origin"))
	if cookies := c.httpClient.Jar.Cookies(req.URL); len(cookies) > 0 {
		var cookieStrings []string
		for _, cookie := range cookies {
			cookieStrings = append(cookieStrings, cookie.Name+"="+cookie.Value)
		}
		c.logger.Trace("  -> Cookies from Jar to be sent: %s", strings.Join(cookieStrings, "; "))
	}

	// Read the body once so every retry can send a fresh copy.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	var err error

	for i := 0; i <= c.maxRetries; i++ {
		// Apply the base delay between retries.
		if i > 0 {
			if werr := sleep(ctx, c.requestDelay); werr != nil {
				return nil, werr
			}
		}
		// Wait for the shared request budget.
		if c.limiter != nil {
			if werr := c.limiter.Wait(ctx); werr != nil {
				return nil, werr
			}
		}

		// Clone the request to allow retrying with a fresh body.
		reqClone := req.Clone(ctx)
		if bodyBytes != nil {
			reqClone.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		// Execute the HTTP request.
		resp, err = c.httpClient.Do(reqClone)
		if err != nil {
			// A cancelled scan is not retried.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Debug("Request to %s failed (attempt %d/%d): %v", req.URL, i+1, c.maxRetries+1, err)
			continue
		}

		// Condition 1: request successful (not 429 or 5xx).
		if resp.StatusCode != http.StatusTooManyRequests && (resp.StatusCode < 500 || resp.StatusCode > 599) {
			return resp, nil
		}
		if i == c.maxRetries {
			// Out of retries: hand the last response back so headers can still be inspected.
			return resp, nil
		}

		// Condition 2: 5xx or 429 with retries left. Close the body and try again,
		// waiting longer when rate limited.
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Warn("Rate limit detected (429 Too Many Requests). Waiting for %v before retrying...", c.rateLimitBackoff)
			if werr := sleep(ctx, c.rateLimitBackoff); werr != nil {
				return nil, werr
			}
		}
	}

	return nil, err // Every attempt failed at the transport level.
}

// Get performs an HTTP GET request bound to ctx.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// GetClient returns the underlying standard http.Client instance.
func (c *Client) GetClient() *http.Client {
	return c.httpClient
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
