package youtrack

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP exchange when no client is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept in APIError.
const maxErrorBody = 4096

// HTTPRequester implements Requester and ContentFetcher over net/http
// against a YouTrack REST root such as https://tracker.example.com/rest.
type HTTPRequester struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPOption configures an HTTPRequester
type HTTPOption func(*HTTPRequester)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(r *HTTPRequester) {
		r.httpClient = client
	}
}

// WithToken sets the permanent token sent as a bearer credential
func WithToken(token string) HTTPOption {
	return func(r *HTTPRequester) {
		r.token = token
	}
}

// WithRequestLogger sets the logger used for request tracing
func WithRequestLogger(logger *slog.Logger) HTTPOption {
	return func(r *HTTPRequester) {
		r.logger = logger
	}
}

// NewHTTPRequester creates a new HTTPRequester
func NewHTTPRequester(baseURL string, opts ...HTTPOption) (*HTTPRequester, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	r := &HTTPRequester{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Request sends method to baseURL+path. A non-empty filePath is sent as a
// multipart form with a single file part.
func (r *HTTPRequester) Request(ctx context.Context, method, path, filePath string) (*Response, error) {
	fullURL := r.baseURL + path

	var (
		body        io.Reader
		contentType string
	)
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFileNotReadable, filePath)
		}
		defer f.Close()

		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)
		go func() {
			pw.CloseWithError(writeFilePart(mw, filepath.Base(filePath), f))
		}()
		body = pr
		contentType = mw.FormDataContentType()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/xml")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	r.authorize(req)

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}

	r.logger.Debug("youtrack request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, NewAPIError(method, path, resp.StatusCode, truncate(string(data), maxErrorBody))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Fetch downloads contentURL. Relative URLs are resolved against the host
// of the base URL; the token is only sent to that host.
func (r *HTTPRequester) Fetch(ctx context.Context, contentURL string) (io.ReadCloser, error) {
	target, err := r.resolve(contentURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	if r.sameHost(target) {
		r.authorize(req)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", target.Redacted(), err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, NewAPIError(http.MethodGet, target.Redacted(), resp.StatusCode, string(data))
	}

	return resp.Body, nil
}

func (r *HTTPRequester) authorize(req *http.Request) {
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
}

func (r *HTTPRequester) resolve(contentURL string) (*url.URL, error) {
	base, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(contentURL)
	if err != nil {
		return nil, fmt.Errorf("invalid attachment URL %q: %w", contentURL, err)
	}
	return base.ResolveReference(ref), nil
}

func (r *HTTPRequester) sameHost(target *url.URL) bool {
	base, err := url.Parse(r.baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(base.Host, target.Host)
}

func writeFilePart(mw *multipart.Writer, filename string, content io.Reader) error {
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return mw.Close()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
