package youtrack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/welldanyogia/youtrack-attach/internal/storage"
)

// Response is the raw answer of a Requester. Connection hands it back to
// callers unparsed.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Requester performs one call against the tracker's REST root. path is
// relative to that root and already carries its query string. filePath,
// when non-empty, names a local file to send as the request body.
type Requester interface {
	Request(ctx context.Context, method, path, filePath string) (*Response, error)
}

// ContentFetcher downloads attachment content from an absolute URL.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Staging holds downloaded content on local disk until it is re-uploaded.
type Staging interface {
	Save(filename string, content io.Reader) (string, error)
	Resolve(filePath string) (string, error)
	Delete(filePath string) error
}

// CreateAttachmentParams carries the optional metadata of a new attachment.
// Empty strings and a zero Created are left out of the request.
type CreateAttachmentParams struct {
	Name        string
	AuthorLogin string
	Created     time.Time
	Group       string
}

// Connection issues attachment calls through an injected Requester.
type Connection struct {
	requester Requester
	fetcher   ContentFetcher
	staging   Staging
	logger    *slog.Logger
}

// Option configures a Connection
type Option func(*Connection)

// WithLogger sets the logger used for request tracing
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithFetcher sets the downloader used by CreateAttachmentFromAttachment
func WithFetcher(fetcher ContentFetcher) Option {
	return func(c *Connection) {
		c.fetcher = fetcher
	}
}

// WithStaging sets where downloaded content is kept before re-upload
func WithStaging(staging Staging) Option {
	return func(c *Connection) {
		c.staging = staging
	}
}

// NewConnection creates a new Connection. When the requester also implements
// ContentFetcher it is used for downloads unless WithFetcher overrides it.
func NewConnection(requester Requester, opts ...Option) *Connection {
	c := &Connection{
		requester: requester,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if fetcher, ok := requester.(ContentFetcher); ok {
		c.fetcher = fetcher
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAttachment uploads the file at filePath to the issue. The file must
// exist and be readable; otherwise no request is made.
func (c *Connection) CreateAttachment(ctx context.Context, issueID, filePath string, params CreateAttachmentParams) (*Response, error) {
	if err := checkReadable(filePath); err != nil {
		return nil, err
	}

	path := attachmentPath(issueID) + params.queryString()

	c.logger.Debug("creating attachment",
		slog.String("issue_id", issueID),
		slog.String("file", filepath.Base(filePath)),
	)

	return c.requester.Request(ctx, http.MethodPost, path, filePath)
}

// CreateAttachmentFromAttachment downloads an existing attachment and uploads
// it to issueID with the same name, author, creation time and group.
func (c *Connection) CreateAttachmentFromAttachment(ctx context.Context, issueID string, attachment Attachment) (*Response, error) {
	if attachment.URL() == "" {
		return nil, fmt.Errorf("%w: attachment %q has no url", ErrInvalidAttachment, attachment.ID())
	}

	content, err := c.GetAttachmentContent(ctx, attachment.URL())
	if err != nil {
		return nil, err
	}
	defer content.Close()

	staging, err := c.stagingArea()
	if err != nil {
		return nil, err
	}

	stored, err := staging.Save(attachment.Name(), content)
	if err != nil {
		return nil, fmt.Errorf("failed to stage attachment %s: %w", attachment.ID(), err)
	}
	defer func() {
		if delErr := staging.Delete(stored); delErr != nil {
			c.logger.Warn("failed to remove staged attachment",
				slog.String("path", stored),
				slog.String("error", delErr.Error()),
			)
		}
	}()

	fullPath, err := staging.Resolve(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to stage attachment %s: %w", attachment.ID(), err)
	}

	params := CreateAttachmentParams{
		Name:        attachment.Name(),
		AuthorLogin: attachment.AuthorLogin(),
		Group:       attachment.Group(),
	}
	if created, ok := attachment.Created(); ok {
		params.Created = created
	}

	return c.CreateAttachment(ctx, issueID, fullPath, params)
}

// GetAttachments lists the attachments of an issue
func (c *Connection) GetAttachments(ctx context.Context, issueID string) ([]Attachment, error) {
	resp, err := c.requester.Request(ctx, http.MethodGet, attachmentPath(issueID), "")
	if err != nil {
		return nil, err
	}

	attachments, err := ParseAttachments(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse attachments of %s: %w", issueID, err)
	}
	return attachments, nil
}

// DeleteAttachment removes one attachment from an issue
func (c *Connection) DeleteAttachment(ctx context.Context, issueID, attachmentID string) (*Response, error) {
	path := attachmentPath(issueID) + "/" + rawURLEncode(attachmentID)
	return c.requester.Request(ctx, http.MethodDelete, path, "")
}

// GetAttachmentContent opens the content behind an attachment URL. The
// caller closes the returned reader.
func (c *Connection) GetAttachmentContent(ctx context.Context, contentURL string) (io.ReadCloser, error) {
	if c.fetcher == nil {
		return nil, ErrNoContentFetcher
	}
	return c.fetcher.Fetch(ctx, contentURL)
}

func (c *Connection) stagingArea() (Staging, error) {
	if c.staging != nil {
		return c.staging, nil
	}
	fs, err := storage.NewLocalStorage(filepath.Join(os.TempDir(), "youtrack-staging"))
	if err != nil {
		return nil, err
	}
	c.staging = fs
	return fs, nil
}

// queryString renders the supplied parameters in the fixed order
// name, authorLogin, created, group. It returns "" when none is set.
func (p CreateAttachmentParams) queryString() string {
	var pairs []string
	add := func(key, value string) {
		if value == "" {
			return
		}
		pairs = append(pairs, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}

	add("name", p.Name)
	add("authorLogin", p.AuthorLogin)
	if !p.Created.IsZero() {
		add("created", strconv.FormatInt(p.Created.Unix()*1000, 10))
	}
	add("group", p.Group)

	if len(pairs) == 0 {
		return ""
	}
	return "?" + strings.Join(pairs, "&")
}

func attachmentPath(issueID string) string {
	return "/issue/" + rawURLEncode(issueID) + "/attachment"
}

// rawURLEncode escapes everything except ALPHA, DIGIT and "-_.~", with
// spaces as %20.
func rawURLEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func checkReadable(filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotReadable, filePath)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrFileNotReadable, filePath)
	}
	return nil
}
