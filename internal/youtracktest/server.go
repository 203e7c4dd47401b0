// Package youtracktest provides an in-process fake of the YouTrack attachment
// REST endpoints for tests.
package youtracktest

import (
	"crypto/subtle"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
)

// StoredAttachment is an attachment held by the fake server
type StoredAttachment struct {
	ID          string
	Name        string
	AuthorLogin string
	Group       string
	Created     int64
	Content     []byte
}

// Upload captures one POST to the attachment endpoint
type Upload struct {
	IssueID  string
	Query    url.Values
	Filename string
	Content  []byte
}

type fileURL struct {
	XMLName     xml.Name `xml:"fileUrl"`
	URL         string   `xml:"url,attr"`
	ID          string   `xml:"id,attr"`
	Name        string   `xml:"name,attr"`
	AuthorLogin string   `xml:"authorLogin,attr,omitempty"`
	Group       string   `xml:"group,attr,omitempty"`
	Created     int64    `xml:"created,attr,omitempty"`
}

type fileURLs struct {
	XMLName xml.Name  `xml:"fileUrls"`
	Files   []fileURL `xml:"fileUrl"`
}

// Server is a fake tracker. The REST root is URL()+"/rest".
type Server struct {
	httpServer *httptest.Server
	token      string

	mu          sync.Mutex
	attachments map[string][]StoredAttachment
	uploads     []Upload
	nextID      int
}

// NewServer starts a fake tracker. A non-empty token is required as a
// bearer credential on every request.
func NewServer(token string) *Server {
	s := &Server{
		token:       token,
		attachments: make(map[string][]StoredAttachment),
		nextID:      100,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.bearerAuth)

	rest := e.Group("/rest")
	rest.GET("/issue/:issue/attachment", s.listAttachments)
	rest.POST("/issue/:issue/attachment", s.createAttachment)
	rest.DELETE("/issue/:issue/attachment/:id", s.deleteAttachment)
	e.GET("/_persistent/:id", s.download)

	s.httpServer = httptest.NewServer(e)
	return s
}

// URL returns the server root
func (s *Server) URL() string {
	return s.httpServer.URL
}

// RestURL returns the REST root to configure clients with
func (s *Server) RestURL() string {
	return s.httpServer.URL + "/rest"
}

// Close shuts the server down
func (s *Server) Close() {
	s.httpServer.Close()
}

// AddAttachment stores an attachment on an issue and returns it with its id
func (s *Server) AddAttachment(issueID string, a StoredAttachment) StoredAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = s.newID()
	}
	s.attachments[issueID] = append(s.attachments[issueID], a)
	return a
}

// Attachments returns a copy of the attachments of an issue
func (s *Server) Attachments(issueID string) []StoredAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]StoredAttachment(nil), s.attachments[issueID]...)
}

// Uploads returns every upload received so far
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Upload(nil), s.uploads...)
}

func (s *Server) newID() string {
	s.nextID++
	return fmt.Sprintf("62-%d", s.nextID)
}

func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.token == "" {
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if authHeader == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) != 1 {
			return c.XML(http.StatusUnauthorized, struct {
				XMLName xml.Name `xml:"error"`
				Message string   `xml:",chardata"`
			}{Message: "Unauthorized"})
		}

		return next(c)
	}
}

func (s *Server) toFileURL(a StoredAttachment) fileURL {
	return fileURL{
		URL:         s.httpServer.URL + "/_persistent/" + a.ID,
		ID:          a.ID,
		Name:        a.Name,
		AuthorLogin: a.AuthorLogin,
		Group:       a.Group,
		Created:     a.Created,
	}
}

func (s *Server) listAttachments(c echo.Context) error {
	issueID := c.Param("issue")

	s.mu.Lock()
	stored := s.attachments[issueID]
	list := fileURLs{Files: make([]fileURL, 0, len(stored))}
	for _, a := range stored {
		list.Files = append(list.Files, s.toFileURL(a))
	}
	s.mu.Unlock()

	return c.XML(http.StatusOK, list)
}

func (s *Server) createAttachment(c echo.Context) error {
	issueID := c.Param("issue")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file part")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file part")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file part")
	}

	query := c.QueryParams()
	a := StoredAttachment{
		Name:        query.Get("name"),
		AuthorLogin: query.Get("authorLogin"),
		Group:       query.Get("group"),
		Content:     content,
	}
	if a.Name == "" {
		a.Name = fileHeader.Filename
	}
	if created := query.Get("created"); created != "" {
		millis, err := strconv.ParseInt(created, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "created must be epoch milliseconds")
		}
		a.Created = millis
	}

	s.mu.Lock()
	a.ID = s.newID()
	s.attachments[issueID] = append(s.attachments[issueID], a)
	s.uploads = append(s.uploads, Upload{
		IssueID:  issueID,
		Query:    query,
		Filename: fileHeader.Filename,
		Content:  content,
	})
	s.mu.Unlock()

	return c.XML(http.StatusCreated, s.toFileURL(a))
}

func (s *Server) deleteAttachment(c echo.Context) error {
	issueID := c.Param("issue")
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.attachments[issueID]
	for i, a := range stored {
		if a.ID == id {
			s.attachments[issueID] = append(stored[:i:i], stored[i+1:]...)
			return c.NoContent(http.StatusOK)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "attachment not found")
}

func (s *Server) download(c echo.Context) error {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stored := range s.attachments {
		for _, a := range stored {
			if a.ID == id {
				return c.Blob(http.StatusOK, echo.MIMEOctetStream, a.Content)
			}
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "file not found")
}
