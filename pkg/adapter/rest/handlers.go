package rest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"sort"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/marmos91/storfiler/pkg/gateway"
)

// sniffLen is how much of a download is peeked when the extension does not
// map to a content type.
const sniffLen = 3072

// ============================================================================
// Read Handlers
// ============================================================================

func (a *RESTAdapter) handleList(rt route) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := a.requestContext(c)
		defer cancel()

		entries, err := a.dispatcher.List(ctx, rt.resource, rt.method)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(entries))
	}
}

func (a *RESTAdapter) handleSearch(rt route) gin.HandlerFunc {
	return func(c *gin.Context) {
		term, ok := argument(c, rt, "name")
		if !ok {
			writeError(c, fmt.Errorf("search term is required: %w", gateway.ErrInvalidInput))
			return
		}

		ctx, cancel := a.requestContext(c)
		defer cancel()

		entries, err := a.dispatcher.Search(ctx, rt.resource, rt.method, term)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(entries))
	}
}

func (a *RESTAdapter) handleDownload(rt route) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := argument(c, rt, "path")
		if !ok {
			writeError(c, fmt.Errorf("file path is required: %w", gateway.ErrInvalidInput))
			return
		}

		ctx, cancel := a.requestContext(c)
		defer cancel()

		dl, err := a.dispatcher.Download(ctx, rt.resource, rt.method, p)
		if err != nil {
			writeError(c, err)
			return
		}
		defer func() { _ = dl.Body.Close() }()

		body := bufio.NewReaderSize(dl.Body, sniffLen)
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name})

		c.DataFromReader(http.StatusOK, -1, contentType(dl.Name, body), body, map[string]string{
			"Content-Disposition": disposition,
		})
	}
}

// contentType picks a type from the file extension, falling back to
// sniffing the first bytes of body without consuming them.
func contentType(name string, body *bufio.Reader) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	head, _ := body.Peek(sniffLen)
	return mimetype.Detect(head).String()
}

// ============================================================================
// Write Handlers
// ============================================================================

func (a *RESTAdapter) handleAdd(rt route) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != "multipart/form-data" {
			writeError(c, fmt.Errorf("expected multipart/form-data, got %q: %w",
				c.ContentType(), gateway.ErrUnsupportedPayload))
			return
		}

		if c.Request.ContentLength > a.config.MaxUploadBytes {
			writeError(c, fmt.Errorf("upload of %d bytes exceeds %d: %w",
				c.Request.ContentLength, a.config.MaxUploadBytes, gateway.ErrPayloadTooLarge))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.config.MaxUploadBytes)
		form, err := c.MultipartForm()
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(c, fmt.Errorf("upload exceeds %d bytes: %w", tooLarge.Limit, gateway.ErrPayloadTooLarge))
				return
			}
			writeError(c, fmt.Errorf("malformed multipart form: %v: %w", err, gateway.ErrInvalidInput))
			return
		}
		defer func() { _ = form.RemoveAll() }()

		// The folder argument is optional; absent means the endpoint root.
		subPath, _ := argument(c, rt, "folder")

		ctx, cancel := a.requestContext(c)
		defer cancel()

		report, err := a.dispatcher.Add(ctx, rt.resource, rt.method, uploadsOf(form.File), subPath)
		if err != nil {
			writeError(c, err)
			return
		}

		status := http.StatusOK
		switch {
		case report.AllFailed():
			status = http.StatusBadGateway
		case report.Partial():
			status = http.StatusMultiStatus
		}
		c.JSON(status, report)
	}
}

// uploadsOf flattens form files in field-name order, keeping the order of
// files within a field.
func uploadsOf(files map[string][]*multipart.FileHeader) []gateway.Upload {
	fields := make([]string, 0, len(files))
	for field := range files {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var uploads []gateway.Upload
	for _, field := range fields {
		for _, fh := range files[field] {
			fh := fh
			uploads = append(uploads, gateway.Upload{
				Name: fh.Filename,
				Size: fh.Size,
				Open: func() (io.ReadSeekCloser, error) { return fh.Open() },
			})
		}
	}
	return uploads
}

func (a *RESTAdapter) handleRemove(rt route) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := argument(c, rt, "path")
		if !ok {
			writeError(c, fmt.Errorf("file path is required: %w", gateway.ErrInvalidInput))
			return
		}

		ctx, cancel := a.requestContext(c)
		defer cancel()

		found, err := a.dispatcher.Remove(ctx, rt.resource, rt.method, p)
		if err != nil {
			writeError(c, err)
			return
		}

		status := http.StatusOK
		if !found {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"found": found})
	}
}

// ============================================================================
// Helpers
// ============================================================================

// argument finds the path (or search term) of a request.
//
// With a configured query name, the query parameter wins and the route
// parameter of the same name is the fallback. Without one, the fallback
// query parameter is tried, then the catch-all route parameter.
func argument(c *gin.Context, rt route, fallback string) (string, bool) {
	if name := rt.method.Query; name != "" {
		if v := c.Query(name); v != "" {
			return v, true
		}
		if v := c.Param(name); v != "" && v != "/" {
			return v, true
		}
		return "", false
	}

	if v := c.Query(fallback); v != "" {
		return v, true
	}
	if rt.catchAll != "" {
		if v := c.Param(rt.catchAll); v != "" && v != "/" {
			return v, true
		}
	}
	return "", false
}

func (a *RESTAdapter) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), a.config.RequestTimeout)
}

func nonNil(entries []gateway.FileEntry) []gateway.FileEntry {
	if entries == nil {
		return []gateway.FileEntry{}
	}
	return entries
}
