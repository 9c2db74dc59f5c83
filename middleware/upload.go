package middleware

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const (
	uploadFileKey = "uploadFile"

	// room for the non-file form fields and multipart framing
	formOverhead = 1 << 20

	octetStream = "application/octet-stream"
)

// UploadedFile is a fully buffered multipart file.
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// TypeFilter decides whether a file is accepted given the MIME type the
// client declared and the one sniffed from its content.
type TypeFilter func(declared, sniffed string) bool

// VideoOnly accepts video/* files. Content that cannot be identified falls
// back to the declared type.
func VideoOnly(declared, sniffed string) bool {
	if !strings.HasPrefix(declared, "video/") {
		return false
	}
	return sniffed == octetStream || strings.HasPrefix(sniffed, "video/")
}

// SingleFile buffers the multipart file in field into memory before the
// handler runs, enforcing maxBytes and the optional filter. A missing file is
// not an error here; handlers decide whether the file is required.
func SingleFile(field string, maxBytes int64, filter TypeFilter, rejectMessage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+formOverhead)

		if err := c.Request.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "File too large"})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to parse form data"})
			return
		}

		header, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			c.Next()
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		if header.Size > maxBytes {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "File too large"})
			return
		}

		file, err := header.Open()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		if int64(len(data)) > maxBytes {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "File too large"})
			return
		}

		declared := header.Header.Get("Content-Type")
		sniffed := mimetype.Detect(data).String()
		// mimetype appends parameters such as "; charset=utf-8"
		if i := strings.Index(sniffed, ";"); i >= 0 {
			sniffed = sniffed[:i]
		}

		if filter != nil && !filter(declared, sniffed) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": rejectMessage})
			return
		}

		contentType := declared
		if contentType == "" || contentType == octetStream {
			contentType = sniffed
		}

		c.Set(uploadFileKey, &UploadedFile{
			Filename:    header.Filename,
			ContentType: contentType,
			Data:        data,
		})
		c.Next()
	}
}

// UploadedFileFrom returns the file buffered by SingleFile, if any.
func UploadedFileFrom(c *gin.Context) (*UploadedFile, bool) {
	v, ok := c.Get(uploadFileKey)
	if !ok {
		return nil, false
	}
	f, ok := v.(*UploadedFile)
	return f, ok
}
