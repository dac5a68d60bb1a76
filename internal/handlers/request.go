package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lost-and-found-api/internal/dto"
	"github.com/yukikurage/lost-and-found-api/internal/services"
)

// ImageURLResolver turns stored image references into absolute URLs.
type ImageURLResolver interface {
	Resolve(ref *string, requestBase string) *string
}

// resolverFor binds r to the scheme and host of the current request.
func resolverFor(c *gin.Context, r ImageURLResolver) dto.ImageResolver {
	base := requestBase(c)
	return func(ref *string) *string {
		return r.Resolve(ref, base)
	}
}

func requestBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

func parseItemID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// optionalForm returns a pointer to the form value when the field was sent.
func optionalForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok {
		return &v
	}
	return nil
}

// imageUpload opens the "image" part of a multipart request. The returned
// closer must be called once the upload has been consumed.
func imageUpload(c *gin.Context) (*services.FileUpload, func(), error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, fmt.Errorf("reading image: %w", err)
	}
	if fh.Filename == "" {
		return nil, func() {}, nil
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*services.FileUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("opening image: %w", err)
	}
	return &services.FileUpload{Filename: fh.Filename, Content: f}, func() { f.Close() }, nil
}
