// Package blobstore stores uploaded product images, spec sheets and brand
// logos in an external media host.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// ResourceType distinguishes how the media host treats an object.
type ResourceType string

const (
	ResourceImage ResourceType = "image"
	ResourceRaw   ResourceType = "raw"
	ResourceAuto  ResourceType = "auto"
)

// ParseResourceType maps a query value onto a resource type. Unknown values
// fall back to image.
func ParseResourceType(s string) ResourceType {
	switch ResourceType(strings.ToLower(strings.TrimSpace(s))) {
	case ResourceRaw:
		return ResourceRaw
	case ResourceAuto:
		return ResourceAuto
	default:
		return ResourceImage
	}
}

// Folders used by the catalog.
const (
	FolderProductImages = "Product Images"
	FolderSpecSheets    = "Spec Sheets"
	FolderBrandImages   = "Brand Images"
)

// ErrInvalidURL is returned when a URL does not point into the store.
var ErrInvalidURL = errors.New("url does not reference a stored object")

// UploadInput describes one object to store.
type UploadInput struct {
	Folder       string
	PublicID     string
	ResourceType ResourceType
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Object is a stored object.
type Object struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Store is the media host.
type Store interface {
	Upload(ctx context.Context, in UploadInput) (*Object, error)
	// Delete removes an object. It returns false when nothing was deleted.
	Delete(ctx context.Context, publicID string, resourceType ResourceType) (bool, error)
	// PublicIDFromURL derives the object id from a URL returned by Upload.
	PublicIDFromURL(url string) (string, error)
}

// SanitizeName replaces every rune that is not an ASCII letter or digit with
// an underscore.
func SanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// NewPublicID builds "<name>_<unix millis>" from sanitised parts. Empty
// parts are skipped.
func NewPublicID(now time.Time, parts ...string) string {
	var segs []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, SanitizeName(p))
		}
	}
	segs = append(segs, fmt.Sprintf("%d", now.UnixMilli()))
	return strings.Join(segs, "_")
}

// BaseName returns the file name without directory and extension.
func BaseName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
