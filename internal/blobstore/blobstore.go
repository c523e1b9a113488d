// Package blobstore stores uploaded cause images outside the database.
package blobstore

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("blobstore: not configured")

// Store is the object store contract. Put returns the public URL of the stored
// object; Delete takes URLs previously returned by Put.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, urls []string) error
}

const maxNameLength = 50

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Key builds "<folder>/<uuid>-<sanitized name><ext>" for an uploaded file.
func Key(folder, originalName string) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	name := strings.TrimSuffix(base, path.Ext(base))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "-"), "-")
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}

	file := uuid.NewString()
	if name != "" {
		file += "-" + name
	}
	return strings.Trim(folder, "/") + "/" + file + ext
}

// objectPath strips baseURL from a stored URL. URLs from another origin yield "".
func objectPath(baseURL, bucket, rawURL string) string {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if bucket != "" {
		prefix += bucket + "/"
	}
	if !strings.HasPrefix(rawURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(rawURL, prefix)
}
