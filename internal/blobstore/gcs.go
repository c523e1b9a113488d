package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// GCSStore writes objects into one bucket. Objects are expected to be publicly
// readable through bucket level IAM, so URLs are plain object URLs.
type GCSStore struct {
	Client        *storage.Client
	Bucket        string
	PublicBaseURL string
}

func NewGCSStore(client *storage.Client, bucket, publicBaseURL string) *GCSStore {
	if strings.TrimSpace(publicBaseURL) == "" {
		publicBaseURL = defaultPublicBaseURL
	}
	return &GCSStore{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (s *GCSStore) bucket() (*storage.BucketHandle, error) {
	if s == nil || s.Client == nil || s.Bucket == "" {
		return nil, ErrNotConfigured
	}
	return s.Client.Bucket(s.Bucket), nil
}

func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	bh, err := s.bucket()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(key) == "" {
		return "", errors.New("blobstore: key is empty")
	}

	w := bh.Object(key).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("blobstore: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("blobstore: close %s: %w", key, err)
	}
	return s.PublicBaseURL + "/" + s.Bucket + "/" + key, nil
}

// Delete removes every object behind urls. Missing objects are ignored; the
// first other failure stops the batch.
func (s *GCSStore) Delete(ctx context.Context, urls []string) error {
	bh, err := s.bucket()
	if err != nil {
		return err
	}
	for _, u := range urls {
		obj := objectPath(s.PublicBaseURL, s.Bucket, u)
		if obj == "" {
			continue
		}
		if err := bh.Object(obj).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("blobstore: delete %s: %w", obj, err)
		}
	}
	return nil
}
