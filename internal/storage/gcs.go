package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps objects in a Google Cloud Storage bucket. The bucket must
// allow public reads for the returned URLs to resolve.
type GCSStore struct {
	client *gcs.Client
	bucket *gcs.BucketHandle
	name   string
}

// NewGCSStore connects to the bucket. credentialsFile may be empty to use
// application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket not set")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: failed in creating storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: client.Bucket(bucket), name: bucket}, nil
}

// Put uploads the object.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: failed to write object %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// Delete removes the object.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("gcs: failed to delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the public HTTPS URL of an object.
func (s *GCSStore) PublicURL(key string) string {
	return "https://storage.googleapis.com/" + s.name + "/" + (&url.URL{Path: key}).EscapedPath()
}

// Close closes the GCS client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
