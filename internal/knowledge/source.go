package knowledge

import (
	"context"
	"fmt"
	"os"

	"github.com/vantor-labs/repliq/internal/storage"
)

// Source supplies the raw bytes of a knowledge-base document
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}

// FileSource reads a knowledge-base document from the local filesystem
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads the file contents
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}
	return data, nil
}

// Name returns the file path
func (s *FileSource) Name() string {
	return s.path
}

// S3Source reads a knowledge-base document from S3-compatible storage
type S3Source struct {
	client *storage.S3Client
	key    string
}

// NewS3Source creates an S3Source for the given object key
func NewS3Source(client *storage.S3Client, key string) *S3Source {
	return &S3Source{client: client, key: key}
}

// Fetch downloads the object contents
func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	return s.client.Download(ctx, s.key)
}

// Name returns the object location
func (s *S3Source) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.client.Bucket(), s.key)
}
