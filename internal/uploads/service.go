package uploads

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// MaxFileSize caps attachment uploads at 50 MB.
const MaxFileSize = 50 << 20

// UploadService stores attachment binaries behind a StorageDriver and hands
// back the metadata the workflow core records on a step.
type UploadService struct {
	Driver StorageDriver
}

func NewUploadService(driver StorageDriver) *UploadService {
	return &UploadService{Driver: driver}
}

// Store saves the file under a fresh key and returns its metadata. An upload
// whose URL cannot be generated is rolled back so no orphaned binary stays
// behind.
func (s *UploadService) Store(ctx context.Context, filename string, reader io.Reader, size int64, mime string) (*StoredFile, error) {
	if size > MaxFileSize {
		return nil, fmt.Errorf("file exceeds the %d byte limit", MaxFileSize)
	}
	if mime == "" {
		mime = "application/octet-stream"
	}

	id := uuid.New()
	key := id.String() + filepath.Ext(filename)

	if err := s.Driver.Save(ctx, key, reader, mime); err != nil {
		return nil, fmt.Errorf("storage driver failed: %w", err)
	}

	url, err := s.Driver.GenerateURL(ctx, key, 0)
	if err != nil {
		if delErr := s.Driver.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to cleanup orphaned file", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to generate URL: %w", err)
	}

	stored := &StoredFile{
		ID:         id,
		Name:       filename,
		Key:        key,
		URL:        url,
		Size:       size,
		MimeType:   mime,
		UploadedAt: time.Now().UTC(),
	}

	slog.InfoContext(ctx, "file stored", "id", id, "key", key, "size", size)
	return stored, nil
}

// Fetch streams a stored file back with its MIME type.
func (s *UploadService) Fetch(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.Driver.Get(ctx, key)
}

// Discard removes a stored binary whose metadata was never recorded.
func (s *UploadService) Discard(ctx context.Context, key string) {
	if err := s.Driver.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to discard stored file", "key", key, "error", err)
	}
}
