package uploads

import (
	"time"

	"github.com/google/uuid"
)

// StoredFile is the metadata of a file persisted through a storage driver.
// Step attachments are built from it.
type StoredFile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
