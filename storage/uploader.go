package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// UploadResult describes a stored object. Location is empty when the bucket
// has no public base URL.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores generated standings exports in object storage.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	GetPublicURL(key string) string
}

// StandingsKey names a standings export. Exports of a single stage live under
// the stage's directory; every export gets its own timestamped object.
func StandingsKey(eventID uuid.UUID, stageID *uuid.UUID, at time.Time) string {
	stamp := at.UTC().Format("20060102T150405Z")
	if stageID != nil {
		return fmt.Sprintf("exports/%s/%s/standings-%s.csv", eventID, *stageID, stamp)
	}
	return fmt.Sprintf("exports/%s/standings-%s.csv", eventID, stamp)
}
