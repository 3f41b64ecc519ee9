package port

import "context"

// FileFetcher abstracts the object storage holding uploaded files.
// A non-success fetch is a hard failure for that file's ingestion.
type FileFetcher interface {
	// Fetch returns the raw bytes stored under objectKey.
	Fetch(ctx context.Context, objectKey string) ([]byte, error)
}
