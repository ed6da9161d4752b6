package storage

import "context"

type Fetcher interface {
	Fetch(ctx context.Context, url, outputPath string) (string, error)
}

// Mirror copies a saved artifact somewhere durable and returns its remote
// location.
type Mirror interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
