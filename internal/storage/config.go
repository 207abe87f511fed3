package storage

import (
	"context"
	"fmt"

	"propdesk-backend/internal/config"
)

// New builds the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (StorageInterface, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.UploadDir)
	case "gcs":
		return NewGCSStorage(ctx, cfg.Bucket, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
