package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/joshnies/survol/config"
	"github.com/joshnies/survol/constants"
	"github.com/joshnies/survol/lib/console"
	"github.com/joshnies/survol/lib/errs"
	"github.com/joshnies/survol/models"
	"golang.org/x/time/rate"
)

// Remote object store that receives a copy of each snapshot.
type Mirror interface {
	// Upload a single object.
	Upload(ctx context.Context, key string, body []byte, metadata map[string]string) error
	// Release any open connections.
	Close() error
}

// Open a mirror for the configured storage provider.
func NewMirror(ctx context.Context, sc config.StorageConfig) (Mirror, error) {
	switch strings.ToLower(sc.Provider) {
	case constants.StorageProviderS3:
		return newS3Mirror(ctx, sc)
	case constants.StorageProviderStorj:
		return newStorjMirror(ctx, sc)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", sc.Provider)
	}
}

// Build the object key for an artifact of the given run.
//
// Format: `<prefix>/<email>/<run id>/<file name>[.zst]`
func ObjectKey(sc config.StorageConfig, email string, runID string, artifact models.Artifact) string {
	name := filepath.Base(artifact.Path)
	if sc.Compress {
		name += constants.CompressedSuffix
	}

	parts := []string{}
	if prefix := strings.Trim(sc.Prefix, "/"); prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, email, runID, name)

	return path.Join(parts...)
}

// Uploads artifacts to a mirror, one at a time.
type Uploader struct {
	Mirror  Mirror
	Config  config.StorageConfig
	Limiter *rate.Limiter
}

// Create an uploader paced for remote storage rate limits.
func NewUploader(m Mirror, sc config.StorageConfig) *Uploader {
	return &Uploader{
		Mirror:  m,
		Config:  sc,
		Limiter: rate.NewLimiter(rate.Every(constants.UploadInterval), 1),
	}
}

// Upload artifacts, reading each one back from disk.
//
// Returns the artifacts with their remote keys set.
func (u *Uploader) UploadAll(ctx context.Context, email string, runID string, artifacts []models.Artifact) ([]models.Artifact, error) {
	uploaded := make([]models.Artifact, 0, len(artifacts))

	for _, a := range artifacts {
		if err := u.Limiter.Wait(ctx); err != nil {
			return uploaded, errs.Wrap(errs.KindMirror, err)
		}

		data, err := os.ReadFile(a.Path)
		if err != nil {
			return uploaded, errs.Wrap(errs.KindMirror, err)
		}

		if u.Config.Compress {
			data, err = CompressBytes(data)
			if err != nil {
				return uploaded, errs.Wrap(errs.KindMirror, err)
			}
		}

		key := ObjectKey(u.Config, email, runID, a)
		console.Verbose("Uploading %s (%d bytes)", key, len(data))

		metadata := map[string]string{constants.DigestMetadataKey: a.Digest}
		if err = u.Mirror.Upload(ctx, key, data, metadata); err != nil {
			return uploaded, errs.Wrap(errs.KindMirror, fmt.Errorf("failed to upload %s: %w", key, err))
		}

		a.RemoteKey = key
		uploaded = append(uploaded, a)
	}

	return uploaded, nil
}
