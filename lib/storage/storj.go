package storage

import (
	"bytes"
	"context"
	"io"

	"github.com/joshnies/survol/config"
	"storj.io/uplink"
)

type storjMirror struct {
	project *uplink.Project
	bucket  string
}

func newStorjMirror(ctx context.Context, sc config.StorageConfig) (*storjMirror, error) {
	// Parse access grant string
	access, err := uplink.ParseAccess(sc.AccessGrant)
	if err != nil {
		return nil, err
	}

	// Open Storj project
	sp, err := uplink.OpenProject(ctx, access)
	if err != nil {
		return nil, err
	}

	if _, err = sp.EnsureBucket(ctx, sc.Bucket); err != nil {
		sp.Close()
		return nil, err
	}

	return &storjMirror{project: sp, bucket: sc.Bucket}, nil
}

func (m *storjMirror) Upload(ctx context.Context, key string, body []byte, metadata map[string]string) error {
	// Start upload
	upload, err := m.project.UploadObject(ctx, m.bucket, key, nil)
	if err != nil {
		return err
	}

	// Copy file data to upload buffer
	_, err = io.Copy(upload, bytes.NewReader(body))
	if err != nil {
		_ = upload.Abort()
		return err
	}

	meta := uplink.CustomMetadata{"content-type": contentType(key)}
	for k, v := range metadata {
		meta[k] = v
	}
	if err = upload.SetCustomMetadata(ctx, meta); err != nil {
		_ = upload.Abort()
		return err
	}

	// Commit upload
	return upload.Commit()
}

func (m *storjMirror) Close() error {
	return m.project.Close()
}
