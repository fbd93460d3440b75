package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshnies/survol/constants"
)

// Remote storage for a copy of each exported snapshot.
type StorageConfig struct {
	// Storage provider, either `s3` or `storj`.
	Provider string `yaml:"provider"`
	// Bucket name.
	Bucket string `yaml:"bucket"`
	// Key prefix for uploaded objects.
	Prefix string `yaml:"prefix,omitempty"`
	// Whether or not to zstd-compress artifacts before uploading.
	Compress bool `yaml:"compress,omitempty"`
	// Custom S3 endpoint, for S3-compatible stores.
	Endpoint string `yaml:"endpoint,omitempty"`
	// S3 region. Defaults to `us-east-1` when a custom endpoint is set.
	Region string `yaml:"region,omitempty"`
	// Serialized Storj access grant.
	AccessGrant string `yaml:"access_grant,omitempty"`
}

// Validate storage config.
func (s StorageConfig) Validate() error {
	switch strings.ToLower(s.Provider) {
	case constants.StorageProviderS3:
	case constants.StorageProviderStorj:
		if s.AccessGrant == "" {
			return errors.New("\"storage.access_grant\" must be specified for storj")
		}
	case "":
		return errors.New("\"storage.provider\" must be specified")
	default:
		return fmt.Errorf("unknown storage provider %q", s.Provider)
	}

	if s.Bucket == "" {
		return errors.New("\"storage.bucket\" must be specified")
	}

	return nil
}
