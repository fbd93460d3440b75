package constants

import "time"

// Storage providers
const StorageProviderS3 = "s3"
const StorageProviderStorj = "storj"

// Default region for S3-compatible stores that ignore it (Filebase, MinIO)
const DefaultS3Region = "us-east-1"

// Object metadata key holding the XXH64 digest of the uncompressed artifact
const DigestMetadataKey = "xxh64"

// Upload pacing for remote storage
const UploadInterval = time.Second / 90
