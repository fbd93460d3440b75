package constants

import "time"

// Config
const VerboseEnvVar = "VERBOSE"
const DefaultTimeout = 30 * time.Second

// HTTP
const UserAgent = "survol/1.0"
const DeviceTypeHeader = "Device-Type"
const DeviceTypeHeaderValue = "21"
const ContentTypeJSON = "application/json"
const ContentTypeForm = "application/x-www-form-urlencoded; charset=utf-8"

// Endpoint paths, relative to the identity or API base URL
const PathPrelogin = "accounts/prelogin"
const PathToken = "connect/token"
const PathProfile = "accounts/profile"
const PathSync = "sync"

// File system
const ArtifactFilePattern = "bitwarden.%s.%s.json"
const ArtifactFileMode = 0600
const CompressedSuffix = ".zst"

// Error messages
const ErrMsgInternal = "An internal error occurred. If the issue persists, please open an issue."
const ErrMsgExportFailed = "Export failed"

// Formatting
const TimeFormat = "2006-01-02 @ 03:04:05pm"
