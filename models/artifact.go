package models

import (
	"fmt"

	"github.com/joshnies/survol/constants"
)

// Pipeline stage that produces one artifact.
type Stage string

const (
	StagePrelogin Stage = "prelogin"
	StageToken    Stage = "token"
	StageProfile  Stage = "profile"
	StageSync     Stage = "sync"
)

// Stages in the order they run.
var Stages = []Stage{StagePrelogin, StageToken, StageProfile, StageSync}

// Returns the artifact file name for the given account email.
func (s Stage) FileName(email string) string {
	return fmt.Sprintf(constants.ArtifactFilePattern, email, s)
}

// A response written to the output directory.
type Artifact struct {
	Stage Stage `json:"stage"`
	// Path to the written file.
	Path string `json:"path"`
	// File size in bytes.
	Size int64 `json:"size"`
	// Hex-encoded XXH64 digest of the file contents.
	Digest string `json:"digest"`
	// Remote object key, set once the artifact has been mirrored.
	RemoteKey string `json:"remote_key,omitempty"`
}
