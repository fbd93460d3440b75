package artifacts

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/joshnies/survol/constants"
	"github.com/joshnies/survol/lib/errs"
	"github.com/joshnies/survol/models"
	"github.com/lucsky/cuid"
)

// Pretty-print a JSON document with two-space indentation.
func Format(raw json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, errs.Wrap(errs.KindDecode, err)
	}
	return buf.Bytes(), nil
}

// Get hex-encoded XXH64 digest of data.
func Digest(data []byte) string {
	hash := xxhash.New()
	_, _ = hash.Write(data)
	return hex.EncodeToString(hash.Sum(nil))
}

// Write a stage's response to `<dir>/bitwarden.<email>.<stage>.json`.
// Existing files are replaced atomically; the directory must already exist.
//
// Returns the written artifact.
func Write(dir string, email string, stage models.Stage, raw json.RawMessage) (models.Artifact, error) {
	data, err := Format(raw)
	if err != nil {
		return models.Artifact{}, err
	}

	path := filepath.Join(dir, stage.FileName(email))
	if err := writeFileAtomic(path, data); err != nil {
		return models.Artifact{}, errs.Wrap(errs.KindFileWrite, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return models.Artifact{
		Stage:  stage,
		Path:   abs,
		Size:   int64(len(data)),
		Digest: Digest(data),
	}, nil
}

// Write data to a temp file next to path, then rename it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), cuid.New()))

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.ArtifactFileMode)
	if err != nil {
		return err
	}

	if _, err = f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if err = f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if err = f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err = os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}
