package export

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/joshnies/survol/config"
	"github.com/joshnies/survol/constants"
	"github.com/joshnies/survol/lib/artifacts"
	"github.com/joshnies/survol/lib/auth"
	"github.com/joshnies/survol/lib/console"
	"github.com/joshnies/survol/lib/errs"
	"github.com/joshnies/survol/lib/httpw"
	"github.com/joshnies/survol/lib/storage"
	"github.com/joshnies/survol/lib/vault"
	"github.com/joshnies/survol/models"
	"github.com/lucsky/cuid"
)

// Stage name for the remote storage upload.
const StageMirror = "mirror"

// Outcome of a successful run.
type Result struct {
	// Unique ID of this run, used in remote object keys.
	RunID string
	// Written artifacts, in stage order.
	Artifacts []models.Artifact
	// Whether or not the artifacts were uploaded to remote storage.
	Mirrored bool
}

// Runs the export pipeline for one account.
type Exporter struct {
	Config  config.Config
	Options config.Options
	Client  *httpw.Client
	// Opens the remote storage mirror. Defaults to storage.NewMirror.
	NewMirror func(ctx context.Context, sc config.StorageConfig) (storage.Mirror, error)
	// Called after each stage completes.
	OnStage func(stage string)
}

// Create an exporter with a client bounded by the configured timeout.
func New(cfg config.Config, opts config.Options) *Exporter {
	return &Exporter{
		Config:    cfg,
		Options:   opts,
		Client:    httpw.NewClient(opts.Timeout),
		NewMirror: storage.NewMirror,
	}
}

// Run the export pipeline with default settings.
func Run(ctx context.Context, cfg config.Config, opts config.Options) (Result, error) {
	return New(cfg, opts).Run(ctx)
}

// Returns the stage names a run goes through, in order.
func (e *Exporter) Stages() []string {
	stages := []string{}
	for _, s := range models.Stages {
		stages = append(stages, string(s))
	}
	if e.mirrorEnabled() {
		stages = append(stages, StageMirror)
	}
	return stages
}

func (e *Exporter) mirrorEnabled() bool {
	return e.Config.Storage != nil && !e.Options.NoMirror
}

// Run all stages in order. The first failure aborts the run.
// Artifacts written before the failure stay on disk.
func (e *Exporter) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: cuid.New()}

	// Prelogin
	raw, err := auth.Prelogin(ctx, e.Client, e.Config)
	if err := e.persist(&res, models.StagePrelogin, raw, err); err != nil {
		return res, err
	}

	// Token
	raw, err = auth.RequestToken(ctx, e.Client, e.Config)
	if err := e.persist(&res, models.StageToken, raw, err); err != nil {
		return res, err
	}

	token, err := auth.ParseAccessTokenResponse(raw)
	if err != nil {
		return res, errs.WithStage(string(models.StageToken), err)
	}
	e.describeToken(token.AccessToken)

	// Profile
	raw, err = vault.FetchProfile(ctx, e.Client, e.Config, token.AccessToken)
	if err := e.persist(&res, models.StageProfile, raw, err); err != nil {
		return res, err
	}

	// Sync
	raw, err = vault.FetchSync(ctx, e.Client, e.Config, token.AccessToken)
	if err := e.persist(&res, models.StageSync, raw, err); err != nil {
		return res, err
	}

	if !e.mirrorEnabled() {
		return res, nil
	}

	// Mirror
	uploaded, err := e.mirror(ctx, res)
	if err != nil {
		return res, errs.WithStage(StageMirror, err)
	}
	res.Artifacts = uploaded
	res.Mirrored = true
	e.stageDone(StageMirror)

	return res, nil
}

// Write a stage's response, or attribute the request error to the stage.
// A JSON error body is still written so the failure can be inspected.
func (e *Exporter) persist(res *Result, stage models.Stage, raw json.RawMessage, reqErr error) error {
	if reqErr != nil {
		if len(raw) > 0 {
			if artifact, err := artifacts.Write(e.Options.OutputDir, e.Config.Email, stage, raw); err != nil {
				console.Warning("Failed to write %s error response: %v", stage, err)
			} else {
				console.Verbose("Wrote %s error response to %s", stage, artifact.Path)
				res.Artifacts = append(res.Artifacts, artifact)
			}
		}
		return errs.WithStage(string(stage), reqErr)
	}

	artifact, err := artifacts.Write(e.Options.OutputDir, e.Config.Email, stage, raw)
	if err != nil {
		return errs.WithStage(string(stage), err)
	}

	console.Verbose("Wrote %s (%d bytes)", artifact.Path, artifact.Size)
	res.Artifacts = append(res.Artifacts, artifact)
	e.stageDone(string(stage))

	return nil
}

func (e *Exporter) mirror(ctx context.Context, res Result) ([]models.Artifact, error) {
	m, err := e.NewMirror(ctx, *e.Config.Storage)
	if err != nil {
		return nil, errs.Wrap(errs.KindMirror, err)
	}
	defer m.Close()

	return storage.NewUploader(m, *e.Config.Storage).UploadAll(ctx, e.Config.Email, res.RunID, res.Artifacts)
}

// Print access token claims in verbose mode, and warn if the token belongs to another account.
func (e *Exporter) describeToken(accessToken string) {
	info, err := auth.InspectAccessToken(accessToken)
	if err != nil {
		console.Verbose("Access token is not a readable JWT: %v", err)
		return
	}

	console.Verbose("Token subject: %s", info.Subject)
	console.Verbose("Token issuer: %s", info.Issuer)
	if !info.ExpiresAt.IsZero() {
		console.Verbose("Token expires at: %s", info.ExpiresAt.Local().Format(constants.TimeFormat))
	}

	if info.Email != "" && !strings.EqualFold(info.Email, e.Config.Email) {
		console.Warning("Access token was issued for %s, not %s", info.Email, e.Config.Email)
	}
}

func (e *Exporter) stageDone(stage string) {
	if e.OnStage != nil {
		e.OnStage(stage)
	}
}
