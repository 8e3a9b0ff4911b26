package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cushion-app/cushion-build/internal/appconfig"
	"github.com/cushion-app/cushion-build/internal/feed"
	"github.com/cushion-app/cushion-build/internal/history"
	"github.com/cushion-app/cushion-build/internal/semverx"
	"github.com/cushion-app/cushion-build/internal/telemetry"
	"github.com/cushion-app/cushion-build/internal/ui"
	"github.com/cushion-app/cushion-build/internal/variant"
)

// Credential env var names checked before the signing stage.
const (
	EnvSigningIdentity = "APPLE_SIGNING_IDENTITY"
	EnvAppleID         = "APPLE_ID"
	EnvApplePassword   = "APPLE_PASSWORD"
	EnvAppleTeamID     = "APPLE_TEAM_ID"
)

// Credentials are the signing/notarization secrets supplied by CI.
type Credentials struct {
	SigningIdentity string
	AppleID         string
	ApplePassword   string
	TeamID          string
}

// CredentialsFromEnv reads the secrets through the given lookup.
func CredentialsFromEnv(get func(string) string) Credentials {
	return Credentials{
		SigningIdentity: get(EnvSigningIdentity),
		AppleID:         get(EnvAppleID),
		ApplePassword:   get(EnvApplePassword),
		TeamID:          get(EnvAppleTeamID),
	}
}

// Complete reports whether every secret needed for signing and
// notarization is present.
func (c Credentials) Complete() bool {
	return c.SigningIdentity != "" && c.AppleID != "" && c.ApplePassword != "" && c.TeamID != ""
}

// Options configure one pipeline invocation. Commands receive the
// artifact path appended as their final argument where noted.
type Options struct {
	BundleDir    string // where the bundler drops installers
	FeedDir      string // where update manifests are emitted
	DownloadBase string // public URL prefix for installer downloads
	PlatformKey  string // update-feed platform key, e.g. darwin-aarch64

	BuildCommand    []string // native/frontend build, e.g. npm run build
	BundleCommand   []string // installer bundling, e.g. npx tauri build
	SignCommand     []string // code signing; artifact path appended
	NotarizeCommand []string // notarization; artifact path appended

	ReleaseNotes string
	SkipSigning  bool
	StageTimeout time.Duration // per external stage; 0 means unbounded
}

// Result describes how far a run got and what it produced.
type Result struct {
	RunID    string
	Variant  variant.Variant
	Version  string
	Stage    Stage
	Signed   bool
	Artifact string
	FeedPath string
}

// Runner executes the release state machine. One runner owns one
// checkout; concurrent invocations against the same checkout must be
// serialized by the external orchestrator.
type Runner struct {
	Opts Options

	Transformer *appconfig.Transformer
	Sync        *semverx.Synchronizer
	Exec        CommandRunner

	// Env looks up credential variables; defaults to os.Getenv.
	Env func(string) string

	Printer   *ui.Printer
	Telemetry *telemetry.Emitter
	Ledger    *history.Store
}

// Run drives the pipeline from Idle to Done. The returned Result is
// valid even on error and reports the last completed stage; the error is
// a *StageError naming the stage that failed.
func (r *Runner) Run(ctx context.Context, env map[string]string) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Stage: StageIdle}

	res.Variant = variant.Resolve(env)

	version, err := r.Sync.Current()
	if err != nil {
		return res, r.fail(ctx, res, StageVariantResolved, err)
	}
	if err := r.Sync.Verify(); err != nil {
		return res, r.fail(ctx, res, StageVariantResolved, err)
	}
	res.Version = version

	r.printer().Banner(res.Variant.String(), version)
	r.emit(telemetry.Event{Kind: telemetry.KindRunStart, RunID: res.RunID, Variant: res.Variant.String(), Version: version})
	if err := r.Ledger.Begin(ctx, res.RunID, res.Variant.String(), version); err != nil {
		r.printer().Warn("ledger unavailable: %v", err)
	}
	r.advance(ctx, res, StageVariantResolved)

	// Transform the configuration store for the resolved variant.
	r.begin(res, StageConfigTransformed)
	doc, err := r.Transformer.Apply(res.Variant)
	if err != nil {
		return res, r.fail(ctx, res, StageConfigTransformed, err)
	}
	r.printer().Info("store: %s", doc.Summary())
	r.advance(ctx, res, StageConfigTransformed)

	// Native build and installer bundling via the external toolchain.
	r.begin(res, StageNativeBuilt)
	if err := r.runExternal(ctx, r.Opts.BuildCommand); err != nil {
		return res, r.fail(ctx, res, StageNativeBuilt, err)
	}
	r.advance(ctx, res, StageNativeBuilt)

	r.begin(res, StagePackaged)
	if err := r.runExternal(ctx, r.Opts.BundleCommand); err != nil {
		return res, r.fail(ctx, res, StagePackaged, err)
	}
	artifact := r.artifactPath(doc.ProductName(), version)
	if _, err := os.Stat(artifact); err != nil {
		return res, r.fail(ctx, res, StagePackaged,
			fmt.Errorf("%w: bundler produced no installer at %s", ErrExternalTool, artifact))
	}
	res.Artifact = artifact
	r.advance(ctx, res, StagePackaged)

	// Signing is the one skippable stage: absent credentials degrade to
	// an unsigned artifact instead of failing the run.
	r.begin(res, StageSigned)
	switch err := r.sign(ctx, artifact); {
	case err == nil:
		res.Signed = true
		r.advance(ctx, res, StageSigned)
	case isMissingCredentials(err):
		r.printer().StageSkipped(StageSigned.String(), err.Error())
		r.emit(telemetry.Event{Kind: telemetry.KindStageSkipped, RunID: res.RunID, Stage: StageSigned.String(), Data: err.Error()})
	default:
		return res, r.fail(ctx, res, StageSigned, err)
	}

	r.begin(res, StageManifestEmitted)
	manifest := feed.New(version, r.Opts.ReleaseNotes, time.Now())
	manifest.AddPlatform(r.Opts.PlatformKey, r.downloadURL(artifact), feed.ReadSignature(artifact))
	feedPath, err := feed.Write(r.Opts.FeedDir, res.Variant, manifest)
	if err != nil {
		return res, r.fail(ctx, res, StageManifestEmitted, err)
	}
	res.FeedPath = feedPath
	r.advance(ctx, res, StageManifestEmitted)

	res.Stage = StageDone
	r.emit(telemetry.Event{Kind: telemetry.KindRunDone, RunID: res.RunID, Version: version})
	if err := r.Ledger.Finish(ctx, res.RunID, history.StatusSucceeded, res.Signed, res.Artifact, ""); err != nil {
		r.printer().Warn("ledger unavailable: %v", err)
	}
	r.printer().Success("release %s (%s) complete", version, res.Variant)
	return res, nil
}

// sign runs the signing and notarization commands, or reports
// ErrMissingCredentials when the run should degrade to unsigned.
func (r *Runner) sign(ctx context.Context, artifact string) error {
	if r.Opts.SkipSigning {
		return fmt.Errorf("%w: --skip-signing set", ErrMissingCredentials)
	}
	creds := CredentialsFromEnv(r.env())
	if !creds.Complete() {
		return fmt.Errorf("%w: set %s, %s, %s, %s", ErrMissingCredentials,
			EnvSigningIdentity, EnvAppleID, EnvApplePassword, EnvAppleTeamID)
	}

	if err := r.runExternal(ctx, append(r.Opts.SignCommand, artifact)); err != nil {
		return err
	}
	return r.runExternal(ctx, append(r.Opts.NotarizeCommand, artifact))
}

// runExternal invokes one external command under the stage timeout. An
// empty command is a configured no-op.
func (r *Runner) runExternal(ctx context.Context, command []string) error {
	if len(command) == 0 {
		return nil
	}
	if r.Opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Opts.StageTimeout)
		defer cancel()
	}
	return r.Exec.Run(ctx, command[0], command[1:]...)
}

// artifactPath computes where the bundler drops the installer for this
// product and version.
func (r *Runner) artifactPath(productName, version string) string {
	arch := strings.TrimPrefix(r.Opts.PlatformKey, "darwin-")
	name := fmt.Sprintf("%s_%s_%s.dmg", strings.ReplaceAll(productName, " ", ""), version, arch)
	return filepath.Join(r.Opts.BundleDir, name)
}

func (r *Runner) downloadURL(artifact string) string {
	return strings.TrimSuffix(r.Opts.DownloadBase, "/") + "/" + filepath.Base(artifact)
}

// begin announces a stage before its work runs.
func (r *Runner) begin(res *Result, s Stage) {
	r.printer().StageStart(s.String())
	r.emit(telemetry.Event{Kind: telemetry.KindStageStart, RunID: res.RunID, Stage: s.String()})
}

// advance marks a stage complete in the result, ledger, telemetry, and
// operator output.
func (r *Runner) advance(ctx context.Context, res *Result, s Stage) {
	res.Stage = s
	r.printer().StageDone(s.String())
	r.emit(telemetry.Event{Kind: telemetry.KindStageDone, RunID: res.RunID, Stage: s.String()})
	if err := r.Ledger.Advance(ctx, res.RunID, s.String()); err != nil {
		r.printer().Warn("ledger unavailable: %v", err)
	}
}

// fail records the Failed(stage) terminal state. The configuration store
// is deliberately left as-is.
func (r *Runner) fail(ctx context.Context, res *Result, s Stage, err error) error {
	serr := failed(s, err)
	r.printer().Error("%v", serr)
	r.emit(telemetry.Event{Kind: telemetry.KindStageFailed, RunID: res.RunID, Stage: s.String(), Data: err.Error()})
	if lerr := r.Ledger.Finish(ctx, res.RunID, history.StatusFailed, res.Signed, res.Artifact, serr.Error()); lerr != nil {
		r.printer().Warn("ledger unavailable: %v", lerr)
	}
	return serr
}

func (r *Runner) env() func(string) string {
	if r.Env != nil {
		return r.Env
	}
	return os.Getenv
}

func (r *Runner) printer() *ui.Printer {
	if r.Printer != nil {
		return r.Printer
	}
	return ui.New()
}

func (r *Runner) emit(evt telemetry.Event) {
	if err := r.Telemetry.Emit(evt); err != nil {
		r.printer().Warn("telemetry: %v", err)
	}
}

func isMissingCredentials(err error) bool {
	return errors.Is(err, ErrMissingCredentials)
}
