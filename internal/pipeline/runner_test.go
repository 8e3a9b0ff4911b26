package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cushion-app/cushion-build/internal/appconfig"
	"github.com/cushion-app/cushion-build/internal/semverx"
	"github.com/cushion-app/cushion-build/internal/telemetry"
	"github.com/cushion-app/cushion-build/internal/ui"
	"github.com/cushion-app/cushion-build/internal/variant"
)

const testPkgJSON = `{
  "name": "cushion",
  "version": "1.2.3"
}
`

const testCargoTOML = `[package]
name = "cushion"
version = "1.2.3"
edition = "2021"
`

const testConfJSON = `{
  "productName": "Cushion",
  "version": "1.2.3",
  "identifier": "so.cushion.app",
  "build": {
    "devUrl": "http://localhost:3000",
    "frontendDist": "https://app.cushion.so"
  },
  "bundle": { "active": true, "icon": ["icons/icon.icns"] },
  "plugins": {
    "deep-link": { "desktop": { "schemes": ["cushion"] } },
    "updater": { "endpoints": ["https://releases.cushion.so/latest.json"] }
  }
}
`

// fakeExec records invocations and simulates the external toolchain: the
// bundler drops an installer, the signer drops a detached signature.
type fakeExec struct {
	calls    [][]string
	failOn   string // command name that exits non-zero
	blockOn  string // command name that hangs until ctx expires
	artifact string // installer the bundler produces
}

func (f *fakeExec) Run(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	if name == f.blockOn {
		<-ctx.Done()
		return fmt.Errorf("%w: %s: %v", ErrExternalTool, name, ctx.Err())
	}
	if name == f.failOn {
		return fmt.Errorf("%w: %s: exit status 1", ErrExternalTool, name)
	}
	switch name {
	case "tauri":
		if err := os.WriteFile(f.artifact, []byte("dmg"), 0o644); err != nil {
			return err
		}
	case "codesign":
		if err := os.WriteFile(f.artifact+".sig", []byte("c2ln\n"), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// fixture lays out a checkout with synchronized manifests and returns a
// runner wired against fakes plus the repo root.
func fixture(t *testing.T, v variant.Variant) (*Runner, *fakeExec, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src-tauri"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"package.json":              testPkgJSON,
		"src-tauri/Cargo.toml":      testCargoTOML,
		"src-tauri/tauri.conf.json": testConfJSON,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	bundleDir := filepath.Join(root, "bundle")
	feedDir := filepath.Join(root, "feed")
	if err := os.MkdirAll(bundleDir, 0o755); err != nil {
		t.Fatal(err)
	}

	product := "Cushion"
	if v == variant.Development {
		product = "CushionDev"
	}
	fe := &fakeExec{artifact: filepath.Join(bundleDir, product+"_1.2.3_aarch64.dmg")}

	r := &Runner{
		Opts: Options{
			BundleDir:       bundleDir,
			FeedDir:         feedDir,
			DownloadBase:    "https://releases.cushion.so/downloads",
			PlatformKey:     "darwin-aarch64",
			BuildCommand:    []string{"npm", "run", "build"},
			BundleCommand:   []string{"tauri", "build"},
			SignCommand:     []string{"codesign", "--sign"},
			NotarizeCommand: []string{"notarytool", "submit"},
		},
		Transformer: appconfig.NewTransformer(filepath.Join(root, "src-tauri", "tauri.conf.json")),
		Sync:        semverx.NewSynchronizer(semverx.DefaultManifests(root)),
		Exec:        fe,
		Env:         func(string) string { return "" },
		Printer:     ui.NewTo(io.Discard),
	}
	return r, fe, root
}

func withCreds(r *Runner) {
	creds := map[string]string{
		EnvSigningIdentity: "Developer ID Application: Cushion",
		EnvAppleID:         "ci@cushion.so",
		EnvApplePassword:   "app-specific",
		EnvAppleTeamID:     "TEAM123",
	}
	r.Env = func(k string) string { return creds[k] }
}

func TestRun_UnsignedDegradedPath(t *testing.T) {
	t.Parallel()
	r, fe, _ := fixture(t, variant.Production)

	res, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stage != StageDone {
		t.Errorf("stage = %v, want Done", res.Stage)
	}
	if res.Signed {
		t.Error("run reported signed without credentials")
	}
	if res.Version != "1.2.3" {
		t.Errorf("version = %q", res.Version)
	}

	// Signing tools were never invoked.
	for _, call := range fe.calls {
		if call[0] == "codesign" || call[0] == "notarytool" {
			t.Errorf("signing tool invoked without credentials: %v", call)
		}
	}

	// The feed manifest carries an empty signature.
	raw, err := os.ReadFile(res.FeedPath)
	if err != nil {
		t.Fatalf("feed manifest missing: %v", err)
	}
	var m struct {
		Version   string `json:"version"`
		Platforms map[string]struct {
			URL       string `json:"url"`
			Signature string `json:"signature"`
		} `json:"platforms"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	p := m.Platforms["darwin-aarch64"]
	if p.Signature != "" {
		t.Errorf("signature = %q, want empty for unsigned artifact", p.Signature)
	}
	if p.URL != "https://releases.cushion.so/downloads/Cushion_1.2.3_aarch64.dmg" {
		t.Errorf("download URL = %q", p.URL)
	}
}

func TestRun_SignedPath(t *testing.T) {
	t.Parallel()
	r, fe, _ := fixture(t, variant.Production)
	withCreds(r)

	res, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Signed {
		t.Error("run not signed despite complete credentials")
	}

	var signed, notarized bool
	for _, call := range fe.calls {
		switch call[0] {
		case "codesign":
			signed = true
			if call[len(call)-1] != res.Artifact {
				t.Errorf("codesign not given artifact path: %v", call)
			}
		case "notarytool":
			notarized = true
		}
	}
	if !signed || !notarized {
		t.Errorf("signing chain incomplete: signed=%v notarized=%v", signed, notarized)
	}

	raw, _ := os.ReadFile(res.FeedPath)
	if !strings.Contains(string(raw), `"signature": "c2ln"`) {
		t.Error("feed manifest missing artifact signature")
	}
}

func TestRun_SkipSigningFlag(t *testing.T) {
	t.Parallel()
	r, fe, _ := fixture(t, variant.Production)
	withCreds(r)
	r.Opts.SkipSigning = true

	res, err := r.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Signed {
		t.Error("signed despite --skip-signing")
	}
	for _, call := range fe.calls {
		if call[0] == "codesign" {
			t.Error("codesign invoked despite --skip-signing")
		}
	}
}

func TestRun_BuildFailureHaltsAndKeepsTransform(t *testing.T) {
	t.Parallel()
	r, fe, root := fixture(t, variant.Development)
	fe.failOn = "npm"

	res, err := r.Run(context.Background(), map[string]string{variant.EnvDevMode: "true"})
	if err == nil {
		t.Fatal("Run succeeded despite build failure")
	}

	var serr *StageError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %T, want *StageError", err)
	}
	if serr.Stage != StageNativeBuilt {
		t.Errorf("failed stage = %v, want NativeBuilt", serr.Stage)
	}
	if !errors.Is(err, ErrExternalTool) {
		t.Errorf("err = %v, want ErrExternalTool", err)
	}
	if res.Stage != StageConfigTransformed {
		t.Errorf("last completed stage = %v, want ConfigTransformed", res.Stage)
	}

	// The store stays transformed; restore is an operator action.
	doc, _, err := appconfig.Load(filepath.Join(root, "src-tauri", "tauri.conf.json"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Identifier() != "so.cushion.app.dev" {
		t.Errorf("store rolled back: identifier = %q", doc.Identifier())
	}

	// Nothing downstream ran.
	for _, call := range fe.calls {
		if call[0] == "tauri" {
			t.Error("bundler ran after failed build")
		}
	}
	if _, err := os.Stat(filepath.Join(r.Opts.FeedDir, "latest-dev.json")); err == nil {
		t.Error("feed manifest emitted after failed build")
	}
}

func TestRun_MissingArtifactFailsPackaged(t *testing.T) {
	t.Parallel()
	r, fe, _ := fixture(t, variant.Production)
	// Bundler "succeeds" but drops nothing.
	fe.artifact = filepath.Join(t.TempDir(), "elsewhere.dmg")

	_, err := r.Run(context.Background(), nil)
	var serr *StageError
	if !errors.As(err, &serr) || serr.Stage != StagePackaged {
		t.Fatalf("err = %v, want Failed(packaged)", err)
	}
}

func TestRun_SignFailureWithCredsIsFatal(t *testing.T) {
	t.Parallel()
	r, fe, _ := fixture(t, variant.Production)
	withCreds(r)
	fe.failOn = "codesign"

	_, err := r.Run(context.Background(), nil)
	var serr *StageError
	if !errors.As(err, &serr) || serr.Stage != StageSigned {
		t.Fatalf("err = %v, want Failed(signed)", err)
	}
}

func TestRun_VersionDriftFailsBeforeTransform(t *testing.T) {
	t.Parallel()
	r, _, root := fixture(t, variant.Production)
	drifted := strings.Replace(testCargoTOML, `version = "1.2.3"`, `version = "1.2.2"`, 1)
	if err := os.WriteFile(filepath.Join(root, "src-tauri", "Cargo.toml"), []byte(drifted), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := r.Run(context.Background(), nil)
	var serr *StageError
	if !errors.As(err, &serr) || serr.Stage != StageVariantResolved {
		t.Fatalf("err = %v, want Failed(variant-resolved)", err)
	}
	if !errors.Is(err, semverx.ErrVersionDrift) {
		t.Errorf("err = %v, want ErrVersionDrift", err)
	}
	// No backup was created: the transformer never ran.
	if _, err := os.Stat(filepath.Join(root, "src-tauri", "tauri.conf.json.bak")); err == nil {
		t.Error("transform ran despite drift")
	}
}

func TestRun_StageTimeout(t *testing.T) {
	t.Parallel()
	r, fe, _ := fixture(t, variant.Production)
	fe.blockOn = "npm"
	r.Opts.StageTimeout = 20 * time.Millisecond

	_, err := r.Run(context.Background(), nil)
	var serr *StageError
	if !errors.As(err, &serr) || serr.Stage != StageNativeBuilt {
		t.Fatalf("err = %v, want Failed(native-built)", err)
	}
	if !errors.Is(err, ErrExternalTool) {
		t.Errorf("err = %v, want ErrExternalTool", err)
	}
}

func TestRun_EmitsStageLifecycle(t *testing.T) {
	t.Parallel()
	r, _, root := fixture(t, variant.Production)

	eventsPath := filepath.Join(root, "events.jsonl")
	em, err := telemetry.NewEmitter(eventsPath)
	if err != nil {
		t.Fatal(err)
	}
	r.Telemetry = em

	if _, err := r.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := em.Close(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(eventsPath)
	if err != nil {
		t.Fatal(err)
	}
	type event struct {
		Kind  string `json:"kind"`
		Stage string `json:"stage"`
	}
	var events []event
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		var e event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("bad event line %q: %v", line, err)
		}
		events = append(events, e)
	}

	if events[0].Kind != telemetry.KindRunStart {
		t.Errorf("first event = %v, want run_start", events[0])
	}
	if last := events[len(events)-1]; last.Kind != telemetry.KindRunDone {
		t.Errorf("last event = %v, want run_done", last)
	}

	// Every stage that runs work announces itself before completing.
	for _, stage := range []Stage{StageConfigTransformed, StageNativeBuilt, StagePackaged, StageManifestEmitted} {
		started, done := -1, -1
		for i, e := range events {
			if e.Stage != stage.String() {
				continue
			}
			switch e.Kind {
			case telemetry.KindStageStart:
				started = i
			case telemetry.KindStageDone:
				done = i
			}
		}
		if started == -1 {
			t.Errorf("no stage_start for %s", stage)
			continue
		}
		if done == -1 || started > done {
			t.Errorf("%s: stage_start at %d, stage_done at %d", stage, started, done)
		}
	}

	// Signing without credentials announces itself, then skips.
	var signStarted, signSkipped bool
	for _, e := range events {
		if e.Stage != StageSigned.String() {
			continue
		}
		switch e.Kind {
		case telemetry.KindStageStart:
			signStarted = true
		case telemetry.KindStageSkipped:
			signSkipped = true
		}
	}
	if !signStarted || !signSkipped {
		t.Errorf("signing lifecycle incomplete: started=%v skipped=%v", signStarted, signSkipped)
	}
}

func TestStageError_NamesStage(t *testing.T) {
	t.Parallel()
	err := failed(StagePackaged, errors.New("boom"))
	if !strings.Contains(err.Error(), "packaged") {
		t.Errorf("StageError does not name the stage: %v", err)
	}
}
