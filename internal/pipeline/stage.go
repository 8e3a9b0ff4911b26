// Package pipeline sequences a release: configuration transform, native
// build, packaging, signing/notarization, and update-manifest emission.
// Stages are strictly ordered; a failure halts everything downstream and
// leaves the configuration store in its transformed state — restoring
// the baseline is an explicit operator action, never automatic.
package pipeline

// Stage identifies a point in the release state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageVariantResolved
	StageConfigTransformed
	StageNativeBuilt
	StagePackaged
	StageSigned
	StageManifestEmitted
	StageDone
)

var stageNames = map[Stage]string{
	StageIdle:              "idle",
	StageVariantResolved:   "variant-resolved",
	StageConfigTransformed: "config-transformed",
	StageNativeBuilt:       "native-built",
	StagePackaged:          "packaged",
	StageSigned:            "signed",
	StageManifestEmitted:   "manifest-emitted",
	StageDone:              "done",
}

// String returns the kebab-case stage name used in logs and the ledger.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}
