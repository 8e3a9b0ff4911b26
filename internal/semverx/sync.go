package semverx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrVersionDrift indicates the manifest copies disagree at rest.
var ErrVersionDrift = errors.New("manifest versions differ")

// ManifestFile pairs a manifest location with the patcher for its syntax.
type ManifestFile struct {
	Path    string
	Patcher Patcher
}

// DefaultManifests returns the repo's three version-bearing manifests.
// The first entry is canonical: bump directives resolve against it.
func DefaultManifests(root string) []ManifestFile {
	return []ManifestFile{
		{Path: filepath.Join(root, "package.json"), Patcher: JSONVersionField{}},
		{Path: filepath.Join(root, "src-tauri", "Cargo.toml"), Patcher: TOMLPackageVersion{}},
		{Path: filepath.Join(root, "src-tauri", "tauri.conf.json"), Patcher: JSONVersionField{}},
	}
}

// FileVersion is one manifest's current version, for read-only reports.
type FileVersion struct {
	Path    string
	Version string
}

// Synchronizer mirrors one semantic version across an ordered list of
// manifests. All validation happens before any write.
type Synchronizer struct {
	Files []ManifestFile
}

// NewSynchronizer builds a synchronizer over the given manifests.
func NewSynchronizer(files []ManifestFile) *Synchronizer {
	return &Synchronizer{Files: files}
}

// Report reads every manifest's version without mutating anything.
func (s *Synchronizer) Report() ([]FileVersion, error) {
	out := make([]FileVersion, 0, len(s.Files))
	for _, f := range s.Files {
		raw, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Path, err)
		}
		v, err := f.Patcher.Read(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		out = append(out, FileVersion{Path: f.Path, Version: v})
	}
	return out, nil
}

// Current returns the canonical version (first manifest in the list).
func (s *Synchronizer) Current() (string, error) {
	if len(s.Files) == 0 {
		return "", errors.New("no manifests registered")
	}
	raw, err := os.ReadFile(s.Files[0].Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", s.Files[0].Path, err)
	}
	v, err := s.Files[0].Patcher.Read(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.Files[0].Path, err)
	}
	return v, nil
}

// Verify reports ErrVersionDrift when the manifests disagree. CI runs
// this before allowing a merge.
func (s *Synchronizer) Verify() error {
	report, err := s.Report()
	if err != nil {
		return err
	}
	for _, fv := range report[1:] {
		if fv.Version != report[0].Version {
			return fmt.Errorf("%w: %s has %s, %s has %s",
				ErrVersionDrift, report[0].Path, report[0].Version, fv.Path, fv.Version)
		}
	}
	return nil
}

// Resolve turns a sync target into a concrete version. Bump keywords
// increment the canonical version; anything else must be a valid
// explicit MAJOR.MINOR.PATCH string.
func (s *Synchronizer) Resolve(target string) (string, error) {
	if IsBumpKeyword(target) {
		current, err := s.Current()
		if err != nil {
			return "", err
		}
		return Bump(current, target)
	}
	if _, err := Parse(target); err != nil {
		return "", err
	}
	return target, nil
}

// Sync writes the resolved target version into every registered manifest.
// Every file is read and its patched content computed before the first
// write, so a malformed target or unreadable manifest modifies nothing.
// A write failure mid-sequence leaves earlier files updated; that is
// surfaced as fatal for manual repair rather than rolled back.
func (s *Synchronizer) Sync(target string) (string, error) {
	version, err := s.Resolve(target)
	if err != nil {
		return "", err
	}

	patched := make([][]byte, len(s.Files))
	for i, f := range s.Files {
		raw, err := os.ReadFile(f.Path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.Path, err)
		}
		out, err := f.Patcher.Patch(raw, version)
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.Path, err)
		}
		patched[i] = out
	}

	for i, f := range s.Files {
		if err := os.WriteFile(f.Path, patched[i], 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w (manifests before it already updated to %s; repair manually)",
				f.Path, err, version)
		}
	}
	return version, nil
}
