// Package semverx keeps the app's semantic version mirrored across the
// repo's independently-owned manifest files: package.json, the native
// crate manifest, and the app configuration. At rest all copies must be
// byte-identical; CI gates merges on that.
package semverx

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion indicates a malformed explicit version or a corrupt
// version already present in a manifest. It always aborts before any
// file is written.
var ErrInvalidVersion = errors.New("invalid version format")

// Bump keywords accepted by Sync.
const (
	BumpMajor = "major"
	BumpMinor = "minor"
	BumpPatch = "patch"
)

// strictVersion accepts only plain MAJOR.MINOR.PATCH. Pre-release and
// build metadata are not used in this repo's release scheme.
var strictVersion = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Parse validates s as a plain MAJOR.MINOR.PATCH version.
func Parse(s string) (*semver.Version, error) {
	if !strictVersion.MatchString(s) {
		return nil, fmt.Errorf("%w: %q (want MAJOR.MINOR.PATCH)", ErrInvalidVersion, s)
	}
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
	}
	return v, nil
}

// IsBumpKeyword reports whether target names a bump component rather
// than an explicit version.
func IsBumpKeyword(target string) bool {
	switch target {
	case BumpMajor, BumpMinor, BumpPatch:
		return true
	}
	return false
}

// Bump increments one component of current and zeroes everything below
// it: major → (M+1).0.0, minor → M.(m+1).0, patch → M.m.(p+1).
func Bump(current, part string) (string, error) {
	v, err := Parse(current)
	if err != nil {
		return "", err
	}
	var next semver.Version
	switch part {
	case BumpMajor:
		next = v.IncMajor()
	case BumpMinor:
		next = v.IncMinor()
	case BumpPatch:
		next = v.IncPatch()
	default:
		return "", fmt.Errorf("%w: unknown bump component %q", ErrInvalidVersion, part)
	}
	return next.String(), nil
}
