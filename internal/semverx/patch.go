package semverx

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// Patcher reads and rewrites the version field of one manifest syntax.
// Patch must change only the version field and leave every other byte of
// the file untouched — a full parse/re-serialize round trip would
// reformat unrelated content, so rewriting is pattern-anchored on
// purpose.
type Patcher interface {
	// Read extracts the current version from raw manifest bytes.
	Read(raw []byte) (string, error)
	// Patch returns raw with only the version field set to version.
	Patch(raw []byte, version string) ([]byte, error)
}

// jsonVersionRe matches the first "version" field in a JSON document.
// A nested object could carry a same-named key ahead of the manifest
// version, so Patch re-reads its output and refuses the rewrite when the
// top-level field did not take the new value.
var jsonVersionRe = regexp.MustCompile(`("version"\s*:\s*)"[^"]*"`)

// JSONVersionField patches the top-level "version" field of a JSON
// manifest (package.json, tauri.conf.json).
type JSONVersionField struct{}

// Read parses the manifest and returns its version field.
func (JSONVersionField) Read(raw []byte) (string, error) {
	var doc struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parse JSON manifest: %w", err)
	}
	if doc.Version == "" {
		return "", fmt.Errorf("manifest has no version field")
	}
	return doc.Version, nil
}

// Patch rewrites the first "version" field in place.
func (JSONVersionField) Patch(raw []byte, version string) ([]byte, error) {
	// Validate before touching bytes.
	if _, err := (JSONVersionField{}).Read(raw); err != nil {
		return nil, err
	}
	out, n := replaceFirst(jsonVersionRe, raw, `${1}"`+version+`"`)
	if n == 0 {
		return nil, fmt.Errorf("no version field matched for patching")
	}
	if got, err := (JSONVersionField{}).Read(out); err != nil || got != version {
		return nil, fmt.Errorf("version pattern matched a nested field, not the manifest version")
	}
	return out, nil
}

// tomlVersionRe anchors the crate's version line. In Cargo.toml the
// [package] table comes first, so the first line-anchored `version =` is
// the crate version; dependency version requirements are inline tables
// and never start a line with the bare key.
var tomlVersionRe = regexp.MustCompile(`(?m)^(version\s*=\s*)"[^"]*"`)

// TOMLPackageVersion patches the [package] version line of Cargo.toml.
type TOMLPackageVersion struct{}

// Read parses the manifest and returns the [package] version.
func (TOMLPackageVersion) Read(raw []byte) (string, error) {
	var doc struct {
		Package struct {
			Version string `toml:"version"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parse TOML manifest: %w", err)
	}
	if doc.Package.Version == "" {
		return "", fmt.Errorf("manifest has no [package] version")
	}
	return doc.Package.Version, nil
}

// Patch rewrites only the version line, preserving comments and
// formatting everywhere else.
func (TOMLPackageVersion) Patch(raw []byte, version string) ([]byte, error) {
	if _, err := (TOMLPackageVersion{}).Read(raw); err != nil {
		return nil, err
	}
	out, n := replaceFirst(tomlVersionRe, raw, `${1}"`+version+`"`)
	if n == 0 {
		return nil, fmt.Errorf("no version line matched for patching")
	}
	if got, err := (TOMLPackageVersion{}).Read(out); err != nil || got != version {
		return nil, fmt.Errorf("version line matched outside [package], not the crate version")
	}
	return out, nil
}

// replaceFirst applies re's replacement to the first match only and
// returns the number of replacements made (0 or 1).
func replaceFirst(re *regexp.Regexp, src []byte, repl string) ([]byte, int) {
	loc := re.FindIndex(src)
	if loc == nil {
		return src, 0
	}
	replaced := re.ReplaceAll(src[loc[0]:loc[1]], []byte(repl))
	out := make([]byte, 0, len(src)+len(replaced))
	out = append(out, src[:loc[0]]...)
	out = append(out, replaced...)
	out = append(out, src[loc[1]:]...)
	return out, 1
}
