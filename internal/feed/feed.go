// Package feed emits the per-variant update manifests the installed app
// polls to discover newer releases. Production reads latest.json and
// Development reads latest-dev.json from distinct URLs, so the two
// channels never cross-contaminate.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cushion-app/cushion-build/internal/semverx"
	"github.com/cushion-app/cushion-build/internal/variant"
)

// ErrManifestImmutable indicates an attempt to rewrite an already-emitted
// manifest for the same version with different content. Artifact sets are
// immutable per version; cutting a new version is the only way to change
// one.
var ErrManifestImmutable = errors.New("update manifest for this version already emitted")

// Platform describes one downloadable installer within a manifest.
type Platform struct {
	Signature string `json:"signature"`
	URL       string `json:"url"`
}

// Manifest is the update-feed document, in the format the shell's
// updater plugin expects: version, notes, publish timestamp, and a
// per-platform map of download URL plus detached signature.
type Manifest struct {
	Version   string              `json:"version"`
	Notes     string              `json:"notes,omitempty"`
	PubDate   string              `json:"pub_date"`
	Platforms map[string]Platform `json:"platforms"`
}

// New builds a manifest for version, stamped with now.
func New(version, notes string, now time.Time) *Manifest {
	return &Manifest{
		Version:   version,
		Notes:     notes,
		PubDate:   now.UTC().Format(time.RFC3339),
		Platforms: map[string]Platform{},
	}
}

// AddPlatform registers one installer under a platform key such as
// "darwin-aarch64". An empty signature marks an unsigned (degraded)
// artifact.
func (m *Manifest) AddPlatform(key, url, signature string) {
	m.Platforms[key] = Platform{URL: url, Signature: signature}
}

// Validate checks the manifest is complete enough to publish.
func (m *Manifest) Validate() error {
	if _, err := semverx.Parse(m.Version); err != nil {
		return err
	}
	if len(m.Platforms) == 0 {
		return errors.New("manifest has no platforms")
	}
	for key, p := range m.Platforms {
		if p.URL == "" {
			return fmt.Errorf("platform %s has no download URL", key)
		}
	}
	return nil
}

// Write emits the manifest to dir under the variant's feed file name.
// Re-emitting identical content for the same version is an idempotent
// no-op; emitting different content for the same version is refused. A
// newer version replaces the feed file outright.
func Write(dir string, v variant.Variant, m *Manifest) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	out = append(out, '\n')

	path := filepath.Join(dir, variant.FeedName(v))
	if prev, err := os.ReadFile(path); err == nil {
		var existing Manifest
		if json.Unmarshal(prev, &existing) == nil && existing.Version == m.Version {
			if bytes.Equal(prev, out) {
				return path, nil
			}
			return "", fmt.Errorf("%w: %s at %s", ErrManifestImmutable, m.Version, path)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadSignature loads the detached signature next to an installer
// artifact (<artifact>.sig). A missing signature file yields the empty
// string — the unsigned degraded path, not an error.
func ReadSignature(artifactPath string) string {
	raw, err := os.ReadFile(artifactPath + ".sig")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
