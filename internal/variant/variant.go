// Package variant resolves which build identity a pipeline invocation
// targets. Exactly one variant is active per invocation; the mapping from
// variant to its derived identity fields is a fixed total table so that
// Production and Development installs can coexist on one machine.
package variant

// Variant is one of the mutually exclusive build identities.
type Variant int

const (
	// Production is the default variant when no mode flag is set.
	Production Variant = iota
	// Development points the shell at the dev web app and a dev-suffixed
	// bundle identifier.
	Development
	// Test reuses the current identity but serves content from a local
	// dev server. It is a narrow override, not a third identity.
	Test
)

// Environment variable names recognized by Resolve.
const (
	EnvTestMode = "TEST_MODE"
	EnvDevMode  = "DEV_MODE"
)

// String returns the lowercase variant name used in logs and ledger rows.
func (v Variant) String() string {
	switch v {
	case Development:
		return "development"
	case Test:
		return "test"
	default:
		return "production"
	}
}

// Resolve maps an environment snapshot to a variant. Precedence is fixed:
// TEST_MODE beats DEV_MODE beats the Production default. The function is
// total — malformed or absent environment state falls through to
// Production.
func Resolve(env map[string]string) Variant {
	if env[EnvTestMode] == "true" {
		return Test
	}
	if env[EnvDevMode] == "true" {
		return Development
	}
	return Production
}

// Profile holds the identity fields a variant bakes into the
// configuration store. Test has no profile of its own; it only overrides
// the content source of whatever identity is already in place.
type Profile struct {
	ProductName    string
	Identifier     string
	DevURL         string
	FrontendDist   string
	Icons          []string
	Schemes        []string
	UpdateEndpoint string
}

// DevServerURL is the local web app address used by Development's devUrl
// and by the Test content-source override.
const DevServerURL = "http://localhost:3000"

var profiles = map[Variant]Profile{
	Production: {
		ProductName:  "Cushion",
		Identifier:   "so.cushion.app",
		DevURL:       DevServerURL,
		FrontendDist: "https://app.cushion.so",
		Icons: []string{
			"icons/32x32.png",
			"icons/128x128.png",
			"icons/128x128@2x.png",
			"icons/icon.icns",
			"icons/icon.ico",
		},
		Schemes:        []string{"cushion"},
		UpdateEndpoint: "https://releases.cushion.so/latest.json",
	},
	Development: {
		ProductName:  "Cushion Dev",
		Identifier:   "so.cushion.app.dev",
		DevURL:       DevServerURL,
		FrontendDist: "https://dev.cushion.so",
		Icons: []string{
			"icons/dev/32x32.png",
			"icons/dev/128x128.png",
			"icons/dev/128x128@2x.png",
			"icons/dev/icon.icns",
			"icons/dev/icon.ico",
		},
		Schemes:        []string{"cushion-dev"},
		UpdateEndpoint: "https://releases.cushion.so/latest-dev.json",
	},
}

// ProfileFor returns the identity table entry for v. The second return is
// false for Test, which carries no identity of its own.
func ProfileFor(v Variant) (Profile, bool) {
	p, ok := profiles[v]
	return p, ok
}

// FeedName returns the per-variant update manifest file name. Production
// and Development consume distinct names so their auto-update checks
// never cross-contaminate.
func FeedName(v Variant) string {
	if v == Development {
		return "latest-dev.json"
	}
	return "latest.json"
}
