package variant

import "testing"

func TestResolve_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		test string
		dev  string
		want Variant
	}{
		{"neither set", "", "", Production},
		{"dev only", "", "true", Development},
		{"test only", "true", "", Test},
		{"both set, test wins", "true", "true", Test},
		{"malformed values fall through", "yes", "1", Production},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			if tt.test != "" {
				env[EnvTestMode] = tt.test
			}
			if tt.dev != "" {
				env[EnvDevMode] = tt.dev
			}
			if got := Resolve(env); got != tt.want {
				t.Errorf("Resolve(%v) = %v, want %v", env, got, tt.want)
			}
		})
	}
}

func TestResolve_NilEnv(t *testing.T) {
	t.Parallel()
	if got := Resolve(nil); got != Production {
		t.Errorf("Resolve(nil) = %v, want Production", got)
	}
}

func TestProfileFor_IdentifiersDiffer(t *testing.T) {
	t.Parallel()

	prod, ok := ProfileFor(Production)
	if !ok {
		t.Fatal("Production has no profile")
	}
	dev, ok := ProfileFor(Development)
	if !ok {
		t.Fatal("Development has no profile")
	}

	if prod.Identifier == dev.Identifier {
		t.Errorf("Production and Development share identifier %q; installs would replace each other", prod.Identifier)
	}
	if prod.ProductName == dev.ProductName {
		t.Errorf("Production and Development share product name %q", prod.ProductName)
	}
	if prod.UpdateEndpoint == dev.UpdateEndpoint {
		t.Errorf("Production and Development share update endpoint %q", prod.UpdateEndpoint)
	}
}

func TestProfileFor_TestHasNoIdentity(t *testing.T) {
	t.Parallel()
	if _, ok := ProfileFor(Test); ok {
		t.Error("Test variant must not carry its own identity profile")
	}
}

func TestProfileFor_TablesComplete(t *testing.T) {
	t.Parallel()

	for _, v := range []Variant{Production, Development} {
		p, ok := ProfileFor(v)
		if !ok {
			t.Fatalf("%v has no profile", v)
		}
		if p.ProductName == "" || p.Identifier == "" || p.DevURL == "" ||
			p.FrontendDist == "" || len(p.Icons) == 0 || len(p.Schemes) == 0 ||
			p.UpdateEndpoint == "" {
			t.Errorf("%v profile has empty fields: %+v", v, p)
		}
	}
}

func TestFeedName(t *testing.T) {
	t.Parallel()

	if got := FeedName(Production); got != "latest.json" {
		t.Errorf("FeedName(Production) = %q", got)
	}
	if got := FeedName(Development); got != "latest-dev.json" {
		t.Errorf("FeedName(Development) = %q", got)
	}
}
