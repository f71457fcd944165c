package urlpattern_test

import (
	"testing"

	"github.com/patternkit/urlpattern"
)

func ptr(s string) *string { return &s }

func mustNew(t *testing.T, pattern string, baseURL *string, opts urlpattern.Options) *urlpattern.URLPattern {
	t.Helper()

	p, err := urlpattern.New(pattern, baseURL, opts)
	if err != nil {
		t.Fatalf("New(%q) failed: %v", pattern, err)
	}

	return p
}

func TestNamedGroupsMatch(t *testing.T) {
	p := mustNew(t, "/:foo/:bar", nil, urlpattern.Options{})

	if !p.Test("/test/route", nil) {
		t.Fatal("expected /test/route to match")
	}

	result := p.Exec("/test/route", nil)
	if result == nil {
		t.Fatal("expected a result")
	}

	groups := result.Pathname.Groups
	if got := groups["foo"]; got == nil || *got != "test" {
		t.Fatalf("foo group = %v, want test", got)
	}
	if got := groups["bar"]; got == nil || *got != "route" {
		t.Fatalf("bar group = %v, want route", got)
	}
}

func TestCustomRegexGroup(t *testing.T) {
	p := mustNew(t, `/icon-:foo(\d+).png`, nil, urlpattern.Options{})

	if !p.Test("/icon-123.png", nil) {
		t.Fatal("expected /icon-123.png to match")
	}
	if p.Test("/icon-abc.png", nil) {
		t.Fatal("expected /icon-abc.png not to match")
	}
}

func TestOptionalGroupLeavesUnboundCapture(t *testing.T) {
	p := mustNew(t, "/:foo/:bar?", nil, urlpattern.Options{})

	if !p.Test("/test", nil) {
		t.Fatal("expected /test to match")
	}
	if !p.Test("/test/route", nil) {
		t.Fatal("expected /test/route to match")
	}

	result := p.Exec("/test", nil)
	if result == nil {
		t.Fatal("expected a result")
	}
	if bar := result.Pathname.Groups["bar"]; bar != nil {
		t.Fatalf("bar group = %v, want unbound (nil)", *bar)
	}
}

func TestHostnameSubdomainWildcard(t *testing.T) {
	hostname := "{*.}?example.com"
	p, err := (urlpattern.URLPatternInit{Hostname: &hostname}).New(urlpattern.Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !p.Test("https://sub.example.com/x", nil) {
		t.Fatal("expected sub.example.com to match")
	}
	if !p.Test("https://example.com/x", nil) {
		t.Fatal("expected bare example.com to match")
	}
}

func TestProtocolGroupAndSubdomainWildcard(t *testing.T) {
	p := mustNew(t, "http{s}?://{*.}?example.com/:product/:endpoint", nil, urlpattern.Options{})

	if !p.Test("https://sub.example.com/foo/bar", nil) {
		t.Fatal("expected a match")
	}

	result := p.Exec("https://sub.example.com/foo/bar", nil)
	if result == nil {
		t.Fatal("expected a result")
	}

	if got := result.Pathname.Groups["product"]; got == nil || *got != "foo" {
		t.Fatalf("product group = %v, want foo", got)
	}
	if got := result.Pathname.Groups["endpoint"]; got == nil || *got != "bar" {
		t.Fatalf("endpoint group = %v, want bar", got)
	}
}

func TestPathnameDotSegmentNormalization(t *testing.T) {
	pathname := "/foo/bar"
	p, err := (urlpattern.URLPatternInit{Pathname: &pathname}).New(urlpattern.Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	candidate := "/foo/./bar"
	if !p.TestInit(urlpattern.URLPatternInit{Pathname: &candidate}) {
		t.Fatal("expected dot-segment path to normalize and match")
	}
}

func TestHostnameIDNACanonicalization(t *testing.T) {
	hostname := "xn--caf-dma.com"
	p, err := (urlpattern.URLPatternInit{Hostname: &hostname}).New(urlpattern.Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	candidate := "café.com"
	if !p.TestInit(urlpattern.URLPatternInit{Hostname: &candidate}) {
		t.Fatal("expected IDNA-equivalent hostname to match")
	}
}

func TestDefaultPortSuppression(t *testing.T) {
	port := ""
	p, err := (urlpattern.URLPatternInit{Port: &port}).New(urlpattern.Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	protocol, candidatePort := "http", "80"
	if !p.TestInit(urlpattern.URLPatternInit{Protocol: &protocol, Port: &candidatePort}) {
		t.Fatal("expected default port 80 to match an empty port pattern under http")
	}
}

func TestDuplicateGroupNameFails(t *testing.T) {
	pathname := "/:id/:id"
	_, err := (urlpattern.URLPatternInit{Pathname: &pathname}).New(urlpattern.Options{})
	if err == nil {
		t.Fatal("expected duplicate group name to fail construction")
	}
}

func TestNonASCIIInsideRegexGroupFails(t *testing.T) {
	protocol := "(café)"
	_, err := (urlpattern.URLPatternInit{Protocol: &protocol}).New(urlpattern.Options{})
	if err == nil {
		t.Fatal("expected non-ASCII regex group to fail construction")
	}
}

func TestTestMatchesExecPresence(t *testing.T) {
	p := mustNew(t, "/:foo", nil, urlpattern.Options{})

	for _, input := range []string{"/a", "/a/b", ""} {
		want := p.Test(input, nil)
		got := p.Exec(input, nil) != nil
		if want != got {
			t.Fatalf("Test(%q) = %v, but (Exec(%q) != nil) = %v", input, want, input, got)
		}
	}
}

func TestUnconstrainedComponentMatchesEmptyString(t *testing.T) {
	p := mustNew(t, "/fixed", nil, urlpattern.Options{})

	if !p.TestInit(urlpattern.URLPatternInit{Pathname: ptr("/fixed")}) {
		t.Fatal("expected exact pathname to match")
	}

	// The search and hash components default to "*" (unconstrained) and so
	// must accept the empty string.
	if p.Search() != "*" || p.Hash() != "*" {
		t.Fatalf("expected default search/hash patterns to be \"*\", got %q / %q", p.Search(), p.Hash())
	}
	if !p.TestInit(urlpattern.URLPatternInit{Pathname: ptr("/fixed"), Search: ptr(""), Hash: ptr("")}) {
		t.Fatal("expected an empty search/hash to match an unconstrained component")
	}
}

func TestIgnoreCaseAppliesOnlyToPathname(t *testing.T) {
	p := mustNew(t, "/Foo", nil, urlpattern.Options{}.WithIgnoreCase(true))

	if !p.Test("/foo", nil) {
		t.Fatal("expected case-insensitive pathname match")
	}

	// Hostnames are canonicalized to lowercase on both sides, so case
	// sensitivity is observed on the search component instead.
	search := "Q=Foo"
	pCaseSensitiveSearch, err := (urlpattern.URLPatternInit{Search: &search}).New(urlpattern.Options{}.WithIgnoreCase(true))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	lower := "q=foo"
	if pCaseSensitiveSearch.TestInit(urlpattern.URLPatternInit{Search: &lower}) {
		t.Fatal("expected search matching to stay case-sensitive regardless of IgnoreCase")
	}
}

func TestBaseURLRelativePathResolution(t *testing.T) {
	p := mustNew(t, "/users/:id", nil, urlpattern.Options{})

	base := "https://example.com/users/42"
	if !p.Test("", &base) {
		t.Fatal("expected the base URL itself to satisfy a matching pathname pattern")
	}
}

func TestSpecialSchemePathnameDefaultsToSlash(t *testing.T) {
	p := mustNew(t, "https://example.com", nil, urlpattern.Options{})

	if p.Pathname() != "/" {
		t.Fatalf("pathname = %q, want \"/\" for a special-scheme protocol with no explicit path", p.Pathname())
	}
}

func TestCaptureCountMatchesGroupNameCount(t *testing.T) {
	p := mustNew(t, "/:a/:b/:c", nil, urlpattern.Options{})

	result := p.Exec("/1/2/3", nil)
	if result == nil {
		t.Fatal("expected a match")
	}
	if len(result.Pathname.Groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(result.Pathname.Groups))
	}
}
