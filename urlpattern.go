// Package urlpattern implements the URLPattern web API.
//
// The specification is available at https://wicg.github.io/urlpattern/.
package urlpattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern wraps every construction-time failure: a malformed
// pattern, an unparsable base URL, or a pattern whose compiled form the
// Go regexp engine rejects.
var ErrInvalidPattern = errors.New("invalid pattern")

// illegalPatternError reports a construction-time failure using the
// message every such failure is documented to carry, grounded in
// original_source's failAlways/failUnless (URLPattern.java:1854-1862):
// "illegal pattern near index N: <input>".
func illegalPatternError(input string, index int, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: illegal pattern near index %d: %s", ErrInvalidPattern, index, input)
	}

	return fmt.Errorf("%w: illegal pattern near index %d: %s: %w", ErrInvalidPattern, index, input, cause)
}

// wrapConstructionError applies illegalPatternError unless err already
// carries it, so an error that has already crossed one construction
// boundary isn't wrapped a second time with a stale input/index.
func wrapConstructionError(input string, index int, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidPattern) {
		return err
	}

	return illegalPatternError(input, index, err)
}

// componentValue is a single compiled component: the canonical pattern
// string returned by accessors, the anchored regular expression used to
// match input, and the ordered capture-group names.
//
// https://urlpattern.spec.whatwg.org/#component
type componentValue struct {
	raw        string
	regexp     *regexp.Regexp
	groupNames []string
}

// URLPattern matches URLs, or individual URL components, against a
// pattern syntax inspired by path-to-regexp.
//
// https://wicg.github.io/urlpattern/#urlpattern
type URLPattern struct {
	protocol componentValue
	username componentValue
	password componentValue
	hostname componentValue
	port     componentValue
	pathname componentValue
	search   componentValue
	hash     componentValue
	options  Options
}

// URLPatternInit is the dictionary form of a pattern or a URL: each field
// that is non-nil participates in construction or matching; a nil field
// means the caller left that component unspecified.
//
// https://wicg.github.io/urlpattern/#dictdef-urlpatterninit
type URLPatternInit struct {
	Protocol *string
	Username *string
	Password *string
	Hostname *string
	Port     *string
	Pathname *string
	Search   *string
	Hash     *string
	BaseURL  *string
}

// New constructs a URLPattern from a URL-like pattern string, an optional
// base URL, and options. This is the counterpart of the specification's
// `new URLPattern(input, baseURL, options)` constructor.
//
// https://wicg.github.io/urlpattern/#dom-urlpattern-urlpattern
func New(pattern string, baseURL *string, options Options) (*URLPattern, error) {
	init, err := parseConstructorString(pattern)
	if err != nil {
		return nil, wrapConstructionError(pattern, 0, err)
	}
	init.BaseURL = baseURL

	processed, err := processInit(init, false)
	if err != nil {
		return nil, err
	}

	return newFromProcessedInit(processed, options)
}

// New constructs a URLPattern from a dictionary of per-component patterns.
// This is the counterpart of the specification's `new URLPattern(input,
// options)` constructor when input is a URLPatternInit rather than a
// string.
//
// https://wicg.github.io/urlpattern/#dom-urlpattern-urlpattern-input-options
func (init URLPatternInit) New(options Options) (*URLPattern, error) {
	processed, err := processInit(init, false)
	if err != nil {
		return nil, err
	}

	return newFromProcessedInit(processed, options)
}

func newFromProcessedInit(processed processedInit, options Options) (*URLPattern, error) {
	ignoreCase := options.IgnoreCase

	protocolInput := processed.getOr("protocol", "*")
	if defaultPort, ok := DefaultPorts[protocolInput]; ok {
		if processed.getOr("port", defaultPort) == defaultPort {
			processed.port = strPtr("")
		}
	}

	protocol, err := compileComponent(protocolInput, 0, 0, canonicalizeProtocol, false)
	if err != nil {
		return nil, wrapConstructionError(protocolInput, 0, err)
	}

	usernameInput := processed.getOr("username", "*")
	username, err := compileComponent(usernameInput, 0, 0, canonicalizeUsername, false)
	if err != nil {
		return nil, wrapConstructionError(usernameInput, 0, err)
	}

	passwordInput := processed.getOr("password", "*")
	password, err := compileComponent(passwordInput, 0, 0, canonicalizePassword, false)
	if err != nil {
		return nil, wrapConstructionError(passwordInput, 0, err)
	}

	hostnameInput := processed.getOr("hostname", "*")
	hostnameEncoder := canonicalizeDomainName
	if strings.HasPrefix(hostnameInput, "[") || strings.HasPrefix(hostnameInput, "\\[") || strings.HasPrefix(hostnameInput, "{[") {
		hostnameEncoder = canonicalizeIPv6Hostname
	}
	hostname, err := compileComponent(hostnameInput, 0, '.', hostnameEncoder, false)
	if err != nil {
		return nil, wrapConstructionError(hostnameInput, 0, err)
	}

	portInput := processed.getOr("port", "*")
	port, err := compileComponent(portInput, 0, 0, func(v string) (string, error) {
		return canonicalizePort(v, protocolInput)
	}, false)
	if err != nil {
		return nil, wrapConstructionError(portInput, 0, err)
	}

	pathnameInput := processed.getOr("pathname", "*")
	var pathname componentValue
	if protocolMatchesSpecialScheme(protocol.regexp) {
		pathname, err = compileComponent(pathnameInput, '/', '/', canonicalizePathname, ignoreCase)
	} else {
		pathname, err = compileComponent(pathnameInput, 0, 0, canonicalizeOpaquePathname, ignoreCase)
	}
	if err != nil {
		return nil, wrapConstructionError(pathnameInput, 0, err)
	}

	searchInput := processed.getOr("search", "*")
	search, err := compileComponent(searchInput, 0, 0, canonicalizeSearch, false)
	if err != nil {
		return nil, wrapConstructionError(searchInput, 0, err)
	}

	hashInput := processed.getOr("hash", "*")
	hash, err := compileComponent(hashInput, 0, 0, canonicalizeHash, false)
	if err != nil {
		return nil, wrapConstructionError(hashInput, 0, err)
	}

	return &URLPattern{
		protocol: protocol,
		username: username,
		password: password,
		hostname: hostname,
		port:     port,
		pathname: pathname,
		search:   search,
		hash:     hash,
		options:  options,
	}, nil
}

// compileComponent parses input as a per-component pattern and compiles it
// into a componentValue. prefixCodePoint and delimiterCodePoint are 0 for
// "none", mirroring the empty-string sentinels in original_source.
func compileComponent(input string, prefixCodePoint, delimiterCodePoint byte, encoding encodingCallback, ignoreCase bool) (componentValue, error) {
	opts := componentOptions{delimiterCodePoint: delimiterCodePoint, prefixCodePoint: prefixCodePoint, ignoreCase: ignoreCase}

	parts, err := parsePatternString(input, opts, encoding)
	if err != nil {
		// parsePatternString already wraps its own failures; propagate as-is.
		return componentValue{}, err
	}

	regexpValue, nameList, err := parts.generateRegularExpressionAndNameList(opts)
	if err != nil {
		return componentValue{}, wrapConstructionError(input, 0, err)
	}

	re, err := regexp.Compile(regexpValue)
	if err != nil {
		return componentValue{}, wrapConstructionError(input, 0, err)
	}

	patternString, err := parts.generatePatternString(opts)
	if err != nil {
		return componentValue{}, wrapConstructionError(input, 0, err)
	}

	return componentValue{raw: patternString, regexp: re, groupNames: nameList}, nil
}

// protocolMatchesSpecialScheme reports whether the compiled protocol
// regular expression accepts any of the special scheme names, the same
// check the constructor uses to choose segmented vs. opaque pathname
// compilation.
func protocolMatchesSpecialScheme(protocolRegexp *regexp.Regexp) bool {
	for scheme := range DefaultPorts {
		if protocolRegexp.MatchString(scheme) {
			return true
		}
	}

	return false
}

// Protocol returns the canonical pattern string for the protocol component.
func (p *URLPattern) Protocol() string { return p.protocol.raw }

// Username returns the canonical pattern string for the username component.
func (p *URLPattern) Username() string { return p.username.raw }

// Password returns the canonical pattern string for the password component.
func (p *URLPattern) Password() string { return p.password.raw }

// Hostname returns the canonical pattern string for the hostname component.
func (p *URLPattern) Hostname() string { return p.hostname.raw }

// Port returns the canonical pattern string for the port component.
func (p *URLPattern) Port() string { return p.port.raw }

// Pathname returns the canonical pattern string for the pathname component.
func (p *URLPattern) Pathname() string { return p.pathname.raw }

// Search returns the canonical pattern string for the search component.
func (p *URLPattern) Search() string { return p.search.raw }

// Hash returns the canonical pattern string for the hash component.
func (p *URLPattern) Hash() string { return p.hash.raw }

// Test reports whether input, resolved against an optional base URL,
// matches every component of p.
//
// https://wicg.github.io/urlpattern/#dom-urlpattern-test
func (p *URLPattern) Test(input string, baseURL *string) bool {
	return p.Exec(input, baseURL) != nil
}

// TestInit reports whether the given dictionary of component values
// matches every component of p.
func (p *URLPattern) TestInit(init URLPatternInit) bool {
	return p.ExecInit(init) != nil
}

// Exec matches input, resolved against an optional base URL, against p and
// returns the per-component results, or nil if input is malformed or any
// component fails to match.
//
// https://wicg.github.io/urlpattern/#dom-urlpattern-exec
func (p *URLPattern) Exec(input string, baseURL *string) *URLPatternResult {
	base := ""
	if baseURL != nil {
		base = *baseURL
	}

	components, err := parseURLInput(input, base)
	if err != nil {
		return nil
	}

	inputs := []string{input}
	if baseURL != nil {
		inputs = append(inputs, *baseURL)
	}

	result, err := match(p, components, inputs)
	if err != nil {
		return nil
	}

	return result
}

// ExecInit matches the given dictionary of component values against p, or
// returns nil if the dictionary is malformed or any component fails to
// match.
func (p *URLPattern) ExecInit(init URLPatternInit) *URLPatternResult {
	processed, err := processInit(init, true)
	if err != nil {
		return nil
	}

	result, err := match(p, processed.toComponents(), nil)
	if err != nil {
		return nil
	}

	return result
}
