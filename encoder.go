package urlpattern

import (
	"errors"
	"strings"
	"unicode"

	"github.com/dunglas/whatwg-url/canonicalizer"
	"github.com/dunglas/whatwg-url/url"
)

// https://urlpattern.spec.whatwg.org/#special-scheme-list
//
// Experimental: this symbol is exported to allow users adding new values, but
// may be removed in the future. There is nothing in the Go standard library
// to look up the default port associated with a scheme, so this table is
// maintained by hand; it could be extended using
// https://en.wikipedia.org/wiki/List_of_TCP_and_UDP_port_numbers.
var DefaultPorts = map[string]string{
	"file":  "",
	"ftp":   "21",
	"http":  "80",
	"ws":    "80",
	"https": "443",
	"wss":   "443",
}

var urlParser = url.NewParser()
var hostnameParser = canonicalizer.New(url.WithFailOnValidationError(), canonicalizer.WithDefaultScheme("http"))

var (
	InvalidIPv6HostnameError = errors.New("invalid IPv6 hostname")
	InvalidPortError         = errors.New("invalid port")
)

// https://urlpattern.spec.whatwg.org/#canonicalize-a-protocol
func canonicalizeProtocol(value string) (string, error) {
	if value == "" {
		return value, nil
	}

	dummyURL, err := urlParser.Parse(value + "://dummy.test")
	if err != nil {
		return "", err
	}

	return dummyURL.Scheme(), nil
}

// https://urlpattern.spec.whatwg.org/#canonicalize-a-username
func canonicalizeUsername(value string) (string, error) {
	if value == "" {
		return value, nil
	}

	return urlParser.PercentEncodeString(value, url.UserInfoPercentEncodeSet), nil
}

// https://urlpattern.spec.whatwg.org/#canonicalize-a-password
func canonicalizePassword(value string) (string, error) {
	if value == "" {
		return value, nil
	}

	return urlParser.PercentEncodeString(value, url.UserInfoPercentEncodeSet), nil
}

// https://urlpattern.spec.whatwg.org/#canonicalize-a-hostname
// https://github.com/whatwg/urlpattern/issues/220#issuecomment-2074613501
func canonicalizeHostname(hostnameValue, protocolValue string) (string, error) {
	if hostnameValue == "" {
		return hostnameValue, nil
	}

	// Dirty workaround for https://github.com/whatwg/urlpattern/issues/206
	if hostnameValue[:1] != "[" {
		for _, c := range hostnameValue {
			if c == '/' || c == '?' || c == '#' || c == ':' || c == '\\' {
				return "", errors.New("invalid hostname")
			}
		}
	}

	var (
		u   *url.Url
		err error
	)

	if protocolValue == "" {
		u = hostnameParser.NewUrl()
	} else {
		u, err = hostnameParser.Parse(protocolValue + "://dummy.test")
		if err != nil {
			return "", err
		}
	}

	u, err = hostnameParser.BasicParser(hostnameValue, nil, u, url.StateHostname)
	if err != nil {
		return "", err
	}

	return u.Hostname(), nil
}

// https://github.com/whatwg/urlpattern/issues/220#issuecomment-2074613501
func canonicalizeDomainName(value string) (string, error) {
	return canonicalizeHostname(value, "https")
}

// https://urlpattern.spec.whatwg.org/#canonicalize-a-port
func canonicalizePort(portValue, protocolValue string) (string, error) {
	if portValue == "" {
		return portValue, nil
	}

	var (
		u   *url.Url
		err error
	)

	if protocolValue == "" {
		u = hostnameParser.NewUrl()
	} else {
		u, err = hostnameParser.Parse(protocolValue + "://dummy.test")
		if err != nil {
			return "", err
		}
	}

	u, err = hostnameParser.BasicParser(portValue, nil, u, url.StatePort)
	if err != nil {
		return "", err
	}

	p := u.Port()

	// This looks like a bug in the spec ("80 " should be considered valid), but there is a test covering this.
	if p != portValue {
		if dp, ok := DefaultPorts[protocolValue]; ok && portValue == dp {
			return p, nil
		}

		return "", InvalidPortError
	}

	return p, nil
}

// https://urlpattern.spec.whatwg.org/#canonicalize-a-pathname
func canonicalizePathname(value string) (string, error) {
	if value == "" {
		return value, nil
	}

	leadingSlash := []rune(value)[0] == '/'
	var modifiedValue strings.Builder

	if !leadingSlash {
		modifiedValue.WriteString("/-")
	}

	modifiedValue.WriteString(value)

	dummyURL := urlParser.NewUrl()
	u, err := urlParser.BasicParser(modifiedValue.String(), nil, dummyURL, url.StatePathStart)
	if err != nil {
		return "", err
	}

	result := u.Pathname()

	if !leadingSlash {
		result = result[2:]
	}

	return result, nil
}

// https://urlpattern.spec.whatwg.org/#canonicalize-an-opaque-pathname
func canonicalizeOpaquePathname(value string) (string, error) {
	if value == "" {
		return value, nil
	}

	dummyURL := urlParser.NewUrl()

	u, err := urlParser.BasicParser(value, nil, dummyURL, url.StateOpaquePath)
	if err != nil {
		return "", err
	}

	return u.Pathname(), nil
}

// https://urlpattern.spec.whatwg.org/#canonicalize-a-search
func canonicalizeSearch(value string) (string, error) {
	if value == "" {
		return value, nil
	}

	dummyURL := urlParser.NewUrl()

	u, err := urlParser.BasicParser(value, nil, dummyURL, url.StateQuery)
	if err != nil {
		return "", err
	}

	return u.Query(), nil
}

// https://urlpattern.spec.whatwg.org/#canonicalize-a-hash
func canonicalizeHash(value string) (string, error) {
	if value == "" {
		return value, nil
	}

	dummyURL := urlParser.NewUrl()
	u, err := urlParser.BasicParser(value, nil, dummyURL, url.StateFragment)
	if err != nil {
		return "", err
	}

	return u.Fragment(), nil
}

// https://urlpattern.spec.whatwg.org/#canonicalize-an-ipv6-hostname
func canonicalizeIPv6Hostname(value string) (string, error) {
	var result strings.Builder

	for _, c := range value {
		if c != '[' && c != ']' && c != ':' && !unicode.Is(unicode.ASCII_Hex_Digit, c) {
			return "", InvalidIPv6HostnameError
		}

		result.WriteRune(unicode.ToLower(c))
	}

	return result.String(), nil
}

// isSpecialScheme reports whether scheme is one of the six special schemes
// that force segmented-path compilation and default-port suppression.
//
// https://urlpattern.spec.whatwg.org/#special-scheme
func isSpecialScheme(scheme string) bool {
	_, ok := DefaultPorts[scheme]
	return ok
}
