package urlpattern

import (
	"errors"
	"strings"
)

// URLPatternResult is the return value of Exec and ExecInit: one
// ComponentResult per URL component, plus the raw inputs that produced it.
//
// https://wicg.github.io/urlpattern/#dictdef-urlpatternresult
type URLPatternResult struct {
	Inputs   []string
	Protocol URLPatternComponentResult
	Username URLPatternComponentResult
	Password URLPatternComponentResult
	Hostname URLPatternComponentResult
	Port     URLPatternComponentResult
	Pathname URLPatternComponentResult
	Search   URLPatternComponentResult
	Hash     URLPatternComponentResult
}

// URLPatternComponentResult is the match result of a single URL component.
// Groups maps each named or numbered capture to its matched text; a nil
// value means the capture group did not participate in the match (for
// example an optional group that matched zero times).
//
// https://wicg.github.io/urlpattern/#dictdef-urlpatterncomponentresult
type URLPatternComponentResult struct {
	Input  string
	Groups map[string]*string
}

// componentStrings holds the eight raw URL/pattern component values that
// feed a match attempt. Absent components default to the empty string,
// matching the Java reference's Map.getOrDefault(type, "") in match().
type componentStrings struct {
	protocol string
	username string
	password string
	hostname string
	port     string
	pathname string
	search   string
	hash     string
}

func match(pattern *URLPattern, components componentStrings, inputs []string) (*URLPatternResult, error) {
	protocol, err := collectResult(components.protocol, pattern.protocol)
	if err != nil {
		return nil, err
	}

	username, err := collectResult(components.username, pattern.username)
	if err != nil {
		return nil, err
	}

	password, err := collectResult(components.password, pattern.password)
	if err != nil {
		return nil, err
	}

	hostname, err := collectResult(components.hostname, pattern.hostname)
	if err != nil {
		return nil, err
	}

	port, err := collectResult(components.port, pattern.port)
	if err != nil {
		return nil, err
	}

	pathname, err := collectResult(components.pathname, pattern.pathname)
	if err != nil {
		return nil, err
	}

	search, err := collectResult(components.search, pattern.search)
	if err != nil {
		return nil, err
	}

	hash, err := collectResult(components.hash, pattern.hash)
	if err != nil {
		return nil, err
	}

	return &URLPatternResult{
		Inputs:   inputs,
		Protocol: protocol,
		Username: username,
		Password: password,
		Hostname: hostname,
		Port:     port,
		Pathname: pathname,
		Search:   search,
		Hash:     hash,
	}, nil
}

// https://urlpattern.spec.whatwg.org/#url-pattern-match
func collectResult(input string, cv componentValue) (URLPatternComponentResult, error) {
	// Index pairs, not FindStringSubmatch: an unmatched optional group
	// reports [-1, -1] here, which is how an unbound capture (Groups[name]
	// == nil) is told apart from one that matched the empty string.
	loc := cv.regexp.FindStringSubmatchIndex(input)
	if loc == nil {
		return URLPatternComponentResult{}, NoMatchError
	}

	groups := make(map[string]*string, len(cv.groupNames))
	for i, name := range cv.groupNames {
		start, end := loc[(i+1)*2], loc[(i+1)*2+1]
		if start < 0 || end < 0 {
			groups[name] = nil
			continue
		}

		value := input[start:end]
		groups[name] = &value
	}

	return URLPatternComponentResult{Input: input, Groups: groups}, nil
}

// processedInit is the fully-merged, still-partial component map produced
// by processInit. In pattern mode each field is non-nil only if either the
// caller's input or the base URL contributed a value for that component; in
// URL mode every field starts out as the empty string.
//
// https://wicg.github.io/urlpattern/#process-a-urlpatterninit
type processedInit struct {
	protocol *string
	username *string
	password *string
	hostname *string
	port     *string
	pathname *string
	search   *string
	hash     *string
}

func (pi processedInit) getOr(component, fallback string) string {
	var v *string
	switch component {
	case "protocol":
		v = pi.protocol
	case "username":
		v = pi.username
	case "password":
		v = pi.password
	case "hostname":
		v = pi.hostname
	case "port":
		v = pi.port
	case "pathname":
		v = pi.pathname
	case "search":
		v = pi.search
	case "hash":
		v = pi.hash
	}

	if v == nil {
		return fallback
	}

	return *v
}

func (pi processedInit) toComponents() componentStrings {
	return componentStrings{
		protocol: pi.getOr("protocol", ""),
		username: pi.getOr("username", ""),
		password: pi.getOr("password", ""),
		hostname: pi.getOr("hostname", ""),
		port:     pi.getOr("port", ""),
		pathname: pi.getOr("pathname", ""),
		search:   pi.getOr("search", ""),
		hash:     pi.getOr("hash", ""),
	}
}

// processInit merges init (and, if present, init.BaseURL) into a single
// processedInit. When isURL is true, every present component is encoded as
// a literal URL component value (used for ExecInit / match-time component
// maps); when false, components are left as pattern syntax, and any value
// merged in from BaseURL is escaped so its literal characters can't be
// misread as pattern syntax (used at construction time).
//
// https://urlpattern.spec.whatwg.org/#process-a-urlpatterninit
func processInit(init URLPatternInit, isURL bool) (processedInit, error) {
	var result processedInit

	if isURL {
		result.protocol = strPtr("")
		result.username = strPtr("")
		result.password = strPtr("")
		result.hostname = strPtr("")
		result.port = strPtr("")
		result.pathname = strPtr("")
		result.search = strPtr("")
		result.hash = strPtr("")
	}

	baseOpaquePath := ""

	if init.BaseURL != nil {
		base, err := parseURLInput(*init.BaseURL, "")
		if err != nil {
			return processedInit{}, wrapConstructionError(*init.BaseURL, 0, err)
		}

		if _, ok := DefaultPorts[base.protocol]; ok || strings.HasPrefix(base.pathname, "/") {
			if lastSlash := strings.LastIndex(base.pathname, "/"); lastSlash >= 0 {
				baseOpaquePath = base.pathname[:lastSlash+1]
			}
		}

		result.protocol = strPtr(appendPattern(base.protocol, isURL))
		result.username = strPtr(appendPattern(base.username, isURL))
		result.password = strPtr(appendPattern(base.password, isURL))
		result.hostname = strPtr(appendPattern(base.hostname, isURL))
		result.port = strPtr(appendPattern(base.port, isURL))
		result.pathname = strPtr(appendPattern(base.pathname, isURL))
		result.search = strPtr(appendPattern(base.search, isURL))
		result.hash = strPtr(appendPattern(base.hash, isURL))
	}

	if init.Protocol != nil {
		protocol := strings.TrimSuffix(*init.Protocol, ":")
		if isURL {
			encoded, err := canonicalizeProtocol(protocol)
			if err != nil {
				return processedInit{}, wrapConstructionError(protocol, 0, err)
			}
			protocol = encoded
		}
		result.protocol = &protocol
	}

	if init.Username != nil {
		username := *init.Username
		if isURL {
			encoded, err := canonicalizeUsername(username)
			if err != nil {
				return processedInit{}, wrapConstructionError(username, 0, err)
			}
			username = encoded
		}
		result.username = &username
	}

	if init.Password != nil {
		password := *init.Password
		if isURL {
			encoded, err := canonicalizePassword(password)
			if err != nil {
				return processedInit{}, wrapConstructionError(password, 0, err)
			}
			password = encoded
		}
		result.password = &password
	}

	if init.Hostname != nil {
		hostname := *init.Hostname
		if isURL {
			encoded, err := canonicalizeDomainName(hostname)
			if err != nil {
				return processedInit{}, wrapConstructionError(hostname, 0, err)
			}
			hostname = encoded
		}
		result.hostname = &hostname
	}

	var protocolDefaultPort string
	hasProtocolDefaultPort := result.protocol != nil && isSpecialScheme(*result.protocol)
	if hasProtocolDefaultPort {
		protocolDefaultPort = DefaultPorts[*result.protocol]
	}

	if init.Port != nil {
		port := *init.Port
		if hasProtocolDefaultPort && port == protocolDefaultPort {
			port = ""
		}
		if isURL {
			encoded, err := canonicalizePort(port, "")
			if err != nil {
				return processedInit{}, wrapConstructionError(port, 0, err)
			}
			port = encoded
		}
		result.port = &port
	}

	if init.Pathname != nil {
		pathname := *init.Pathname

		isAbsolute := strings.HasPrefix(pathname, "/")
		if !isURL {
			isAbsolute = isAbsolute || strings.HasPrefix(pathname, "\\/") || strings.HasPrefix(pathname, "{/")
		}

		if !isAbsolute {
			pathname = baseOpaquePath + pathname
		}

		if isURL {
			var encoded string
			var err error
			if result.protocol == nil || *result.protocol == "" || hasProtocolDefaultPort {
				encoded, err = canonicalizePathname(pathname)
			} else {
				encoded, err = canonicalizeOpaquePathname(pathname)
			}
			if err != nil {
				return processedInit{}, wrapConstructionError(pathname, 0, err)
			}
			pathname = encoded
		}

		result.pathname = &pathname
	}

	if init.Search != nil {
		search := strings.TrimPrefix(*init.Search, "?")
		if isURL {
			encoded, err := canonicalizeSearch(search)
			if err != nil {
				return processedInit{}, wrapConstructionError(search, 0, err)
			}
			search = encoded
		}
		result.search = &search
	}

	if init.Hash != nil {
		hash := strings.TrimPrefix(*init.Hash, "#")
		if isURL {
			encoded, err := canonicalizeHash(hash)
			if err != nil {
				return processedInit{}, wrapConstructionError(hash, 0, err)
			}
			hash = encoded
		}
		result.hash = &hash
	}

	return result, nil
}

// appendPattern embeds a literal URL component value into a pattern
// string. When isURL is false the value is escaped so pattern-syntax
// characters in it are matched literally; when isURL is true the result is
// a concrete component value rather than a pattern, so it is left
// untouched.
func appendPattern(input string, isURL bool) string {
	if isURL {
		return input
	}

	var b strings.Builder
	for _, c := range input {
		if strings.ContainsRune(`+*?:{}()\`, c) {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}

	return b.String()
}

// NoMatchError indicates a component's compiled regular expression did not
// match the candidate input. It never escapes Exec/ExecInit/Test/TestInit,
// which report non-match as a nil result or false, matching the
// specification's null return rather than an exception.
var NoMatchError = errors.New("component did not match")
