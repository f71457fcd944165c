package urlpattern

import (
	"net/url"
)

// parseURLInput resolves urlInput against baseURL (if non-empty) and
// decomposes the result into the eight URL components used for matching
// and for base-URL merging in processInit.
//
// This is the one place in the module that reaches for the standard
// library's net/url instead of the whatwg-url parser used everywhere else
// (see SPEC_FULL.md, "Standard-library exception: URL resolution"): nothing
// observed in the whatwg-url dependency demonstrates a "resolve input
// against an arbitrary base" entry point, so the resolution step itself
// uses url.Parse + ResolveReference, the same way original_source resolves
// with java.net.URI before decomposing it by hand.
func parseURLInput(urlInput, baseURL string) (componentStrings, error) {
	ref, err := url.Parse(urlInput)
	if err != nil {
		return componentStrings{}, wrapConstructionError(urlInput, 0, err)
	}

	resolved := ref
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return componentStrings{}, wrapConstructionError(baseURL, 0, err)
		}

		resolved = base.ResolveReference(ref)
	}

	var result componentStrings

	result.protocol = resolved.Scheme

	if resolved.User != nil {
		result.username = resolved.User.Username()
		if password, ok := resolved.User.Password(); ok {
			result.password = password
		}
	}

	result.hostname = resolved.Hostname()
	result.port = resolved.Port()

	// A non-hierarchical scheme (data:, javascript:, mailto:, ...) has no
	// authority; net/url parses it into Opaque rather than Path, which
	// already excludes the query and fragment, unlike java.net.URI's
	// getRawSchemeSpecificPart() which lumps all three together and has to
	// be split back apart by hand.
	switch {
	case resolved.Opaque != "":
		result.pathname = resolved.Opaque
	case resolved.Host != "" && resolved.EscapedPath() == "":
		result.pathname = "/"
	default:
		result.pathname = resolved.EscapedPath()
	}

	result.search = resolved.RawQuery
	result.hash = resolved.EscapedFragment()

	return result, nil
}
