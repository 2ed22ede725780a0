package fetch

import (
	"fmt"

	"github.com/gobwas/glob"
)

// AbortRule reports whether an intercepted request should be aborted
// before it reaches the network. Aborting a sub-resource does not fail
// the fetch; the rest of the page proceeds normally.
type AbortRule func(req InterceptedRequest) bool

// AbortPatterns builds a rule aborting every request whose full URL
// matches any of the glob patterns.
func AbortPatterns(patterns ...string) (AbortRule, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid abort pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}

	return func(req InterceptedRequest) bool {
		for _, g := range compiled {
			if g.Match(req.URL()) {
				return true
			}
		}
		return false
	}, nil
}

// AbortResourceTypes builds a rule aborting every request of the given
// engine resource types (for example "image", "media", "font").
func AbortResourceTypes(types ...string) AbortRule {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}

	return func(req InterceptedRequest) bool {
		_, ok := set[req.ResourceType()]
		return ok
	}
}
