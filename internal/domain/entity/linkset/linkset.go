// Package linkset builds the normalized, deduplicated download link set of a
// case from its fixed URL slots and the free-text multi-URL field.
package linkset

import (
	"net/url"
	"strings"
)

// Link is one download URL tagged with the slot it came from, for diagnostics.
type Link struct {
	URL  string
	Slot string
}

// Set is the derived download link set of a case. Malformed tokens from the
// free-text field are kept so they can be reported as per-link failures
// instead of being silently dropped.
type Set struct {
	Links     []Link
	Malformed []Link
}

// Empty reports whether the set contains no links at all, valid or not.
func (s Set) Empty() bool {
	return len(s.Links) == 0 && len(s.Malformed) == 0
}

// Build assembles a Set from the fixed slot values (in slot order, empty
// entries skipped) and the free-text field. Free text is split on any
// whitespace run. Duplicate URLs keep their first occurrence only.
func Build(slots []Link, freeText string) Set {
	var set Set
	seen := make(map[string]bool)

	add := func(l Link) {
		l.URL = strings.TrimSpace(l.URL)
		if l.URL == "" || seen[l.URL] {
			return
		}
		seen[l.URL] = true
		if err := validate(l.URL); err != nil {
			set.Malformed = append(set.Malformed, l)
			return
		}
		set.Links = append(set.Links, l)
	}

	for _, slot := range slots {
		add(slot)
	}
	for _, token := range strings.Fields(freeText) {
		add(Link{URL: token, Slot: "multi"})
	}

	return set
}

// validate rejects tokens that are not well-formed absolute http(s) URLs.
func validate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrUnsupportedScheme
	}
	if u.Host == "" {
		return ErrMissingHost
	}
	return nil
}
