// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package urlmatch canonicalizes and compares URLs for source matching.
// The comparison is intentionally lossy: it is a credibility/identity
// heuristic used to reconcile LLM-proposed URLs with provider results,
// not byte-exact URL equality.
package urlmatch

import "strings"

// Normalize returns a canonical form of url: lower-cased, whitespace
// trimmed, a single trailing slash removed, the http/https scheme
// stripped, and a leading "www." stripped.
func Normalize(url string) string {
	u := strings.ToLower(strings.TrimSpace(url))
	u = strings.TrimSuffix(u, "/")
	for _, prefix := range []string{"http://", "https://"} {
		if strings.HasPrefix(u, prefix) {
			u = strings.TrimPrefix(u, prefix)
			break
		}
	}
	u = strings.TrimPrefix(u, "www.")
	return u
}

// Match reports whether two URLs refer to the same source. It returns
// true when the normalized forms are equal, or when both URLs share the
// same authority (first path segment) even if their paths differ.
func Match(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return true
	}
	return Domain(na) == Domain(nb)
}

// Domain returns the authority portion of an already-normalized URL.
func Domain(normalized string) string {
	if i := strings.IndexByte(normalized, '/'); i >= 0 {
		return normalized[:i]
	}
	return normalized
}
