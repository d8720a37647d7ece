// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from arbitrary strings.
package slug

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// disallowed matches anything that isn't a letter, digit, underscore,
	// hyphen or whitespace. Unicode letters are kept.
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	// separators collapses runs of whitespace and hyphens into one hyphen.
	separators = regexp.MustCompile(`[-\s]+`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := norm.NFKC.String(s)
	result = strings.ToLower(result)
	result = disallowed.ReplaceAllString(result, "")
	result = strings.TrimSpace(result)
	result = separators.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-_")
	return result
}
