// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package readtime estimates how long a piece of rich-text content takes
// to read.
package readtime

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// WordsPerMinute is the assumed reading speed.
const WordsPerMinute = 200

// word matches a run of word characters, unicode-aware.
var word = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// StripTags returns the text content of an HTML fragment with all markup
// removed and entities decoded. Inline tags join their text directly, so
// "Hel<b>lo</b>" stays one word; block-level tags separate words. Script and
// style bodies are dropped.
func StripTags(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip, gap := false, false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			skip = isRawText(string(name))
			gap = gap || isBlock(string(name))
		case html.EndTagToken:
			name, _ := z.TagName()
			skip = false
			gap = gap || isBlock(string(name))
		case html.TextToken:
			if skip {
				continue
			}
			if gap && b.Len() > 0 {
				b.WriteByte(' ')
			}
			gap = false
			b.Write(z.Text())
		}
	}
}

func isRawText(tag string) bool {
	return tag == "script" || tag == "style"
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true,
	"tr": true, "ul": true,
}

// isBlock reports whether tag starts or ends a block of text.
func isBlock(tag string) bool {
	return blockTags[tag]
}

// CountWords strips markup from an HTML string and counts its words.
func CountWords(s string) int {
	return len(word.FindAllStringIndex(StripTags(s), -1))
}

// Estimate returns the number of whole minutes needed to read the
// content, rounded up. Empty content reads in zero minutes.
func Estimate(s string) int {
	n := CountWords(s)
	return (n + WordsPerMinute - 1) / WordsPerMinute
}
