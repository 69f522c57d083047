// Copyright (c) 2025-2026 Fundação Guia
// SPDX-License-Identifier: GPL-3.0-or-later

package codec

import (
	"encoding/json"
	"strings"
)

var (
	tokenCleaner  = strings.NewReplacer(`"`, "", `[`, "", `]`, "", `\`, "")
	bracketSpacer = strings.NewReplacer(`[`, " ", `]`, " ", `"`, " ")
)

// DecodeList decodes a list field. A value starting with "[" is read as a
// JSON array; anything else, including a malformed array, is one element.
func DecodeList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var raw []any
		if err := json.Unmarshal([]byte(s), &raw); err == nil {
			out := make([]string, 0, len(raw))
			for _, v := range raw {
				if tok := cleanToken(Text(v)); tok != "" {
					out = append(out, tok)
				}
			}
			return out
		}
	}
	if tok := cleanToken(s); tok != "" {
		return []string{tok}
	}
	return nil
}

// FirstElement returns the first element of a list field, or "".
func FirstElement(s string) string {
	if items := DecodeList(s); len(items) > 0 {
		return items[0]
	}
	return ""
}

// CoverImage returns the cover image URL of a news item, or "" when the
// first image is not an http(s) URL.
func CoverImage(imagens string) string {
	first := FirstElement(imagens)
	if !strings.Contains(first, "http") {
		return ""
	}
	return first
}

// SplitTags splits a tags field into badge tokens. Both "," and ";"
// separate tokens.
func SplitTags(s string) []string {
	parts := strings.FieldsFunc(tokenCleaner.Replace(s), func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StripBrackets turns a JSON-array-like string into display text.
func StripBrackets(s string) string {
	return strings.TrimSpace(bracketSpacer.Replace(s))
}

func cleanToken(s string) string {
	return strings.TrimSpace(tokenCleaner.Replace(s))
}
