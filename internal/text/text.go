// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package text resolves locale-tagged text values to a single display string.
// The upstream API represents most human-readable fields as a list of
// locale/value pairs, sometimes wrapped in one or more container objects
// ({"text": [...]}, {"term": {"text": [...]}}) and sometimes as a plain
// string. LocalizedText normalizes all of those shapes at decode time so the
// precedence rule in Resolve stays a pure function.
package text

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultLocales is the precedence used when Resolve is called without
// explicit locales: English first, then Danish.
var DefaultLocales = []string{"en", "da"}

// LocaleValue is a single locale-tagged variant. An empty Locale marks a
// value that arrived without a locale (e.g. a plain string).
type LocaleValue struct {
	Locale string `json:"locale" yaml:"locale"`
	Value  string `json:"value" yaml:"value"`
}

// LocalizedText is an ordered list of locale variants.
type LocalizedText []LocaleValue

// Plain returns a LocalizedText holding a single untagged value.
func Plain(s string) LocalizedText {
	if s == "" {
		return nil
	}
	return LocalizedText{{Value: s}}
}

// Resolve picks one display string from t. Each locale in locales is tried in
// order, then the first non-empty entry is used; an empty t yields "".
// Locales match on the language part, so "en" matches "en_GB" and "en-US".
func Resolve(t LocalizedText, locales ...string) string {
	if len(locales) == 0 {
		locales = DefaultLocales
	}
	for _, want := range locales {
		for _, lv := range t {
			if lv.Value != "" && localeMatches(lv.Locale, want) {
				return lv.Value
			}
		}
	}
	for _, lv := range t {
		if lv.Value != "" {
			return lv.Value
		}
	}
	return ""
}

// String resolves t with DefaultLocales.
func (t LocalizedText) String() string {
	return Resolve(t)
}

// PickLocale returns the index of the entry in locales order that Resolve
// would pick among keys, or -1 when keys is empty. It applies the same
// precedence to anything keyed by locale (keyword lists, for instance).
func PickLocale(keys []string, locales ...string) int {
	if len(locales) == 0 {
		locales = DefaultLocales
	}
	for _, want := range locales {
		for i, k := range keys {
			if localeMatches(k, want) {
				return i
			}
		}
	}
	if len(keys) == 0 {
		return -1
	}
	return 0
}

func localeMatches(have, want string) bool {
	if have == "" || want == "" {
		return false
	}
	have = strings.ToLower(have)
	want = strings.ToLower(want)
	if have == want {
		return true
	}
	lang := have
	if i := strings.IndexAny(have, "_-"); i >= 0 {
		lang = have[:i]
	}
	return lang == want
}

// UnmarshalJSON accepts every shape the upstream uses for text: null, a
// plain string, an array of strings or locale/value objects, and objects
// wrapping any of those under "text", "term" or "value". Unknown shapes
// decode to an empty value instead of failing the enclosing record.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	*t = parse(data, 0)
	return nil
}

// maxDepth bounds container unwrapping for pathological input.
const maxDepth = 8

func parse(data []byte, depth int) LocalizedText {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || depth > maxDepth {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		return Plain(s)

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		var out LocalizedText
		for _, item := range items {
			out = append(out, parse(item, depth+1)...)
		}
		return out

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		if raw, ok := obj["value"]; ok {
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				var locale string
				if l, ok := obj["locale"]; ok {
					_ = json.Unmarshal(l, &locale)
				}
				if s == "" {
					return nil
				}
				return LocalizedText{{Locale: locale, Value: s}}
			}
			// Some containers nest the localized value under "value".
			return parse(raw, depth+1)
		}
		for _, key := range []string{"text", "term", "name"} {
			if raw, ok := obj[key]; ok {
				return parse(raw, depth+1)
			}
		}
		return nil
	}

	// Numbers, booleans and null carry no text.
	return nil
}
