package inspect

import (
	"strings"
	"unicode"
)

// marker classifies what follows a candidate rule name on a head line.
type marker int

const (
	markerNone     marker = iota
	markerAssign          // :=
	markerUnify           // = (a leading '=', so == also matches)
	markerIf              // the keyword if, followed by a space or '{'
	markerContains        // the keyword contains, followed by a space
)

// ruleHead reports whether a trimmed line begins a rule definition, and
// if so returns the rule name.
//
// Two shapes are recognized:
//
//	default <name> ...
//	<name> (:= | = | if | contains) ...
//
// Anything else (expressions, comparisons without a leading identifier,
// reference accesses like a.b.c) is not a rule head.
func ruleHead(line string) (string, bool) {
	if rest, ok := cutKeyword(line, "default"); ok {
		name, _ := identSpan(strings.TrimLeftFunc(rest, unicode.IsSpace))
		return name, name != ""
	}

	name, rest := identSpan(line)
	if name == "" {
		return "", false
	}

	if classifyMarker(strings.TrimLeftFunc(rest, unicode.IsSpace)) == markerNone {
		return "", false
	}
	return name, true
}

// identSpan splits off the longest leading run of identifier characters
// (letters, digits, underscore) and returns it with the remainder.
func identSpan(s string) (string, string) {
	end := len(s)
	for i, r := range s {
		if !isIdentRune(r) {
			end = i
			break
		}
	}
	return s[:end], s[end:]
}

// classifyMarker decides which rule marker, if any, the remainder of a
// head line starts with. ":=" is checked before "=" so assignment is not
// mistaken for unification; "==" still classifies as markerUnify, which
// matches how the scanner has always behaved.
func classifyMarker(rest string) marker {
	switch {
	case strings.HasPrefix(rest, ":="):
		return markerAssign
	case strings.HasPrefix(rest, "="):
		return markerUnify
	case strings.HasPrefix(rest, "if ") || strings.HasPrefix(rest, "if{"):
		return markerIf
	case strings.HasPrefix(rest, "contains "):
		return markerContains
	}
	return markerNone
}

// cutKeyword strips a leading keyword when it is followed by whitespace,
// returning the remainder after the whitespace character.
func cutKeyword(s, keyword string) (string, bool) {
	if !strings.HasPrefix(s, keyword) {
		return "", false
	}
	rest := s[len(keyword):]
	if rest == "" {
		return "", false
	}
	r := []rune(rest)[0]
	if !unicode.IsSpace(r) {
		return "", false
	}
	return rest, true
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
