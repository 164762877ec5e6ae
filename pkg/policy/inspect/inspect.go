package inspect

import (
	"strings"
	"unicode"
)

// Rule describes a single rule definition found in policy source.
type Rule struct {
	// Name is the identifier from the rule head.
	Name string `json:"name"`

	// Description is the comment line immediately preceding the rule head,
	// with the comment marker stripped. Empty when no such comment exists.
	Description string `json:"description"`

	// StartLine is the 1-based line number of the rule head.
	StartLine int `json:"start_line"`

	// EndLine is the 1-based line number of the rule's closing brace,
	// inclusive. Equal to StartLine for rules without a body block.
	EndLine int `json:"end_line"`
}

// Extract scans one policy's source text and returns its rules in source
// order. It never fails: malformed or unbalanced input yields a
// best-effort (possibly empty) inventory.
func Extract(source string) []Rule {
	var rules []Rule
	lines := splitLines(source)
	var pendingComments []string

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		lineNum := i + 1

		// Comment line: collect unless it is a section divider.
		if strings.HasPrefix(line, "#") {
			text := strings.TrimSpace(strings.TrimLeft(line, "#"))
			if !isDivider(text) {
				pendingComments = append(pendingComments, text)
			}
			i++
			continue
		}

		// A blank line breaks the comment/rule association.
		if line == "" {
			pendingComments = nil
			i++
			continue
		}

		// Imports and package declarations are not rules and must not
		// inherit pending descriptions.
		if strings.HasPrefix(line, "import ") || strings.HasPrefix(line, "package ") {
			pendingComments = nil
			i++
			continue
		}

		if name, ok := ruleHead(line); ok {
			description := ""
			if len(pendingComments) > 0 {
				description = pendingComments[len(pendingComments)-1]
			}
			pendingComments = nil

			endLine := lineNum
			if strings.ContainsRune(line, '{') {
				endLine = ruleEnd(lines, i)
			}

			rules = append(rules, Rule{
				Name:        name,
				Description: description,
				StartLine:   lineNum,
				EndLine:     endLine,
			})

			// Resume after the consumed body.
			i = endLine
			continue
		}

		pendingComments = nil
		i++
	}

	return rules
}

// ExtractAll applies Extract to every stored policy independently. The
// result maps policy name to that policy's rules in source order.
func ExtractAll(policies map[string]string) map[string][]Rule {
	out := make(map[string][]Rule, len(policies))
	for name, source := range policies {
		out[name] = Extract(source)
	}
	return out
}

// isDivider reports whether a comment's text is a pure section divider:
// nothing but '=', '-', and whitespace. The empty comment counts.
func isDivider(text string) bool {
	for _, r := range text {
		if r != '=' && r != '-' && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// splitLines splits source into lines without their terminators. A
// trailing newline does not produce a final empty line.
func splitLines(source string) []string {
	lines := strings.Split(source, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
