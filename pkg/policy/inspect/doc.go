// Package inspect recovers a structured rule inventory from raw Rego
// policy source.
//
// The scanner is intentionally lexical: it does not parse Rego, it
// recognizes rule heads with a small token classifier and tracks brace
// depth to find the end of each rule body. The output drives
// documentation and coverage-to-source mapping, so it favors best-effort
// recovery over failure: Extract is total over any input, including
// unbalanced or otherwise malformed text.
//
// Each rule carries the comment line immediately above its head as a
// human-readable description. Divider comments (lines of '=' or '-') are
// ignored, and a blank line breaks the association between a comment and
// a following rule.
package inspect
