package inspect

import "testing"

func TestRuleHead(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantOK   bool
	}{
		// Assignment and unification markers.
		{"allow := true", "allow", true},
		{"allow = true", "allow", true},
		{"allow=true", "allow", true},
		{"max_retries := 3", "max_retries", true},

		// A leading '=' in the remainder matches even for '=='. This has
		// always been accepted; top-level comparisons are not valid Rego
		// anyway, and body lines are skipped before we get here.
		{"x == 3", "x", true},

		// if marker: followed by a space or immediately by '{'.
		{"allow if input.admin", "allow", true},
		{"allow if {", "allow", true},
		{"allow if{", "allow", true},
		{"allow ifx", "", false},
		{"allow if(", "", false},

		// contains marker requires a trailing space.
		{"deny contains msg", "deny", true},
		{"deny contains{", "", false},

		// default rules.
		{"default allow := false", "allow", true},
		{"default allow = false", "allow", true},
		{"default x", "x", true},
		{"default allow.x := 1", "allow", true},
		{"default := 1", "", false},
		{"default", "", false},
		{"defaultallow := 1", "defaultallow", true},

		// Not rule heads.
		{"", "", false},
		{"input.user", "", false},
		{"a.b.c := 1", "", false}, // identifier span stops at '.', remainder ".b.c := 1" has no marker
		{":= x", "", false},
		{"{}", "", false},
		{"count(deny) > 0", "", false},
	}

	for _, tt := range tests {
		name, ok := ruleHead(tt.line)
		if ok != tt.wantOK || name != tt.wantName {
			t.Errorf("ruleHead(%q) = (%q, %v), want (%q, %v)",
				tt.line, name, ok, tt.wantName, tt.wantOK)
		}
	}
}

func TestIdentSpan(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantRest string
	}{
		{"allow := true", "allow", " := true"},
		{"_private = 1", "_private", " = 1"},
		{"x9y", "x9y", ""},
		{"", "", ""},
		{".dot", "", ".dot"},
	}

	for _, tt := range tests {
		name, rest := identSpan(tt.in)
		if name != tt.wantName || rest != tt.wantRest {
			t.Errorf("identSpan(%q) = (%q, %q), want (%q, %q)",
				tt.in, name, rest, tt.wantName, tt.wantRest)
		}
	}
}

func TestClassifyMarker(t *testing.T) {
	tests := []struct {
		rest string
		want marker
	}{
		{":= true", markerAssign},
		{"= true", markerUnify},
		{"== 3", markerUnify},
		{"if input.x", markerIf},
		{"if{", markerIf},
		{"contains msg", markerContains},
		{"if", markerNone},
		{"contains", markerNone},
		{"> 3", markerNone},
		{"", markerNone},
	}

	for _, tt := range tests {
		if got := classifyMarker(tt.rest); got != tt.want {
			t.Errorf("classifyMarker(%q) = %v, want %v", tt.rest, got, tt.want)
		}
	}
}

func TestRuleEnd(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		startIdx int
		want     int
	}{
		{
			name:     "single line",
			lines:    []string{`x := {"a": 1}`},
			startIdx: 0,
			want:     1,
		},
		{
			name:     "multi line",
			lines:    []string{"allow if {", "a", "}"},
			startIdx: 0,
			want:     3,
		},
		{
			name:     "nested",
			lines:    []string{"allow if {", `m := {"k": {1, 2}}`, "}"},
			startIdx: 0,
			want:     3,
		},
		{
			name:     "unbalanced falls back to last line",
			lines:    []string{"allow if {", "a"},
			startIdx: 0,
			want:     2,
		},
		{
			name:     "offset start",
			lines:    []string{"package p", "allow if {", "}"},
			startIdx: 1,
			want:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ruleEnd(tt.lines, tt.startIdx); got != tt.want {
				t.Errorf("ruleEnd() = %d, want %d", got, tt.want)
			}
		})
	}
}
