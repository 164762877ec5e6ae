package inspect

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtract_Empty(t *testing.T) {
	if rules := Extract(""); len(rules) != 0 {
		t.Errorf("Extract(\"\") = %v, want empty", rules)
	}
}

func TestExtract_NoRules(t *testing.T) {
	sources := []string{
		"package example\n",
		"package example\n\nimport rego.v1\n",
		"# just a comment\n# another comment\n",
		"# =========\n# ---------\n",
	}

	for _, source := range sources {
		if rules := Extract(source); len(rules) != 0 {
			t.Errorf("Extract(%q) = %v, want empty", source, rules)
		}
	}
}

func TestExtract_DefaultRule(t *testing.T) {
	source := "package p\n\n# desc\ndefault x := 1\n"

	rules := Extract(source)

	want := []Rule{{Name: "x", Description: "desc", StartLine: 4, EndLine: 4}}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("Extract() = %v, want %v", rules, want)
	}
}

func TestExtract_DefaultRuleWithComment(t *testing.T) {
	source := strings.Join([]string{
		"package authz",
		"# default deny",
		"default allow := false",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}

	rule := rules[0]
	if rule.Name != "allow" {
		t.Errorf("rule.Name = %q, want %q", rule.Name, "allow")
	}
	if rule.Description != "default deny" {
		t.Errorf("rule.Description = %q, want %q", rule.Description, "default deny")
	}
	if rule.StartLine != 3 || rule.EndLine != 3 {
		t.Errorf("rule lines = %d-%d, want 3-3", rule.StartLine, rule.EndLine)
	}
}

func TestExtract_BracedBody(t *testing.T) {
	source := strings.Join([]string{
		"package authz",
		"",
		"allow if {",
		"	input.user == \"admin\"",
		"	input.action == \"read\"",
		"}",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}

	if rules[0].StartLine != 3 {
		t.Errorf("StartLine = %d, want 3", rules[0].StartLine)
	}
	if rules[0].EndLine != 6 {
		t.Errorf("EndLine = %d, want 6", rules[0].EndLine)
	}
	if rules[0].EndLine != rules[0].StartLine+3 {
		t.Errorf("EndLine-StartLine = %d, want 3", rules[0].EndLine-rules[0].StartLine)
	}
}

func TestExtract_NestedBraces(t *testing.T) {
	source := strings.Join([]string{
		"allow if {",
		"	x := {\"a\": 1}",
		"	some y in {1, 2, 3}",
		"	y > x.a",
		"}",
		"",
		"deny := true",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 2 {
		t.Fatalf("Extract() returned %d rules, want 2", len(rules))
	}
	if rules[0].EndLine != 5 {
		t.Errorf("allow EndLine = %d, want 5", rules[0].EndLine)
	}
	if rules[1].StartLine != 7 {
		t.Errorf("deny StartLine = %d, want 7", rules[1].StartLine)
	}
}

func TestExtract_UnbalancedBraces(t *testing.T) {
	source := "allow if {\n\tinput.x\n"

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}
	// Best-effort recovery: the rule is scoped to the last line.
	if rules[0].EndLine != 2 {
		t.Errorf("EndLine = %d, want 2 (last line)", rules[0].EndLine)
	}
}

func TestExtract_DescriptionIsLastCommentOnly(t *testing.T) {
	source := strings.Join([]string{
		"# first comment",
		"# second comment",
		"allow := true",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}
	if rules[0].Description != "second comment" {
		t.Errorf("Description = %q, want %q", rules[0].Description, "second comment")
	}
}

func TestExtract_BlankLineClearsDescription(t *testing.T) {
	source := strings.Join([]string{
		"# orphaned comment",
		"",
		"allow := true",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}
	if rules[0].Description != "" {
		t.Errorf("Description = %q, want empty", rules[0].Description)
	}
}

func TestExtract_DividerNotADescription(t *testing.T) {
	sources := []string{
		"# =======\nallow := true\n",
		"# -------\nallow := true\n",
		"# = - = - =\nallow := true\n",
		"#\nallow := true\n",
	}

	for _, source := range sources {
		rules := Extract(source)
		if len(rules) != 1 {
			t.Fatalf("Extract(%q) returned %d rules, want 1", source, len(rules))
		}
		if rules[0].Description != "" {
			t.Errorf("Extract(%q) Description = %q, want empty", source, rules[0].Description)
		}
	}
}

func TestExtract_DividerDoesNotShadowEarlierComment(t *testing.T) {
	// The divider is skipped entirely, so the real comment above it is
	// still the closest pending comment.
	source := strings.Join([]string{
		"# checks admin access",
		"# =====================",
		"allow := true",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}
	if rules[0].Description != "checks admin access" {
		t.Errorf("Description = %q, want %q", rules[0].Description, "checks admin access")
	}
}

func TestExtract_PackageAndImportClearComments(t *testing.T) {
	source := strings.Join([]string{
		"# package doc, not a rule description",
		"package authz",
		"allow := true",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}
	if rules[0].Description != "" {
		t.Errorf("Description = %q, want empty", rules[0].Description)
	}
}

func TestExtract_DescriptionConsumedOnce(t *testing.T) {
	source := strings.Join([]string{
		"# shared comment",
		"first := 1",
		"second := 2",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 2 {
		t.Fatalf("Extract() returned %d rules, want 2", len(rules))
	}
	if rules[0].Description != "shared comment" {
		t.Errorf("first Description = %q, want %q", rules[0].Description, "shared comment")
	}
	if rules[1].Description != "" {
		t.Errorf("second Description = %q, want empty", rules[1].Description)
	}
}

func TestExtract_SourceOrder(t *testing.T) {
	source := strings.Join([]string{
		"package authz",
		"",
		"default allow := false",
		"",
		"allow if {",
		"	input.admin",
		"}",
		"",
		"deny contains msg if {",
		"	msg := \"nope\"",
		"}",
		"",
		"violations := count(deny)",
	}, "\n")

	rules := Extract(source)

	wantNames := []string{"allow", "allow", "deny", "violations"}
	if len(rules) != len(wantNames) {
		t.Fatalf("Extract() returned %d rules, want %d", len(rules), len(wantNames))
	}

	for i, rule := range rules {
		if rule.Name != wantNames[i] {
			t.Errorf("rules[%d].Name = %q, want %q", i, rule.Name, wantNames[i])
		}
		if rule.EndLine < rule.StartLine {
			t.Errorf("rules[%d] EndLine %d < StartLine %d", i, rule.EndLine, rule.StartLine)
		}
		if i > 0 && rule.StartLine <= rules[i-1].StartLine {
			t.Errorf("rules[%d].StartLine = %d, not ascending after %d",
				i, rule.StartLine, rules[i-1].StartLine)
		}
	}
}

func TestExtract_DuplicateRuleNamesPreserved(t *testing.T) {
	source := strings.Join([]string{
		"allow if {",
		"	input.admin",
		"}",
		"allow if {",
		"	input.owner",
		"}",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 2 {
		t.Fatalf("Extract() returned %d rules, want 2", len(rules))
	}
	if rules[0].Name != "allow" || rules[1].Name != "allow" {
		t.Errorf("rule names = %q, %q, want both %q", rules[0].Name, rules[1].Name, "allow")
	}
}

func TestExtract_BodyLinesNotScanned(t *testing.T) {
	// Lines inside a consumed rule body must not be recognized as heads.
	source := strings.Join([]string{
		"allow if {",
		"	x := 1",
		"	y := 2",
		"}",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}
}

func TestExtract_ReopenedBracesOnOneLine(t *testing.T) {
	// "} {" keeps the depth check at line granularity honest: depth dips
	// to zero mid-line but the line ends back at depth one.
	source := strings.Join([]string{
		"allow if {",
		"	a",
		"} {",
		"	b",
		"}",
	}, "\n")

	rules := Extract(source)

	if len(rules) != 1 {
		t.Fatalf("Extract() returned %d rules, want 1", len(rules))
	}
	if rules[0].EndLine != 5 {
		t.Errorf("EndLine = %d, want 5", rules[0].EndLine)
	}
}

func TestExtract_CRLFInput(t *testing.T) {
	source := "package p\r\n\r\n# desc\r\ndefault x := 1\r\n"

	rules := Extract(source)

	want := []Rule{{Name: "x", Description: "desc", StartLine: 4, EndLine: 4}}
	if !reflect.DeepEqual(rules, want) {
		t.Errorf("Extract() = %v, want %v", rules, want)
	}
}

func TestExtract_NeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"{{{{{",
		"}}}}}",
		"allow if {",
		"####",
		"default",
		"default ",
		":= x",
		strings.Repeat("a := 1\n", 1000),
	}

	for _, input := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Extract(%q) panicked: %v", input, r)
				}
			}()
			Extract(input)
		}()
	}
}

func TestExtractAll(t *testing.T) {
	policies := map[string]string{
		"authz.rego": "package authz\n\ndefault allow := false\n",
		"empty.rego": "package empty\n",
	}

	all := ExtractAll(policies)

	if len(all) != 2 {
		t.Fatalf("ExtractAll() returned %d entries, want 2", len(all))
	}
	if len(all["authz.rego"]) != 1 {
		t.Errorf("authz.rego rules = %d, want 1", len(all["authz.rego"]))
	}
	if len(all["empty.rego"]) != 0 {
		t.Errorf("empty.rego rules = %d, want 0", len(all["empty.rego"]))
	}
}

func TestExtractAll_NoCrossContamination(t *testing.T) {
	// A trailing comment in one policy must not leak into another.
	policies := map[string]string{
		"a.rego": "package a\n# dangling comment",
		"b.rego": "package b\nallow := true\n",
	}

	all := ExtractAll(policies)

	if got := all["b.rego"][0].Description; got != "" {
		t.Errorf("b.rego Description = %q, want empty", got)
	}
}

func TestExtract_Recompute(t *testing.T) {
	source := "allow := true\n"

	first := Extract(source)
	second := Extract(source)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated Extract() differ: %v vs %v", first, second)
	}

	// Output is owned by the caller; mutating it must not affect later calls.
	first[0].Name = "mutated"
	third := Extract(source)
	if third[0].Name != "allow" {
		t.Errorf("Extract() after mutation = %q, want %q", third[0].Name, "allow")
	}
}
