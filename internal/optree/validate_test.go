package optree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_WellFormed(t *testing.T) {
	tests := []struct {
		name string
		root Operator
	}{
		{"single scan", foreach(scan("A"), "R")},
		{"join core", foreach(join(scan("A"), join(scan("B"), scan("C"))), "R")},
		{"every stage", fullChain()},
		{"merged routines", foreach(scan("A"), "R1", "R2")},
		{"repeated stage", foreach(predicate(predicate(withTag(withTag(scan("A"), "U"), "T"), "q"), "p"), "R")},
		{"skipped stages", foreach(predicate(withoutTag(scan("A"), "T"), "p"), "R")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.root)
			assert.True(t, result.WellFormed, "violations: %v", result.Violations)
			assert.Empty(t, result.Violations)
		})
	}
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name    string
		root    Operator
		message string
	}{
		{"nil root", nil, "nil root"},
		{"scan root", scan("A"), "root is Scan"},
		{"no routines", foreach(scan("A")), "no routines"},
		{"nil child", &Foreach{Routines: nil}, "nil child"},
		{"nested foreach", foreach(foreach(scan("A"), "inner"), "outer"), "Foreach below root"},
		{"foreach in core", foreach(join(scan("A"), foreach(scan("B"), "x")), "R"), "Foreach below root"},
		{"predicate below tag", foreach(withTag(predicate(scan("A"), "p"), "T"), "R"), "predicate filter below with-tag filter"},
		{"with tag below without tag", foreach(withoutTag(withTag(scan("A"), "T"), "U"), "R"), "with-tag filter below without-tag filter"},
		{"tag filter above component filter", foreach(withTag(withComponent(scan("A"), "C"), "T"), "R"), "with-component filter below with-tag filter"},
		{"filter inside join", foreach(join(withTag(scan("A"), "T"), scan("B")), "R"), "TagFilter inside join/scan core"},
		{"join missing right", foreach(join(scan("A"), nil), "R"), "Join has nil right child"},
		{"filter missing child", foreach(withTag(nil, "T"), "R"), "with-tag filter has nil child"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.root)
			assert.False(t, result.WellFormed)
			require.NotEmpty(t, result.Violations)

			found := false
			for _, v := range result.Violations {
				if strings.Contains(v, tt.message) {
					found = true
				}
			}
			assert.True(t, found, "expected %q in %v", tt.message, result.Violations)
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	root := foreach(join(nil, nil))

	result := Validate(root)

	assert.False(t, result.WellFormed)
	assert.Len(t, result.Violations, 3)
}
