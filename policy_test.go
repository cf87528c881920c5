package pullsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTempFile(t *testing.T) {
	tests := []struct {
		name string
		exp  bool
	}{
		{"~$report.xlsx", true},
		{"~$", true},
		{"~WRL0001.tmp", true},
		{"~$a.txt.tmp", true},
		{"~.tmp", true},
		{"report.tmp", false},
		{"~report.xlsx", false},
		{"report~$.xlsx", false},
		{"a.txt", false},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, IsTempFile(test.name), test.name)
	}
}

func TestExcludes(t *testing.T) {
	policy := Policy{
		ExcludedNames:   []string{"Thumbs.db", "desktop.ini"},
		ExcludePatterns: []string{"*.part", "cache/**"},
	}

	tests := []struct {
		name, rel string
		exp       bool
	}{
		{"Thumbs.db", "Thumbs.db", true},
		{"Thumbs.db", "photos/Thumbs.db", true},
		{"thumbs.db", "thumbs.db", false},
		{"Thumbs.db.bak", "Thumbs.db.bak", false},
		{"movie.part", "movies/movie.part", true},
		{"index", "cache/a/index", true},
		{"index", "data/index", false},
	}

	for _, test := range tests {
		assert.Equal(t, test.exp, policy.Excludes(test.name, test.rel), test.rel)
	}

	assert.False(t, Policy{}.Excludes("Thumbs.db", "Thumbs.db"))
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, Policy{ExcludePatterns: []string{"*.tmp", "a/**/b"}}.Validate())
	assert.Error(t, Policy{ExcludePatterns: []string{"[unterminated"}}.Validate())
}
