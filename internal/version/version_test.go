package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommitPrefersLinkerValue(t *testing.T) {
	old := GitCommit
	t.Cleanup(func() { GitCommit = old })

	GitCommit = "abc1234"
	assert.Equal(t, "abc1234", Commit())
}

func TestCommitFallsBack(t *testing.T) {
	old := GitCommit
	t.Cleanup(func() { GitCommit = old })

	GitCommit = Unknown
	// Test binaries carry no VCS stamp.
	assert.NotEmpty(t, Commit())
}

func TestRevision(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
		want     string
	}{
		{"none", nil, Unknown},
		{"short", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}, "abc"},
		{
			"truncated",
			[]debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef0123"}},
			"0123456789ab",
		},
		{
			"dirty",
			[]debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc"},
				{Key: "vcs.modified", Value: "true"},
			},
			"abc-dirty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, revision(tt.settings))
		})
	}
}
