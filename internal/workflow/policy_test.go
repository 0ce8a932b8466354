package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePolicy = `
projects:
  alpha:
    todo: [doing]
    doing: [todo, done]
`

func TestParsePolicyAllows(t *testing.T) {
	policy, err := ParsePolicy([]byte(samplePolicy))
	require.NoError(t, err)

	cases := []struct {
		name    string
		project string
		from    string
		to      string
		want    bool
	}{
		{"listed edge", "alpha", "todo", "doing", true},
		{"unlisted edge", "alpha", "todo", "done", false},
		{"terminal status", "alpha", "done", "todo", false},
		{"same status", "alpha", "done", "done", true},
		{"unconfigured project", "beta", "x", "y", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, policy.Allows(tc.project, tc.from, tc.to))
		})
	}
	assert.True(t, policy.Constrains("alpha"))
	assert.False(t, policy.Constrains("beta"))
}

func TestParsePolicyRejectsEmptyTarget(t *testing.T) {
	_, err := ParsePolicy([]byte("projects:\n  alpha:\n    todo: [\"\"]\n"))
	assert.ErrorContains(t, err, "empty target")
}

func TestParsePolicyRejectsMalformedYAML(t *testing.T) {
	_, err := ParsePolicy([]byte("projects: [a, b"))
	assert.ErrorContains(t, err, "failed to parse workflow policy")
}

func TestLoadPolicy(t *testing.T) {
	policy, err := LoadPolicy("")
	require.NoError(t, err)
	assert.True(t, policy.Allows("any", "a", "b"))

	path := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicy), 0o600))
	policy, err = LoadPolicy(path)
	require.NoError(t, err)
	assert.False(t, policy.Allows("alpha", "todo", "done"))

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNilPolicyAllowsEverything(t *testing.T) {
	var policy *Policy
	assert.True(t, policy.Allows("alpha", "todo", "done"))
	assert.False(t, policy.Constrains("alpha"))
}
