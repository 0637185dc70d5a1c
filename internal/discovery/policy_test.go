package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()
	require.NoError(t, policy.validate())

	r, err := policy.Range("")
	require.NoError(t, err)
	assert.Equal(t, "platform", r.Name)
	assert.Equal(t, uint16(149), r.Start)
	assert.Equal(t, uint16(208), r.End)

	r, err = policy.Range("user")
	require.NoError(t, err)
	assert.Equal(t, uint16(224), r.Start)
	assert.Equal(t, uint16(255), r.End)

	_, err = policy.Range("nope")
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestLoadPolicy_MissingUsesDefault(t *testing.T) {
	policy, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, "platform", policy.DefaultRange)

	policy, err = LoadPolicy(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "platform", policy.DefaultRange)
}

func TestLoadPolicy_File(t *testing.T) {
	path := writePolicy(t, `
default_range = "team"

[[ranges]]
name = "team"
start = 100
end = 120
`)

	policy, err := LoadPolicy(path)
	require.NoError(t, err)

	r, err := policy.Range("")
	require.NoError(t, err)
	assert.Equal(t, "team", r.Name)
	assert.Equal(t, uint16(100), r.Start)
	assert.Equal(t, uint16(120), r.End)
}

func TestLoadPolicy_InvalidTOML(t *testing.T) {
	path := writePolicy(t, "default_range = [[[")

	_, err := LoadPolicy(path)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestLoadPolicy_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "no ranges",
			content: `default_range = "x"`,
			wantErr: ErrInvalidPolicy,
		},
		{
			name: "overlapping ranges",
			content: `
[[ranges]]
name = "a"
start = 100
end = 150

[[ranges]]
name = "b"
start = 140
end = 200
`,
			wantErr: ErrInvalidPolicy,
		},
		{
			name: "collides with builtins",
			content: `
[[ranges]]
name = "a"
start = 10
end = 50
`,
			wantErr: ErrInvalidPolicy,
		},
		{
			name: "beyond wire limit",
			content: `
[[ranges]]
name = "a"
start = 200
end = 300
`,
			wantErr: ErrInvalidPolicy,
		},
		{
			name: "inverted range",
			content: `
[[ranges]]
name = "a"
start = 200
end = 150
`,
			wantErr: ErrInvalidPolicy,
		},
		{
			name: "unknown default range",
			content: `
default_range = "missing"

[[ranges]]
name = "a"
start = 100
end = 150
`,
			wantErr: ErrUnknownRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPolicy(writePolicy(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadPolicy_EmptyDefaultRangeUsesFirst(t *testing.T) {
	path := writePolicy(t, `
[[ranges]]
name = "only"
start = 100
end = 110
`)

	policy, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, "only", policy.DefaultRange)
}

func TestAllocator_Next_Sequential(t *testing.T) {
	a, err := NewAllocator(DefaultPolicy(), "org")
	require.NoError(t, err)

	id, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, uint16(209), id)

	id, err = a.Next()
	require.NoError(t, err)
	assert.Equal(t, uint16(210), id)
}

func TestAllocator_MarkUsed(t *testing.T) {
	a, err := NewAllocator(DefaultPolicy(), "org")
	require.NoError(t, err)

	a.MarkUsed(209)
	a.MarkUsed(211)
	// IDs outside the range are ignored.
	a.MarkUsed(5)
	a.MarkUsed(250)

	id, err := a.Next()
	require.NoError(t, err)
	assert.Equal(t, uint16(210), id)

	id, err = a.Next()
	require.NoError(t, err)
	assert.Equal(t, uint16(212), id)
}

func TestAllocator_Exhaustion(t *testing.T) {
	policy := &AllocationPolicy{
		Ranges: []IDRange{{Name: "tiny", Start: 240, End: 241}},
	}
	require.NoError(t, policy.validate())

	a, err := NewAllocator(policy, "tiny")
	require.NoError(t, err)

	_, err = a.Next()
	require.NoError(t, err)
	_, err = a.Next()
	require.NoError(t, err)

	_, err = a.Next()
	assert.ErrorIs(t, err, ErrRangeExhausted)
}

func TestAllocator_Free(t *testing.T) {
	a, err := NewAllocator(DefaultPolicy(), "org")
	require.NoError(t, err)
	assert.Equal(t, 15, a.Free())

	_, err = a.Next()
	require.NoError(t, err)
	assert.Equal(t, 14, a.Free())
}

func TestNewAllocator_UnknownRange(t *testing.T) {
	_, err := NewAllocator(DefaultPolicy(), "missing")
	assert.ErrorIs(t, err, ErrUnknownRange)
}
