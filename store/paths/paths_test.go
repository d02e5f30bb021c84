package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoot(t *testing.T) {
	assert.Equal(t, "acme$Person/101", NewRoot("acme", "Person", "101"))
}

func TestNewChild(t *testing.T) {
	parent := NewRoot("acme", "Department", "D1")
	child := NewChild(parent, "acme", "Team", "T1")

	assert.Equal(t, "acme$Department/D1/acme$Team/T1", child)
}

func TestEscapeRoundTrip(t *testing.T) {
	segment := Escape("acme/Person")
	assert.Equal(t, "acme$Person", segment)

	module, name, ok := Unescape(segment)
	require.True(t, ok)
	assert.Equal(t, "acme", module)
	assert.Equal(t, "Person", name)
}

func TestSplit(t *testing.T) {
	segments, err := Split("acme$Department/D1/acme$Team/T1/acme$Member/M1")
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, Segment{Module: "acme", Name: "Department", ID: "D1"}, segments[0])
	assert.Equal(t, Segment{Module: "acme", Name: "Team", ID: "T1"}, segments[1])
	assert.Equal(t, Segment{Module: "acme", Name: "Member", ID: "M1"}, segments[2])
	assert.Equal(t, "acme/Member", segments[2].Fq())
}

func TestSplitMalformed(t *testing.T) {
	cases := []string{
		"",
		"acme$Person",
		"acme$Person/101/acme$Pet",
		"noescape/101",
		"acme$Person/",
	}

	for _, path := range cases {
		_, err := Split(path)
		assert.Error(t, err, "path %q should not parse", path)
	}
}

func TestAncestors(t *testing.T) {
	ancestors, err := Ancestors("acme$Department/D1/acme$Team/T1/acme$Member/M1")
	require.NoError(t, err)
	require.Len(t, ancestors, 2)

	assert.Equal(t, "acme/Team", ancestors[0].Fq())
	assert.Equal(t, "acme$Department/D1/acme$Team/T1", ancestors[0].Path)

	assert.Equal(t, "acme/Department", ancestors[1].Fq())
	assert.Equal(t, "acme$Department/D1", ancestors[1].Path)
}

func TestAncestorsRoot(t *testing.T) {
	ancestors, err := Ancestors("acme$Person/101")
	require.NoError(t, err)
	assert.Empty(t, ancestors)
}

func TestIsDescendantOf(t *testing.T) {
	assert.True(t, IsDescendantOf("acme$Department/D1/acme$Team/T1", "acme$Department/D1"))
	assert.False(t, IsDescendantOf("acme$Department/D1", "acme$Department/D1"))
	assert.False(t, IsDescendantOf("acme$Department/D10", "acme$Department/D1"))
}
