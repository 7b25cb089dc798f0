package awaserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathRoundTrip(t *testing.T) {
	cases := []string{"/3", "/3/0", "/3/0/15", "/10000/0/0", "/65534/65534/65534"}
	for _, s := range cases {
		p, err := ParsePath(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, p.String(), "format(parse(%q))", s)
	}
}

func TestPathIDDomain(t *testing.T) {
	valid := []string{"/0", "/65534", "/3/65534", "/3/0/65534"}
	for _, s := range valid {
		_, err := ParsePath(s)
		assert.NoError(t, err, s)
	}
	invalid := []string{"/65535", "/3/65535", "/3/0/65535", "/-1", "/3/-1", "/65536"}
	for _, s := range invalid {
		_, err := ParsePath(s)
		assert.Error(t, err, s)
	}
}

func TestPathConstructors(t *testing.T) {
	op, err := NewObjectPath(3)
	require.NoError(t, err)
	assert.True(t, op.IsObject())
	assert.Equal(t, "/3", op.String())

	ip, err := NewObjectInstancePath(3, 0)
	require.NoError(t, err)
	assert.True(t, ip.IsObjectInstance())
	assert.Equal(t, "/3/0", ip.String())
	ipParent, ok := ip.Parent()
	require.True(t, ok)
	assert.Equal(t, op, ipParent)

	rp, err := NewResourcePath(3, 0, 15)
	require.NoError(t, err)
	assert.True(t, rp.IsResource())
	assert.Equal(t, "/3/0/15", rp.String())
	rpParent, ok := rp.Parent()
	require.True(t, ok)
	assert.Equal(t, ip, rpParent)
}

func TestPathRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "3", "/", "/3/", "/3/0/15/1", "/abc"} {
		_, err := ParsePath(s)
		assert.Error(t, err, s)
	}
}
