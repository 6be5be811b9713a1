package sax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTree(t *testing.T) {
	root, err := Build(strings.NewReader(`<a x="1"><b>hi</b><c/></a>`), Options{})
	require.NoError(t, err)

	assert.Equal(t, "a", root.Name)
	require.Len(t, root.Attributes, 1)
	assert.Equal(t, "x", root.Attributes[0].Name)
	require.Len(t, root.Children, 2)

	b := root.Children[0].(*Element)
	assert.Equal(t, "b", b.Name)
	require.Len(t, b.Children, 1)
	assert.Equal(t, "hi", b.Children[0].(string))

	c := root.Children[1].(*Element)
	assert.Equal(t, "c", c.Name)
	assert.Empty(t, c.Children)
}

func TestTreeStringRoundTrip(t *testing.T) {
	root, err := Build(strings.NewReader(`<a x="1"><b>hi &amp; bye</b><c/></a>`), Options{})
	require.NoError(t, err)
	assert.Equal(t, `<a x="1"><b>hi &amp; bye</b><c></c></a>`, root.String())
}

func TestBuildRejectsBrokenDocument(t *testing.T) {
	_, err := Build(strings.NewReader(`<a><b>`), Options{Strict: true})
	assert.Error(t, err)
}

func TestBuildEmptyInput(t *testing.T) {
	_, err := Build(strings.NewReader(``), Options{})
	assert.Error(t, err)
}

func TestPrettyPrint(t *testing.T) {
	root, err := Build(strings.NewReader(`<a><b>hi</b></a>`), Options{})
	require.NoError(t, err)
	var sb strings.Builder
	root.PrettyPrint(&sb, 0)
	assert.Equal(t, "<a>\n  <b>hi</b>\n</a>\n", sb.String())
}
