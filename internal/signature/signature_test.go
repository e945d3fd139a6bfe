package signature

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/langprofile/builtin"
)

func goProfile(t *testing.T) *langprofile.Profile {
	t.Helper()
	r := langprofile.NewRegistry()
	builtin.Register(r)
	p, ok := r.ByName("go")
	require.True(t, ok)
	return p
}

func findByKind(n *ast.Node, kind string) *ast.Node {
	if n.GrammarName == kind {
		return n
	}
	for _, c := range n.Children {
		if found := findByKind(c, kind); found != nil {
			return found
		}
	}
	return nil
}

func TestFromNodeExtractsImportSpecPath(t *testing.T) {
	profile := goProfile(t)
	src := "package p\n\nimport (\n\t\"fmt\"\n)\n"
	arena := ast.NewArena(len(src))
	root, err := ast.Parse(context.Background(), src, profile, arena)
	require.NoError(t, err)

	importSpec := findByKind(root, "import_spec")
	require.NotNil(t, importSpec)

	key, ok := FromNode(importSpec, profile)

	require.True(t, ok)
	assert.Equal(t, []string{`"fmt"`}, key.Parts)
}

func TestFromNodeNoSignatureDeclaredForKind(t *testing.T) {
	profile := goProfile(t)
	src := "package p\n"
	arena := ast.NewArena(len(src))
	root, err := ast.Parse(context.Background(), src, profile, arena)
	require.NoError(t, err)

	_, ok := FromNode(root, profile)

	assert.False(t, ok)
}

func TestKeyEqualRequiresSamePartsInOrder(t *testing.T) {
	a := Key{Parts: []string{"x", "y"}}
	b := Key{Parts: []string{"x", "y"}}
	c := Key{Parts: []string{"y", "x"}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
