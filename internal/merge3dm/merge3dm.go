// Package merge3dm is the top-level orchestrator of the syntax-aware merge
// algorithm: parse the three revisions, match them pairwise, fold the
// matchings into a class mapping, encode the trees as PCS triples, clean up
// base/non-base conflicts, reconstruct the merged tree, run signature-based
// post-processing, and render the result.
package merge3dm

import (
	"context"
	"sync"

	"github.com/oxhq/mergo/internal/ast"
	"github.com/oxhq/mergo/internal/classmapping"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/linemerge"
	"github.com/oxhq/mergo/internal/matching"
	"github.com/oxhq/mergo/internal/mergedtree"
	"github.com/oxhq/mergo/internal/pcs"
	"github.com/oxhq/mergo/internal/revision"
	"github.com/oxhq/mergo/internal/settings"
	"github.com/oxhq/mergo/internal/signature"
	"github.com/oxhq/mergo/internal/textrender"
	"github.com/oxhq/mergo/internal/treebuilder"
	"github.com/oxhq/mergo/internal/treematcher"
)

// Result is the outcome of a structured three-way merge.
type Result struct {
	Text         string
	HasConflict  bool
	ConflictMass int
}

// Merge runs the full structured merge pipeline over the three revisions'
// source text, returning the rendered result.
func Merge(ctx context.Context, baseSrc, leftSrc, rightSrc string, profile *langprofile.Profile, s settings.DisplaySettings) (*Result, error) {
	baseRoot, leftRoot, rightRoot, err := parseAll(ctx, baseSrc, leftSrc, rightSrc, profile)
	if err != nil {
		return nil, err
	}

	matcher := treematcher.Default(profile)
	bl, br, lr := matchAll(matcher, baseRoot, leftRoot, rightRoot)

	cm := classmapping.New()
	cm.AddMatching(revision.Base, revision.Left, bl.Exact, true)
	cm.AddMatching(revision.Base, revision.Left, unionRest(bl), false)
	cm.AddMatching(revision.Base, revision.Right, br.Exact, true)
	cm.AddMatching(revision.Base, revision.Right, unionRest(br), false)
	cm.AddMatching(revision.Left, revision.Right, lr.Exact, true)
	cm.AddMatching(revision.Left, revision.Right, unionRest(lr), false)

	cs := pcs.NewChangeSet()
	cs.AddTree(revision.Base, baseRoot, cm)
	cs.AddTree(revision.Left, leftRoot, cm)
	cs.AddTree(revision.Right, rightRoot, cm)
	cs.CleanupBaseConflicts()

	baseCS := pcs.NewChangeSet()
	baseCS.AddTree(revision.Base, baseRoot, cm)

	rootLeader := cm.Leader(revision.Base, baseRoot)
	builder := treebuilder.New(cs, baseCS, cm, profile)
	tree, err := builder.BuildTree(rootLeader)
	if err != nil {
		return nil, err
	}

	tree = signature.Postprocess(tree, cm, profile, func(l classmapping.Leader) *mergedtree.Tree {
		return lineBasedFallback(cm, l)
	})

	text, _ := textrender.Render(tree, s)
	mass := tree.ConflictMassTotal()
	return &Result{Text: text, HasConflict: tree.CountConflicts() > 0 || mass > 0, ConflictMass: mass}, nil
}

func parseAll(ctx context.Context, baseSrc, leftSrc, rightSrc string, profile *langprofile.Profile) (base, left, right *ast.Node, err error) {
	type parsed struct {
		node *ast.Node
		err  error
	}
	run := func(src string) <-chan parsed {
		ch := make(chan parsed, 1)
		go func() {
			arena := ast.NewArena(len(src) / 4)
			n, e := ast.Parse(ctx, src, profile, arena)
			ch <- parsed{n, e}
		}()
		return ch
	}
	baseCh, leftCh, rightCh := run(baseSrc), run(leftSrc), run(rightSrc)
	baseP, leftP, rightP := <-baseCh, <-leftCh, <-rightCh
	if baseP.err != nil {
		return nil, nil, nil, baseP.err
	}
	if leftP.err != nil {
		return nil, nil, nil, leftP.err
	}
	if rightP.err != nil {
		return nil, nil, nil, rightP.err
	}
	return baseP.node, leftP.node, rightP.node, nil
}

func matchAll(matcher *treematcher.Matcher, baseRoot, leftRoot, rightRoot *ast.Node) (bl, br, lr treematcher.DetailedMatching) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); bl = matcher.MatchTrees(baseRoot, leftRoot, nil) }()
	go func() { defer wg.Done(); br = matcher.MatchTrees(baseRoot, rightRoot, nil) }()
	go func() { defer wg.Done(); lr = matcher.MatchTrees(leftRoot, rightRoot, nil) }()
	wg.Wait()
	return bl, br, lr
}

func unionRest(d treematcher.DetailedMatching) *matching.Matching {
	out := matching.New()
	if d.Container != nil {
		out.AddMatching(d.Container)
	}
	if d.Recovery != nil {
		out.AddMatching(d.Recovery)
	}
	return out
}

func lineBasedFallback(cm *classmapping.ClassMapping, l classmapping.Leader) *mergedtree.Tree {
	baseNode, _ := cm.NodeAtRev(l, revision.Base)
	leftNode, _ := cm.NodeAtRev(l, revision.Left)
	rightNode, _ := cm.NodeAtRev(l, revision.Right)
	result := linemerge.Diff3(sourceOf(baseNode), sourceOf(leftNode), sourceOf(rightNode))
	return mergedtree.NewLineBasedMerge(l, result.Text, result.ConflictMass)
}

func sourceOf(n *ast.Node) string {
	if n == nil {
		return ""
	}
	return n.Source
}
