package treematcher

import "github.com/oxhq/mergo/internal/ast"

// priorityList buckets pending nodes by subtree height, so the top-down
// matching pass can always pop the tallest pending subtrees first.
type priorityList struct {
	buckets map[int][]*ast.Node
	max     int
	hasMax  bool
}

func newPriorityList() *priorityList {
	return &priorityList{buckets: make(map[int][]*ast.Node)}
}

func (p *priorityList) push(n *ast.Node) {
	h := n.Height()
	p.buckets[h] = append(p.buckets[h], n)
	if !p.hasMax || h > p.max {
		p.max = h
		p.hasMax = true
	}
}

// peekMax returns the height of the tallest pending bucket, or -1 if empty.
func (p *priorityList) peekMax() int {
	if !p.hasMax {
		return -1
	}
	return p.max
}

// pop removes and returns every node at the tallest pending height.
func (p *priorityList) pop() []*ast.Node {
	if !p.hasMax {
		return nil
	}
	nodes := p.buckets[p.max]
	delete(p.buckets, p.max)
	p.recomputeMax()
	return nodes
}

// open pushes every child of n back onto the list (used when n itself
// could not be matched at its own height).
func (p *priorityList) open(n *ast.Node) {
	for _, c := range n.Children {
		p.push(c)
	}
}

func (p *priorityList) recomputeMax() {
	p.hasMax = false
	for h := range p.buckets {
		if len(p.buckets[h]) == 0 {
			continue
		}
		if !p.hasMax || h > p.max {
			p.max = h
			p.hasMax = true
		}
	}
}
