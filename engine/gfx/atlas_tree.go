package gfx

import (
	"github.com/emirpasic/gods/stacks/arraystack"
)

type nodeState uint8

const (
	nodeUnused nodeState = iota
	nodeUsed
	nodeSplit
	nodeDead // in the free list of the arena
)

const noNode = -1

// node is one rectangle of the atlas. Split nodes have exactly two children
// which tile the parent rectangle.
type node struct {
	x, y, w, h int
	state      nodeState
	parent     int
	child      [2]int
}

// nodeTree is a binary space partition of a w x h area, stored in an arena
// addressed by index. Leaves are either unused or used by one region.
type nodeTree struct {
	nodes []node
	free  []int
}

func newNodeTree(w, h int) nodeTree {
	t := nodeTree{}
	t.newNode(0, 0, w, h, noNode)
	return t
}

func (t *nodeTree) newNode(x, y, w, h, parent int) int {
	n := node{x: x, y: y, w: w, h: h, parent: parent, child: [2]int{noNode, noNode}}
	if k := len(t.free); k > 0 {
		i := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[i] = n
		return i
	}
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

func (t *nodeTree) release(i int) {
	t.nodes[i] = node{state: nodeDead, parent: noNode, child: [2]int{noNode, noNode}}
	t.free = append(t.free, i)
}

// findBest returns the unused leaf with the smallest area that can hold a
// w x h rectangle. Ties go to the first leaf in pre-order.
func (t *nodeTree) findBest(w, h int) int {
	best, bestArea := noNode, 0
	stack := arraystack.New()
	stack.Push(0)
	for !stack.Empty() {
		v, _ := stack.Pop()
		i := v.(int)
		n := &t.nodes[i]
		switch n.state {
		case nodeSplit:
			// push second child first so the first child is visited first
			stack.Push(n.child[1])
			stack.Push(n.child[0])
		case nodeUnused:
			if n.w < w || n.h < h {
				continue
			}
			if area := n.w * n.h; best == noNode || area < bestArea {
				best, bestArea = i, area
			}
		}
	}
	return best
}

// alloc claims a leaf for a w x h rectangle, splitting the best fitting leaf
// in half for as long as the first half still holds the rectangle. The
// longer axis is halved when possible, otherwise the other one (square
// leaves start with the width). Returns noNode when nothing fits.
func (t *nodeTree) alloc(w, h int) int {
	if w <= 0 || h <= 0 {
		return noNode
	}
	i := t.findBest(w, h)
	if i == noNode {
		return noNode
	}
	for {
		n := t.nodes[i]
		var a, b [4]int // x, y, w, h
		hw, hh := n.w/2, n.h/2
		byW, byH := hw >= w, hh >= h
		if !byW && !byH {
			break
		}
		if byW && (n.w >= n.h || !byH) {
			a = [4]int{n.x, n.y, hw, n.h}
			b = [4]int{n.x + hw, n.y, n.w - hw, n.h}
		} else {
			a = [4]int{n.x, n.y, n.w, hh}
			b = [4]int{n.x, n.y + hh, n.w, n.h - hh}
		}
		c0 := t.newNode(a[0], a[1], a[2], a[3], i)
		c1 := t.newNode(b[0], b[1], b[2], b[3], i)
		t.nodes[i].state = nodeSplit
		t.nodes[i].child = [2]int{c0, c1}
		i = c0
	}
	t.nodes[i].state = nodeUsed
	return i
}

// freeLeaf marks a used leaf unused and merges sibling pairs upward while
// both siblings are unused leaves.
func (t *nodeTree) freeLeaf(i int) {
	t.nodes[i].state = nodeUnused
	for p := t.nodes[i].parent; p != noNode; p = t.nodes[p].parent {
		c := t.nodes[p].child
		if t.nodes[c[0]].state != nodeUnused || t.nodes[c[1]].state != nodeUnused {
			return
		}
		t.release(c[0])
		t.release(c[1])
		t.nodes[p].state = nodeUnused
		t.nodes[p].child = [2]int{noNode, noNode}
	}
}

// leaves calls f for every leaf in pre-order.
func (t *nodeTree) leaves(f func(n *node)) {
	stack := arraystack.New()
	stack.Push(0)
	for !stack.Empty() {
		v, _ := stack.Pop()
		n := &t.nodes[v.(int)]
		if n.state == nodeSplit {
			stack.Push(n.child[1])
			stack.Push(n.child[0])
			continue
		}
		f(n)
	}
}
