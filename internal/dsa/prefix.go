package dsa

import (
	"github.com/richinex/codedir/model"
)

// NodeID indexes a node inside its PrefixTrie. IDs are stable for the life
// of the trie and identify a node when collecting overlapping subtrees.
type NodeID int32

const (
	// RootID is the root node of every PrefixTrie.
	RootID NodeID = 0
	// noNode marks a missing child or the root's parent.
	noNode NodeID = -1
)

// node is one slot of the arena. Children are indexed by digit.
type node[V any] struct {
	code     model.Code
	value    V
	parent   NodeID
	children [10]NodeID
}

// PrefixTrie is a ten-way digit tree searched by longest matching prefix.
//
// Nodes live in a single slice and refer to each other by index, so the
// parent link never owns its target. A trie is built by one writer and only
// then shared; Insert must not run concurrently with any read.
//
// Time Complexity: O(k) per lookup or insert, k = code length (k <= 16).
type PrefixTrie[V any] struct {
	nodes   []node[V]
	empty   V
	isEmpty func(V) bool
}

// NewPrefixTrie creates a trie whose root and intermediate nodes hold empty.
// isEmpty decides which payloads count as "no data".
func NewPrefixTrie[V any](empty V, isEmpty func(V) bool) *PrefixTrie[V] {
	t := &PrefixTrie[V]{
		empty:   empty,
		isEmpty: isEmpty,
	}
	t.nodes = append(t.nodes, t.newNode(model.Code{}, noNode))
	return t
}

func (t *PrefixTrie[V]) newNode(code model.Code, parent NodeID) node[V] {
	n := node[V]{code: code, value: t.empty, parent: parent}
	for i := range n.children {
		n.children[i] = noNode
	}
	return n
}

// Insert stores value at code. If a node for code already exists its payload
// is replaced only when shouldReplace(old) returns true; a nil shouldReplace
// always replaces. Missing intermediate nodes are created with the empty
// payload.
func (t *PrefixTrie[V]) Insert(code model.Code, value V, shouldReplace func(old V) bool) {
	cur, matched := t.longestPrefix(code)
	if matched == code.Len() {
		if shouldReplace == nil || shouldReplace(t.nodes[cur].value) {
			t.nodes[cur].value = value
		}
		return
	}
	for ; matched < code.Len(); matched++ {
		id := NodeID(len(t.nodes))
		t.nodes = append(t.nodes, t.newNode(code.Prefix(matched+1), cur))
		t.nodes[cur].children[code.DigitAt(matched)] = id
		cur = id
	}
	t.nodes[cur].value = value
}

// Set stores value at code unconditionally.
func (t *PrefixTrie[V]) Set(code model.Code, value V) {
	t.Insert(code, value, nil)
}

func (t *PrefixTrie[V]) longestPrefix(code model.Code) (NodeID, int) {
	cur := RootID
	i := 0
	for ; i < code.Len(); i++ {
		next := t.nodes[cur].children[code.DigitAt(i)]
		if next == noNode {
			break
		}
		cur = next
	}
	return cur, i
}

// LongestPrefixNode returns the deepest node reachable by consuming code's
// digits and how many digits were consumed. Zero means only the root matched.
func (t *PrefixTrie[V]) LongestPrefixNode(code model.Code) (Node[V], int) {
	id, matched := t.longestPrefix(code)
	return Node[V]{t: t, id: id}, matched
}

// ExactNode returns the node whose code equals code, if any.
func (t *PrefixTrie[V]) ExactNode(code model.Code) (Node[V], bool) {
	n, matched := t.LongestPrefixNode(code)
	if matched != code.Len() {
		return Node[V]{}, false
	}
	return n, true
}

// ValueForLongestPrefix returns the payload of the longest-prefix node or of
// its closest ancestor holding data, along with the matched digit count.
// The trie's empty value is returned when no such node exists.
func (t *PrefixTrie[V]) ValueForLongestPrefix(code model.Code) (V, int) {
	n, matched := t.LongestPrefixNode(code)
	if v, ok := n.NearestValued(); ok {
		return v.Value(), matched
	}
	return t.empty, matched
}

// Traverse walks the trie in pre-order starting at the root. Returning false
// from visit skips that node's children; the rest of the walk continues.
func (t *PrefixTrie[V]) Traverse(visit func(Node[V]) bool) {
	t.Root().Walk(visit)
}

// Root returns the root node.
func (t *PrefixTrie[V]) Root() Node[V] {
	return Node[V]{t: t, id: RootID}
}

// Len returns the number of nodes, root included.
func (t *PrefixTrie[V]) Len() int {
	return len(t.nodes)
}

// Empty returns the payload used for nodes without data.
func (t *PrefixTrie[V]) Empty() V {
	return t.empty
}

// Node is a read-only handle to a node of a PrefixTrie.
// The zero Node is invalid; handles are only obtained from a trie.
type Node[V any] struct {
	t  *PrefixTrie[V]
	id NodeID
}

// ID returns the node's index, unique within its trie.
func (n Node[V]) ID() NodeID {
	return n.id
}

// Code returns the full code from the root to this node.
func (n Node[V]) Code() model.Code {
	return n.t.nodes[n.id].code
}

// Value returns the node's payload.
func (n Node[V]) Value() V {
	return n.t.nodes[n.id].value
}

// IsEmpty reports whether the payload counts as no data.
func (n Node[V]) IsEmpty() bool {
	return n.t.isEmpty(n.t.nodes[n.id].value)
}

// IsRoot reports whether n is the root node.
func (n Node[V]) IsRoot() bool {
	return n.id == RootID
}

// Parent returns the parent node; the root has none.
func (n Node[V]) Parent() (Node[V], bool) {
	p := n.t.nodes[n.id].parent
	if p == noNode {
		return Node[V]{}, false
	}
	return Node[V]{t: n.t, id: p}, true
}

// Child returns the child for the given digit (0-9).
func (n Node[V]) Child(digit int) (Node[V], bool) {
	c := n.t.nodes[n.id].children[digit]
	if c == noNode {
		return Node[V]{}, false
	}
	return Node[V]{t: n.t, id: c}, true
}

// ChildCount returns how many of the ten child slots are used.
func (n Node[V]) ChildCount() int {
	count := 0
	for _, c := range n.t.nodes[n.id].children {
		if c != noNode {
			count++
		}
	}
	return count
}

// NearestValued returns n itself or its closest ancestor whose payload is
// not empty.
func (n Node[V]) NearestValued() (Node[V], bool) {
	cur := n.id
	for cur != noNode {
		if !n.t.isEmpty(n.t.nodes[cur].value) {
			return Node[V]{t: n.t, id: cur}, true
		}
		cur = n.t.nodes[cur].parent
	}
	return Node[V]{}, false
}

// Walk visits n and its descendants in pre-order, children in digit order.
// Returning false from visit skips the children of that node only.
func (n Node[V]) Walk(visit func(Node[V]) bool) {
	stack := []NodeID{n.id}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(Node[V]{t: n.t, id: id}) {
			continue
		}
		children := &n.t.nodes[id].children
		for d := len(children) - 1; d >= 0; d-- {
			if children[d] != noNode {
				stack = append(stack, children[d])
			}
		}
	}
}
