// Package dsa provides the tree structures behind the rate directory: a
// ten-way digit trie searched by longest prefix, and a radix tree for
// string keys such as region names.
package dsa

import (
	"github.com/armon/go-radix"
)

// Trie wraps go-radix for string keys with typed values.
// Keys are kept compressed, so long shared name prefixes
// ("China Proper", "China Mobile") cost one edge each.
//
// Reads are safe for concurrent use once the trie is no longer written.
type Trie[V any] struct {
	tree *radix.Tree
}

// NewTrie creates an empty radix trie.
func NewTrie[V any]() *Trie[V] {
	return &Trie[V]{tree: radix.New()}
}

// Insert stores value under key, replacing any previous value.
func (t *Trie[V]) Insert(key string, value V) {
	t.tree.Insert(key, value)
}

// Update replaces the value under key with fn(old, found).
func (t *Trie[V]) Update(key string, fn func(old V, found bool) V) {
	old, found := t.Search(key)
	t.tree.Insert(key, fn(old, found))
}

// Search looks up a key.
func (t *Trie[V]) Search(key string) (V, bool) {
	val, found := t.tree.Get(key)
	if !found {
		var zero V
		return zero, false
	}
	v, ok := val.(V)
	return v, ok
}

// StartsWith returns all keys beginning with prefix, in lexical order.
// Time Complexity: O(k + m) where k is prefix length, m is number of matches.
func (t *Trie[V]) StartsWith(prefix string) []string {
	results := []string{}
	t.tree.WalkPrefix(prefix, func(k string, _ interface{}) bool {
		results = append(results, k)
		return false // keep walking
	})
	return results
}

// Keys returns every key in lexical order.
func (t *Trie[V]) Keys() []string {
	return t.StartsWith("")
}

// Size returns the number of keys.
func (t *Trie[V]) Size() int {
	return t.tree.Len()
}
