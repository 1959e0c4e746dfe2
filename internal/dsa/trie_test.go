package dsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrieInsertSearch(t *testing.T) {
	tr := NewTrie[int]()
	tr.Insert("China Proper", 1)
	tr.Insert("China Mobile", 2)
	tr.Insert("China Proper", 3)

	v, ok := tr.Search("China Proper")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, tr.Size())

	_, ok = tr.Search("China")
	assert.False(t, ok)
}

func TestTrieUpdate(t *testing.T) {
	tr := NewTrie[[]string]()
	appendCode := func(c string) func([]string, bool) []string {
		return func(old []string, _ bool) []string { return append(old, c) }
	}
	tr.Update("China Proper", appendCode("86"))
	tr.Update("China Proper", appendCode("8620"))

	v, ok := tr.Search("China Proper")
	assert.True(t, ok)
	assert.Equal(t, []string{"86", "8620"}, v)
}

func TestTrieStartsWith(t *testing.T) {
	tr := NewTrie[int]()
	for i, name := range []string{"Example", "China Proper", "China CNC", "China Mobile"} {
		tr.Insert(name, i)
	}
	assert.Equal(t, []string{"China CNC", "China Mobile", "China Proper"}, tr.StartsWith("China"))
	assert.Equal(t, []string{"China CNC", "China Mobile", "China Proper", "Example"}, tr.Keys())
	assert.Empty(t, tr.StartsWith("Zz"))
}
