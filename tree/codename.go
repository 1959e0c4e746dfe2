package tree

import (
	"fmt"

	"github.com/richinex/codedir/internal/dsa"
	"github.com/richinex/codedir/model"
	"golang.org/x/exp/slices"
)

// CodenameNode is a node of a CodenameTree.
type CodenameNode = dsa.Node[string]

// CodenameTree names code regions. A code belongs to the region named by
// its longest named prefix. The reverse index lists, per region, the codes
// that define it in the order they were added.
type CodenameTree struct {
	trie  *dsa.PrefixTrie[string]
	codes *dsa.Trie[[]model.Code]
}

// NewCodenameTree creates an empty codename tree.
func NewCodenameTree() *CodenameTree {
	return &CodenameTree{
		trie:  dsa.NewPrefixTrie("", func(name string) bool { return name == "" }),
		codes: dsa.NewTrie[[]model.Code](),
	}
}

// AddCode names code as belonging to name, overwriting any earlier name
// for the same code.
func (c *CodenameTree) AddCode(code model.Code, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name for code %s", model.ErrInvalidRegionName, code)
	}
	c.trie.Set(code, name)
	c.codes.Update(name, func(old []model.Code, _ bool) []model.Code {
		return append(old, code)
	})
	return nil
}

// AddCodeText parses codeText and adds it under name.
func (c *CodenameTree) AddCodeText(codeText, name string) error {
	code, err := model.ParseCode(codeText)
	if err != nil {
		return err
	}
	return c.AddCode(code, name)
}

// CodesForName returns the codes that define name.
func (c *CodenameTree) CodesForName(name string) ([]model.Code, error) {
	codes, ok := c.codes.Search(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownRegion, name)
	}
	return slices.Clone(codes), nil
}

// HasName reports whether any code was added under name.
func (c *CodenameTree) HasName(name string) bool {
	codes, ok := c.codes.Search(name)
	return ok && len(codes) > 0
}

// IsCodeForName reports whether code lies under a code defining name with
// no more specific name in between. Unknown names yield false.
func (c *CodenameTree) IsCodeForName(code model.Code, name string) bool {
	if !c.HasName(name) {
		return false
	}
	n, _ := c.trie.LongestPrefixNode(code)
	named, ok := n.NearestValued()
	if !ok {
		return false
	}
	return named.Value() == name
}

// NameForCode returns the region code belongs to, if any.
func (c *CodenameTree) NameForCode(code model.Code) (string, bool) {
	name, _ := c.trie.ValueForLongestPrefix(code)
	return name, name != ""
}

// ListNames returns every region name in lexical order.
func (c *CodenameTree) ListNames() []string {
	return c.codes.Keys()
}

// NamesWithPrefix returns the region names starting with prefix.
func (c *CodenameTree) NamesWithPrefix(prefix string) []string {
	return c.codes.StartsWith(prefix)
}

// Traverse walks every node in pre-order; see dsa.PrefixTrie.Traverse.
func (c *CodenameTree) Traverse(visit func(CodenameNode) bool) {
	c.trie.Traverse(visit)
}

// Len returns the node count, root included.
func (c *CodenameTree) Len() int {
	return c.trie.Len()
}
