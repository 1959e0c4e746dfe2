// Package tree provides the two prefix trees the directory cross-references:
// a per-vendor tree of dated rates and a shared tree naming code regions.
//
// Trees are built privately by one writer and then published read-only;
// none of the methods here synchronise.
package tree

import (
	"github.com/richinex/codedir/internal/dsa"
	"github.com/richinex/codedir/model"
)

// VendorNode is a node of a VendorTree.
type VendorNode = dsa.Node[model.RateRecord]

// VendorTree holds one vendor's rates keyed by dialing code.
type VendorTree struct {
	trie *dsa.PrefixTrie[model.RateRecord]
}

// NewVendorTree creates an empty rate tree.
func NewVendorTree() *VendorTree {
	return &VendorTree{
		trie: dsa.NewPrefixTrie(model.EmptyRecord, model.RateRecord.IsEmpty),
	}
}

// AddRate records rate for code. An existing record is replaced only if it
// is empty or its effective date is strictly earlier, so the latest
// effective date wins and ties keep the first record added.
func (v *VendorTree) AddRate(code model.Code, rate model.Rate, effectiveDate, endDate int64) {
	record := model.EmptyRecord
	if !rate.IsEmpty() {
		record = model.RateRecord{Rate: rate, EffectiveDate: effectiveDate, EndDate: endDate}
	}
	v.trie.Insert(code, record, func(old model.RateRecord) bool {
		return old.IsEmpty() || old.EffectiveDate < effectiveDate
	})
}

// AddRateText parses codeText and rateText and adds the rate. An empty
// rateText adds an empty record. Nothing is added when parsing fails.
func (v *VendorTree) AddRateText(codeText, rateText string, effectiveDate, endDate int64) error {
	code, err := model.ParseCode(codeText)
	if err != nil {
		return err
	}
	rate := model.EmptyRate
	if rateText != "" {
		if rate, err = model.ParseRate(rateText); err != nil {
			return err
		}
	}
	v.AddRate(code, rate, effectiveDate, endDate)
	return nil
}

// MaxMatchingNode returns the deepest node matching a prefix of code.
// The root never matches: false is returned when no digit matched.
func (v *VendorTree) MaxMatchingNode(code model.Code) (VendorNode, bool) {
	n, matched := v.trie.LongestPrefixNode(code)
	if matched == 0 {
		return VendorNode{}, false
	}
	return n, true
}

// MaximumPrefixRate returns the rate of the longest prefix of code that
// has one, or model.EmptyRate.
func (v *VendorTree) MaximumPrefixRate(code model.Code) model.Rate {
	record, _ := v.trie.ValueForLongestPrefix(code)
	return record.Rate
}

// Traverse walks every node in pre-order; see dsa.PrefixTrie.Traverse.
func (v *VendorTree) Traverse(visit func(VendorNode) bool) {
	v.trie.Traverse(visit)
}

// Len returns the node count, root included.
func (v *VendorTree) Len() int {
	return v.trie.Len()
}
