// Package directory cross-references vendor rate trees with the region
// naming tree to answer "rates of region R from vendor V" and "vendors
// covering region R".
//
// Concurrency:
// - Trees are published whole through atomic pointer stores
// - Queries load each pointer once and work on that snapshot, lock-free
// - Registering a new vendor id copies the vendor table under a writer lock

package directory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/richinex/codedir/internal/dsa"
	"github.com/richinex/codedir/model"
	"github.com/richinex/codedir/tree"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CodeRate is one code of a region together with the vendor's rate for it.
type CodeRate struct {
	Code model.Code `json:"code"`
	Rate model.Rate `json:"rate"`
}

// Rates is the result of RatesFor. Min and Max are model.EmptyRate when no
// code matched.
type Rates struct {
	Rates []CodeRate `json:"rates"`
	Min   model.Rate `json:"min"`
	Max   model.Rate `json:"max"`
}

// VendorRange is one vendor's rate bounds for a region.
type VendorRange struct {
	Vendor model.VendorID `json:"vendor"`
	Min    model.Rate     `json:"min"`
	Max    model.Rate     `json:"max"`
}

// slot holds the current snapshot of one vendor; nil means removed.
type slot = atomic.Pointer[tree.VendorTree]

// vendorTable is never modified after it is published.
type vendorTable map[model.VendorID]*slot

// Directory owns the published region tree and one rate tree per vendor.
// All methods are safe for concurrent use.
type Directory struct {
	mu      sync.Mutex // serialises writers growing the vendor table
	vendors atomic.Pointer[vendorTable]
	regions atomic.Pointer[tree.CodenameTree]
}

// New creates a directory with no vendors and an empty region tree.
func New() *Directory {
	d := &Directory{}
	table := vendorTable{}
	d.vendors.Store(&table)
	d.regions.Store(tree.NewCodenameTree())
	return d
}

// PublishVendor installs t as the vendor's current tree. Queries already
// running keep the tree they loaded. A nil t marks the vendor removed.
func (d *Directory) PublishVendor(id model.VendorID, t *tree.VendorTree) {
	if s, ok := (*d.vendors.Load())[id]; ok {
		s.Store(t)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	current := *d.vendors.Load()
	if s, ok := current[id]; ok {
		s.Store(t)
		return
	}
	next := make(vendorTable, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	s := &slot{}
	s.Store(t)
	next[id] = s
	d.vendors.Store(&next)
}

// PublishRegions installs t as the region tree. A nil t is ignored.
func (d *Directory) PublishRegions(t *tree.CodenameTree) {
	if t == nil {
		return
	}
	d.regions.Store(t)
}

// RemoveVendor marks the vendor removed. The id stays known, so RatesFor
// returns an empty result instead of ErrUnknownVendor. Removing an unknown
// or already removed vendor does nothing.
func (d *Directory) RemoveVendor(id model.VendorID) {
	if s, ok := (*d.vendors.Load())[id]; ok {
		s.Store(nil)
	}
}

// Vendor returns the vendor's current tree, nil if removed.
func (d *Directory) Vendor(id model.VendorID) (*tree.VendorTree, error) {
	s, ok := (*d.vendors.Load())[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", model.ErrUnknownVendor, id)
	}
	return s.Load(), nil
}

// Regions returns the current region tree.
func (d *Directory) Regions() *tree.CodenameTree {
	return d.regions.Load()
}

// RatesForText is RatesFor with the vendor id given as text.
func (d *Directory) RatesForText(vendor, region string) (Rates, error) {
	id, err := model.ParseVendorID(vendor)
	if err != nil {
		return Rates{}, err
	}
	return d.RatesFor(id, region)
}

// RatesFor returns every rate vendor id offers inside region with their
// minimum and maximum, codes in ascending order.
func (d *Directory) RatesFor(id model.VendorID, region string) (Rates, error) {
	vendor, err := d.Vendor(id)
	if err != nil {
		return Rates{}, err
	}
	return ratesFor(vendor, d.regions.Load(), region)
}

func ratesFor(vendor *tree.VendorTree, regions *tree.CodenameTree, region string) (Rates, error) {
	result := Rates{Rates: []CodeRate{}, Min: model.EmptyRate, Max: model.EmptyRate}
	if vendor == nil {
		return result, nil
	}
	codes, err := regions.CodesForName(region)
	if err != nil {
		return Rates{}, err
	}

	// Deepest vendor node for each code defining the region.
	var roots []tree.VendorNode
	seenRoot := map[dsa.NodeID]bool{}
	for _, code := range codes {
		n, ok := vendor.MaxMatchingNode(code)
		if ok && !seenRoot[n.ID()] {
			seenRoot[n.ID()] = true
			roots = append(roots, n)
		}
	}

	// Every rated node below the roots. A rated node seen a second time
	// prunes its subtree, which was already collected from another root.
	collected := map[dsa.NodeID]tree.VendorNode{}
	for _, root := range roots {
		if _, ok := collected[root.ID()]; ok {
			continue
		}
		root.Walk(func(n tree.VendorNode) bool {
			if n.IsEmpty() {
				return true
			}
			if _, ok := collected[n.ID()]; ok {
				return false
			}
			collected[n.ID()] = n
			return true
		})
	}

	// Drop codes renamed to a more specific region.
	for _, n := range collected {
		if !regions.IsCodeForName(n.Code(), region) {
			continue
		}
		r := n.Value().Rate
		result.Rates = append(result.Rates, CodeRate{Code: n.Code(), Rate: r})
		if result.Min.IsEmpty() || r < result.Min {
			result.Min = r
		}
		if result.Max.IsEmpty() || r > result.Max {
			result.Max = r
		}
	}
	slices.SortFunc(result.Rates, func(a, b CodeRate) int {
		return a.Code.Compare(b.Code)
	})
	return result, nil
}

// VendorsFor returns the rate bounds of every vendor with at least one rate
// in region, ordered by vendor id. Removed vendors are skipped.
func (d *Directory) VendorsFor(region string) ([]VendorRange, error) {
	regions := d.regions.Load()
	if _, err := regions.CodesForName(region); err != nil {
		return nil, err
	}

	table := *d.vendors.Load()
	ids := maps.Keys(table)
	slices.Sort(ids)

	result := []VendorRange{}
	for _, id := range ids {
		vendor := table[id].Load()
		if vendor == nil {
			continue
		}
		rates, err := ratesFor(vendor, regions, region)
		if err != nil {
			return nil, err
		}
		if rates.Min.IsEmpty() || rates.Max.IsEmpty() {
			continue
		}
		result = append(result, VendorRange{Vendor: id, Min: rates.Min, Max: rates.Max})
	}
	return result, nil
}

// ListVendors returns every vendor id ever published, removed ones included,
// in ascending order.
func (d *Directory) ListVendors() []model.VendorID {
	ids := maps.Keys(*d.vendors.Load())
	slices.Sort(ids)
	return ids
}

// ActiveVendors returns the ids that currently have a tree, in ascending order.
func (d *Directory) ActiveVendors() []model.VendorID {
	table := *d.vendors.Load()
	ids := make([]model.VendorID, 0, len(table))
	for id, s := range table {
		if s.Load() != nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// ListRegions returns the names of all regions in lexical order.
func (d *Directory) ListRegions() []string {
	return d.regions.Load().ListNames()
}
