// Package stats collects read-only node statistics from published trees.
package stats

import (
	"fmt"
	"strings"

	"github.com/richinex/codedir/directory"
	"github.com/richinex/codedir/internal/dsa"
	"github.com/richinex/codedir/model"
	"github.com/richinex/codedir/tree"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Stats counts nodes, nodes carrying data, and nodes by number of children.
type Stats struct {
	Nodes    int     `json:"nodes"`
	WithData int     `json:"with_data"`
	Children [11]int `json:"children"`
}

// Visitor returns a traversal callback that accumulates into s.
// It never prunes.
func Visitor[V any](s *Stats) func(dsa.Node[V]) bool {
	return func(n dsa.Node[V]) bool {
		s.Nodes++
		if !n.IsEmpty() {
			s.WithData++
		}
		s.Children[n.ChildCount()]++
		return true
	}
}

// Both combines two visitors; the second runs only if the first continues,
// and the node's children are visited only if both return true.
func Both[N any](a, b func(N) bool) func(N) bool {
	return func(n N) bool {
		return a(n) && b(n)
	}
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Nodes += other.Nodes
	s.WithData += other.WithData
	for i, c := range other.Children {
		s.Children[i] += c
	}
}

// String renders the counters one per line.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Node count: %d\n", s.Nodes)
	fmt.Fprintf(&b, "Nodes with data: %d\n", s.WithData)
	parts := make([]string, len(s.Children))
	for i, c := range s.Children {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintf(&b, "Nodes by child count: %s\n", strings.Join(parts, ", "))
	return b.String()
}

// ForVendor collects statistics of one vendor tree.
func ForVendor(v *tree.VendorTree) Stats {
	var s Stats
	if v != nil {
		v.Traverse(Visitor[model.RateRecord](&s))
	}
	return s
}

// ForRegions collects statistics of the region tree.
func ForRegions(c *tree.CodenameTree) Stats {
	var s Stats
	if c != nil {
		c.Traverse(Visitor[string](&s))
	}
	return s
}

// Report aggregates vendor tree statistics across a directory.
type Report struct {
	Global  Stats                    `json:"global"`
	Regions Stats                    `json:"regions"`
	Vendors map[model.VendorID]Stats `json:"vendors,omitempty"`
}

// ForDirectory walks every active vendor tree once. Per-vendor figures are
// kept only when perVendor is set.
func ForDirectory(d *directory.Directory, perVendor bool) Report {
	report := Report{Regions: ForRegions(d.Regions())}
	if perVendor {
		report.Vendors = map[model.VendorID]Stats{}
	}
	for _, id := range d.ActiveVendors() {
		v, err := d.Vendor(id)
		if err != nil || v == nil {
			continue // removed after ActiveVendors read the table
		}
		if !perVendor {
			v.Traverse(Visitor[model.RateRecord](&report.Global))
			continue
		}
		var local Stats
		v.Traverse(Both(Visitor[model.RateRecord](&report.Global), Visitor[model.RateRecord](&local)))
		report.Vendors[id] = local
	}
	return report
}

// String renders per-vendor sections followed by the global figures.
func (r Report) String() string {
	var b strings.Builder
	ids := maps.Keys(r.Vendors)
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "Stats for vendor %d\n%s\n", id, r.Vendors[id])
	}
	fmt.Fprintf(&b, "Region tree\n%s\n", r.Regions)
	fmt.Fprintf(&b, "Global stats\n%s", r.Global)
	return b.String()
}
