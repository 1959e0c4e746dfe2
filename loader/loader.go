// Package loader builds rate and region trees from the rate table and
// publishes them into a directory.
//
// Information Hiding:
// - Trees are assembled privately and published only when complete
// - Unchanged vendors are detected by fingerprint and not republished
// - Rows that fail validation are skipped and counted, never published

package loader

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/kashari/golog"
	"github.com/richinex/codedir/directory"
	"github.com/richinex/codedir/model"
	"github.com/richinex/codedir/storage"
	"github.com/richinex/codedir/tree"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// RateSource is the external rate table. *storage.SqliteStorage implements it.
type RateSource interface {
	ListVendorIDs(ctx context.Context) ([]model.VendorID, error)
	ScanRates(ctx context.Context, vendor model.VendorID, pageSize int, fn func(storage.RateRow) error) error
	ScanCodenames(ctx context.Context, pageSize int, fn func(storage.CodenameRow) error) error
}

// Options tunes a Loader.
type Options struct {
	PageSize int  // rows fetched per query
	Workers  int  // vendor trees built in parallel
	Verbose  bool // log progress lines; skipped rows and failures are always logged
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{PageSize: 1000, Workers: 1}
}

// VendorReport describes one vendor build.
type VendorReport struct {
	Vendor      model.VendorID `json:"vendor"`
	Rows        int            `json:"rows"`
	Skipped     int            `json:"skipped"`
	Nodes       int            `json:"nodes"`
	Published   bool           `json:"published"`
	Fingerprint uint64         `json:"fingerprint"`
}

// RegionReport describes one region tree build.
type RegionReport struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
	Names   int `json:"names"`
	Nodes   int `json:"nodes"`
}

// Report summarises a Sync.
type Report struct {
	Batch    string           `json:"batch"`
	Regions  RegionReport     `json:"regions"`
	Vendors  []VendorReport   `json:"vendors"`
	Removed  []model.VendorID `json:"removed"`
	Duration time.Duration    `json:"duration"`
}

// Published returns how many vendor trees the sync replaced.
func (r Report) Published() int {
	n := 0
	for _, v := range r.Vendors {
		if v.Published {
			n++
		}
	}
	return n
}

// Loader moves data from a RateSource into a Directory. It is the
// directory's only writer; Sync calls are serialised.
type Loader struct {
	source RateSource
	dir    *directory.Directory
	opts   Options

	syncMu       sync.Mutex
	mu           sync.Mutex
	fingerprints map[model.VendorID]uint64
}

// New creates a loader publishing into dir.
func New(source RateSource, dir *directory.Directory, opts Options) *Loader {
	defaults := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = defaults.PageSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	return &Loader{
		source:       source,
		dir:          dir,
		opts:         opts,
		fingerprints: map[model.VendorID]uint64{},
	}
}

// LoadRegions rebuilds the region tree and publishes it.
func (l *Loader) LoadRegions(ctx context.Context) (RegionReport, error) {
	var report RegionReport
	regions := tree.NewCodenameTree()

	err := l.source.ScanCodenames(ctx, l.opts.PageSize, func(row storage.CodenameRow) error {
		report.Rows++
		if err := regions.AddCodeText(row.Code, row.Name); err != nil {
			report.Skipped++
			golog.Warn("Skipping codename row {}: {}", row.ID, err)
		}
		return nil
	})
	if err != nil {
		return RegionReport{}, fmt.Errorf("failed to load codenames: %w", err)
	}

	report.Names = len(regions.ListNames())
	report.Nodes = regions.Len()
	l.dir.PublishRegions(regions)
	if l.opts.Verbose {
		golog.Info("Published region tree: {} names, {} nodes", report.Names, report.Nodes)
	}
	return report, nil
}

// LoadVendor rebuilds one vendor's tree. The tree is published unless its
// rows are identical to the ones last published for that vendor.
func (l *Loader) LoadVendor(ctx context.Context, id model.VendorID) (VendorReport, error) {
	report := VendorReport{Vendor: id}
	vendor := tree.NewVendorTree()
	digest := xxhash.New()

	err := l.source.ScanRates(ctx, id, l.opts.PageSize, func(row storage.RateRow) error {
		report.Rows++
		if err := vendor.AddRateText(row.Code, row.Rate, row.EffectiveDate, row.EndDate); err != nil {
			report.Skipped++
			golog.Warn("Skipping rate row {} of vendor {}: {}", row.ID, id, err)
			return nil
		}
		writeRow(digest, row)
		return nil
	})
	if err != nil {
		return VendorReport{}, fmt.Errorf("failed to load rates of vendor %d: %w", id, err)
	}

	report.Fingerprint = digest.Sum64()
	report.Nodes = vendor.Len()

	l.mu.Lock()
	defer l.mu.Unlock()

	previous, known := l.fingerprints[id]
	current, _ := l.dir.Vendor(id)
	if known && previous == report.Fingerprint && current != nil {
		if l.opts.Verbose {
			golog.Info("Vendor {} unchanged, keeping published tree", id)
		}
		return report, nil
	}

	l.dir.PublishVendor(id, vendor)
	l.fingerprints[id] = report.Fingerprint
	report.Published = true
	if l.opts.Verbose {
		golog.Info("Published vendor {}: {} rows, {} skipped, {} nodes", id, report.Rows, report.Skipped, report.Nodes)
	}
	return report, nil
}

// RemoveVendor drops a vendor from the directory and forgets its fingerprint.
func (l *Loader) RemoveVendor(id model.VendorID) {
	l.mu.Lock()
	delete(l.fingerprints, id)
	l.mu.Unlock()
	l.dir.RemoveVendor(id)
}

// Sync reloads regions and every vendor of the rate table. Vendors that are
// published but no longer in the table are removed. Vendor trees are built
// on Options.Workers goroutines; a failed vendor keeps its previous tree.
func (l *Loader) Sync(ctx context.Context) (Report, error) {
	l.syncMu.Lock()
	defer l.syncMu.Unlock()

	start := time.Now()
	report := Report{Batch: uuid.New().String(), Vendors: []VendorReport{}, Removed: []model.VendorID{}}
	if l.opts.Verbose {
		golog.Info("Sync {} started", report.Batch)
	}

	regions, err := l.LoadRegions(ctx)
	if err != nil {
		return report, err
	}
	report.Regions = regions

	ids, err := l.source.ListVendorIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list vendors: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	// Tasks never return an error so one failed vendor does not stop the
	// others; failures are joined below.
	var g errgroup.Group
	g.SetLimit(l.opts.Workers)
	for _, id := range ids {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			vr, err := l.LoadVendor(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			report.Vendors = append(report.Vendors, vr)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	slices.SortFunc(report.Vendors, func(a, b VendorReport) int {
		return int(a.Vendor) - int(b.Vendor)
	})

	present := make(map[model.VendorID]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	for _, id := range l.dir.ActiveVendors() {
		if !present[id] {
			l.RemoveVendor(id)
			report.Removed = append(report.Removed, id)
			if l.opts.Verbose {
				golog.Info("Removed vendor {}: no rows left in rate table", id)
			}
		}
	}

	report.Duration = time.Since(start)
	if l.opts.Verbose {
		golog.Info("Sync {} finished in {}: {} vendors published, {} removed",
			report.Batch, report.Duration, report.Published(), len(report.Removed))
	}
	return report, errors.Join(errs...)
}

// writeRow feeds the fields that define a published record into the digest.
func writeRow(d *xxhash.Digest, row storage.RateRow) {
	var buf [8]byte
	d.WriteString(row.Code)
	d.Write([]byte{0})
	d.WriteString(row.Rate)
	d.Write([]byte{0})
	binary.LittleEndian.PutUint64(buf[:], uint64(row.EffectiveDate))
	d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(row.EndDate))
	d.Write(buf[:])
}
