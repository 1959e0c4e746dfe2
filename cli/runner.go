// Command execution for CLI commands.
//
// Information Hiding:
// - Storage, loader and directory wiring hidden
// - Every query command loads the rate table into a fresh directory first
// - Output formatting hidden

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kashari/golog"
	"github.com/richinex/codedir/config"
	"github.com/richinex/codedir/directory"
	"github.com/richinex/codedir/loader"
	"github.com/richinex/codedir/server"
	"github.com/richinex/codedir/stats"
	"github.com/richinex/codedir/storage"
)

// Options holds CLI execution options.
type Options struct {
	DBPath    string
	LineCount int
	Workers   int
	Verbose   bool
	Out       io.Writer
}

// OptionsFrom builds CLI options from loaded settings.
func OptionsFrom(s config.Settings) Options {
	return Options{
		DBPath:    s.Storage.DBPath,
		LineCount: s.Loader.LineCount,
		Workers:   s.Loader.Workers(),
		Out:       os.Stdout,
	}
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// session is an open rate table together with the directory loaded from it.
type session struct {
	store  *storage.SqliteStorage
	dir    *directory.Directory
	loader *loader.Loader
}

func openStore(opts Options) (*storage.SqliteStorage, error) {
	store, err := storage.OpenSqlite(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate table: %w", err)
	}
	return store, nil
}

// openSession opens the rate table and loads it into a new directory.
func openSession(ctx context.Context, opts Options) (*session, error) {
	store, err := openStore(opts)
	if err != nil {
		return nil, err
	}
	dir := directory.New()
	l := loader.New(store, dir, loader.Options{
		PageSize: opts.LineCount,
		Workers:  opts.Workers,
		Verbose:  opts.Verbose,
	})

	report, err := l.Sync(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	if opts.Verbose {
		printSyncReport(opts.out(), report)
	}
	return &session{store: store, dir: dir, loader: l}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		golog.Warn("Failed to close rate table: {}", err)
	}
}

// ImportRatesFile appends a rate CSV file to the rate table.
func ImportRatesFile(ctx context.Context, path string, opts Options) error {
	return importFile(ctx, path, opts, "rate", ImportRates)
}

// ImportCodenamesFile appends a codename CSV file to the rate table.
func ImportCodenamesFile(ctx context.Context, path string, opts Options) error {
	return importFile(ctx, path, opts, "codename", ImportCodenames)
}

func importFile(ctx context.Context, path string, opts Options, kind string,
	imp func(context.Context, RateWriter, io.Reader, int) (int, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := imp(ctx, store, f, opts.LineCount)
	if err != nil {
		return fmt.Errorf("import of %s stopped after %d rows: %w", path, n, err)
	}
	fmt.Fprintf(opts.out(), "Imported %d %s rows\n", n, kind)
	return nil
}

// Rates prints every rate a vendor offers in a region with the bounds.
func Rates(ctx context.Context, vendor, region string, opts Options) error {
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	rates, err := s.dir.RatesForText(vendor, region)
	if err != nil {
		return err
	}

	out := opts.out()
	if len(rates.Rates) == 0 {
		fmt.Fprintf(out, "Vendor %s has no rates for %q\n", vendor, region)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tRATE")
	for _, r := range rates.Rates {
		fmt.Fprintf(tw, "%s\t%s\n", r.Code, r.Rate)
	}
	tw.Flush()
	fmt.Fprintf(out, "\n%d codes, min %s, max %s\n", len(rates.Rates), rates.Min, rates.Max)
	return nil
}

// Vendors prints the rate bounds of every vendor covering a region.
func Vendors(ctx context.Context, region string, opts Options) error {
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	vendors, err := s.dir.VendorsFor(region)
	if err != nil {
		return err
	}

	out := opts.out()
	if len(vendors) == 0 {
		fmt.Fprintf(out, "No vendor has rates for %q\n", region)
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VENDOR\tMIN\tMAX")
	for _, v := range vendors {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", v.Vendor, v.Min, v.Max)
	}
	return tw.Flush()
}

// Regions prints region names, optionally only those starting with prefix.
func Regions(ctx context.Context, prefix string, opts Options) error {
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	names := s.dir.ListRegions()
	if prefix != "" {
		names = s.dir.Regions().NamesWithPrefix(prefix)
	}
	for _, name := range names {
		fmt.Fprintln(opts.out(), name)
	}
	return nil
}

// ListVendors prints every vendor id of the loaded directory.
func ListVendors(ctx context.Context, opts Options) error {
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, id := range s.dir.ListVendors() {
		fmt.Fprintln(opts.out(), id)
	}
	return nil
}

// Stats prints node statistics, per vendor when all is set.
func Stats(ctx context.Context, all bool, opts Options) error {
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintln(opts.out(), stats.ForDirectory(s.dir, all))
	return nil
}

// Serve loads the rate table and answers HTTP queries until ctx is done.
// With a positive reload interval the table is re-synced periodically while
// queries keep running against the published trees.
func Serve(ctx context.Context, cfg config.ServerConfig, opts Options) error {
	// a server's stdout is its log, so load progress is always shown
	opts.Verbose = true
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		reloadLoop(ctx, s.loader, cfg.ReloadInterval)
	}()

	err = server.New(s.dir).ListenAndServe(ctx, cfg.ListenAddr())
	cancel()
	<-done
	return err
}

// reloadLoop re-syncs every interval until ctx is done. A zero interval
// returns at once.
func reloadLoop(ctx context.Context, l *loader.Loader, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := l.Sync(ctx); err != nil {
				golog.Error("Reload failed: {}", err)
			}
		}
	}
}

func printSyncReport(w io.Writer, r loader.Report) {
	skipped := 0
	for _, v := range r.Vendors {
		skipped += v.Skipped
	}
	fmt.Fprintf(w, "Loaded batch %s in %s: %d regions, %d vendors (%d rate rows skipped, %d codename rows skipped)\n",
		r.Batch, r.Duration, r.Regions.Names, len(r.Vendors), skipped, r.Regions.Skipped)
}
