// CSV import into the rate table.
//
// Rate files carry vendor_id,code,rate[,effective_date,end_date] per line;
// codename files carry code,name. A first line whose leading field is not
// a number is taken as a header and skipped. Codes and rates are stored as
// text and validated when trees are built.

package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/richinex/codedir/model"
	"github.com/richinex/codedir/storage"
)

// RateWriter is the subset of storage the importer writes to.
type RateWriter interface {
	AddRates(ctx context.Context, rows []storage.RateRow) error
	AddCodenames(ctx context.Context, rows []storage.CodenameRow) error
}

// ImportRates reads rate lines from r and appends them in batches of
// batchSize rows. It returns the number of rows written.
func ImportRates(ctx context.Context, w RateWriter, r io.Reader, batchSize int) (int, error) {
	batchSize = max(batchSize, 1)
	batch := make([]storage.RateRow, 0, batchSize)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.AddRates(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := readCSV(r, 3, func(line int, rec []string) error {
		row, err := parseRateRecord(rec)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// ImportCodenames reads code,name lines from r and appends them in batches.
func ImportCodenames(ctx context.Context, w RateWriter, r io.Reader, batchSize int) (int, error) {
	batchSize = max(batchSize, 1)
	batch := make([]storage.CodenameRow, 0, batchSize)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := w.AddCodenames(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := readCSV(r, 2, func(line int, rec []string) error {
		name := strings.TrimSpace(rec[1])
		if name == "" {
			return fmt.Errorf("line %d: %w", line, model.ErrInvalidRegionName)
		}
		batch = append(batch, storage.CodenameRow{Code: strings.TrimSpace(rec[0]), Name: name})
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func parseRateRecord(rec []string) (storage.RateRow, error) {
	vendor, err := model.ParseVendorID(strings.TrimSpace(rec[0]))
	if err != nil {
		return storage.RateRow{}, err
	}
	row := storage.RateRow{
		VendorID: vendor,
		Code:     strings.TrimSpace(rec[1]),
		Rate:     strings.TrimSpace(rec[2]),
	}
	if len(rec) > 3 {
		if row.EffectiveDate, err = parseDate(rec[3]); err != nil {
			return storage.RateRow{}, fmt.Errorf("effective date: %w", err)
		}
	}
	if len(rec) > 4 {
		if row.EndDate, err = parseDate(rec[4]); err != nil {
			return storage.RateRow{}, fmt.Errorf("end date: %w", err)
		}
	}
	return row, nil
}

func parseDate(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	return strconv.ParseInt(text, 10, 64)
}

// readCSV calls fn for every record with at least minFields fields.
// Lines are numbered from 1.
func readCSV(r io.Reader, minFields int, fn func(line int, rec []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if first && isHeader(rec) {
			continue
		}
		if len(rec) < minFields {
			return fmt.Errorf("line %d: expected at least %d fields, got %d", line, minFields, len(rec))
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

func isHeader(rec []string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	return err != nil
}
