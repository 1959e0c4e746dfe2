package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/richinex/codedir/model"
)

func newTestStorage(t *testing.T) *SqliteStorage {
	t.Helper()
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSqliteStorageAddAndScanRates(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	rows := []RateRow{
		{VendorID: 1, Code: "86", Rate: "0.005", EffectiveDate: 0, EndDate: 1},
		{VendorID: 2, Code: "86", Rate: "0.002", EffectiveDate: 0, EndDate: 1},
		{VendorID: 1, Code: "8620", Rate: "0.002", EffectiveDate: 5, EndDate: 9},
		{VendorID: 1, Code: "862010", Rate: "", EffectiveDate: 0, EndDate: 1},
	}
	if err := storage.AddRates(ctx, rows); err != nil {
		t.Fatalf("AddRates failed: %v", err)
	}

	var got []RateRow
	err := storage.ScanRates(ctx, 1, 2, func(r RateRow) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanRates failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 rows for vendor 1, got %d", len(got))
	}
	if got[0].Code != "86" || got[1].Code != "8620" || got[2].Code != "862010" {
		t.Errorf("unexpected row order: %+v", got)
	}
	if got[1].EffectiveDate != 5 || got[1].EndDate != 9 {
		t.Errorf("dates not preserved: %+v", got[1])
	}
	if got[2].Rate != "" {
		t.Errorf("expected empty rate, got %q", got[2].Rate)
	}
	if got[0].VendorID != 1 {
		t.Errorf("expected vendor 1, got %d", got[0].VendorID)
	}
}

func TestSqliteStorageScanStopsOnError(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	rows := make([]RateRow, 10)
	for i := range rows {
		rows[i] = RateRow{VendorID: 7, Code: "1", Rate: "0.1"}
	}
	if err := storage.AddRates(ctx, rows); err != nil {
		t.Fatalf("AddRates failed: %v", err)
	}

	stop := errors.New("stop")
	calls := 0
	err := storage.ScanRates(ctx, 7, 3, func(RateRow) error {
		calls++
		if calls == 4 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop error, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestSqliteStorageScanRejectsBadPageSize(t *testing.T) {
	storage := newTestStorage(t)

	err := storage.ScanRates(context.Background(), 1, 0, func(RateRow) error { return nil })
	if err == nil {
		t.Error("expected error for zero page size")
	}
}

func TestSqliteStorageListAndDeleteVendors(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	err := storage.AddRates(ctx, []RateRow{
		{VendorID: 3, Code: "86", Rate: "0.006"},
		{VendorID: 1, Code: "86", Rate: "0.005"},
		{VendorID: 3, Code: "862", Rate: "0.003"},
	})
	if err != nil {
		t.Fatalf("AddRates failed: %v", err)
	}

	vendors, err := storage.ListVendorIDs(ctx)
	if err != nil {
		t.Fatalf("ListVendorIDs failed: %v", err)
	}
	if len(vendors) != 2 || vendors[0] != 1 || vendors[1] != 3 {
		t.Errorf("expected [1 3], got %v", vendors)
	}

	if err := storage.DeleteVendor(ctx, 3); err != nil {
		t.Fatalf("DeleteVendor failed: %v", err)
	}
	vendors, err = storage.ListVendorIDs(ctx)
	if err != nil {
		t.Fatalf("ListVendorIDs failed: %v", err)
	}
	if len(vendors) != 1 || vendors[0] != model.VendorID(1) {
		t.Errorf("expected [1], got %v", vendors)
	}
}

func TestSqliteStorageCodenames(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	rows := []CodenameRow{
		{Code: "86", Name: "China Proper"},
		{Code: "8613", Name: "China Mobile"},
		{Code: "8620", Name: "China Proper"},
	}
	if err := storage.AddCodenames(ctx, rows); err != nil {
		t.Fatalf("AddCodenames failed: %v", err)
	}

	var got []CodenameRow
	err := storage.ScanCodenames(ctx, 1, func(r CodenameRow) error {
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanCodenames failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 codenames, got %d", len(got))
	}
	if got[2].Code != "8620" || got[2].Name != "China Proper" {
		t.Errorf("unexpected last row: %+v", got[2])
	}
}

func TestOpenSqliteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rates.db")

	storage, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()
	if err := storage.AddRates(ctx, []RateRow{{VendorID: 1, Code: "1", Rate: "1."}}); err != nil {
		t.Fatalf("AddRates failed: %v", err)
	}
	vendors, err := storage.ListVendorIDs(ctx)
	if err != nil {
		t.Fatalf("ListVendorIDs failed: %v", err)
	}
	if len(vendors) != 1 {
		t.Errorf("expected 1 vendor, got %d", len(vendors))
	}
}
