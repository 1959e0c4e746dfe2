package directory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/richinex/codedir/model"
	"github.com/richinex/codedir/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	vendorA model.VendorID = 1
	vendorB model.VendorID = 2
	vendorC model.VendorID = 3
)

func rate(s string) model.Rate { return model.MustParseRate(s) }

func regions(t *testing.T) *tree.CodenameTree {
	t.Helper()
	c := tree.NewCodenameTree()
	for _, row := range [][2]string{
		{"86", "China Proper"},
		{"8613", "China Mobile"},
		{"8620", "China Proper"},
		{"8653", "China CNC"},
		{"867", "Example"},
	} {
		require.NoError(t, c.AddCodeText(row[0], row[1]))
	}
	return c
}

func vendor(t *testing.T, rates map[string]string) *tree.VendorTree {
	t.Helper()
	v := tree.NewVendorTree()
	for c, r := range rates {
		require.NoError(t, v.AddRateText(c, r, 0, 1))
	}
	return v
}

func fill(t *testing.T) *Directory {
	t.Helper()
	d := New()
	d.PublishRegions(regions(t))
	d.PublishVendor(vendorA, vendor(t, map[string]string{
		"86": "0.005", "86755": "0.004", "8621": "0.003",
		"8620": "0.002", "862010": "0.001", "8610": "0.006",
	}))
	d.PublishVendor(vendorB, vendor(t, map[string]string{"86": "0.002"}))
	d.PublishVendor(vendorC, vendor(t, map[string]string{
		"86": "0.006", "862": "0.003", "86102": "0.002", "8610": "0.004", "86715": "0.01",
	}))
	return d
}

func asMap(rates []CodeRate) map[string]string {
	out := map[string]string{}
	for _, r := range rates {
		out[r.Code.String()] = r.Rate.String()
	}
	return out
}

func TestRatesFor(t *testing.T) {
	d := fill(t)

	a, err := d.RatesFor(vendorA, "China Proper")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"86": "0.005", "8621": "0.003", "8620": "0.002", "862010": "0.001", "8610": "0.006",
	}, asMap(a.Rates))
	assert.Equal(t, rate("0.001"), a.Min)
	assert.Equal(t, rate("0.006"), a.Max)

	b, err := d.RatesFor(vendorB, "China Proper")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"86": "0.002"}, asMap(b.Rates))
	assert.Equal(t, rate("0.002"), b.Min)
	assert.Equal(t, rate("0.002"), b.Max)

	c, err := d.RatesFor(vendorC, "China Proper")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"86": "0.006", "862": "0.003", "86102": "0.002", "8610": "0.004",
	}, asMap(c.Rates))
	assert.Equal(t, rate("0.002"), c.Min)
	assert.Equal(t, rate("0.006"), c.Max)
}

func TestRatesForSortedByCode(t *testing.T) {
	d := fill(t)
	a, err := d.RatesFor(vendorA, "China Proper")
	require.NoError(t, err)

	var got []string
	for _, r := range a.Rates {
		got = append(got, r.Code.String())
	}
	assert.Equal(t, []string{"86", "8610", "8620", "862010", "8621"}, got)
}

func TestRatesForOtherRegions(t *testing.T) {
	d := fill(t)

	ex, err := d.RatesFor(vendorA, "Example")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"86755": "0.004"}, asMap(ex.Rates))

	// no vendor A node lies under 8653 with a China CNC name
	cnc, err := d.RatesFor(vendorA, "China CNC")
	require.NoError(t, err)
	assert.Empty(t, cnc.Rates)
	assert.True(t, cnc.Min.IsEmpty())
	assert.True(t, cnc.Max.IsEmpty())
}

func TestRatesForErrors(t *testing.T) {
	d := fill(t)

	_, err := d.RatesFor(42, "China Proper")
	assert.ErrorIs(t, err, model.ErrUnknownVendor)

	_, err = d.RatesFor(vendorA, "Atlantis")
	assert.ErrorIs(t, err, model.ErrUnknownRegion)

	_, err = d.RatesForText("1x", "China Proper")
	assert.ErrorIs(t, err, model.ErrInvalidVendorID)

	r, err := d.RatesForText("2", "China Proper")
	require.NoError(t, err)
	assert.Equal(t, rate("0.002"), r.Min)

	_, err = d.VendorsFor("Atlantis")
	assert.ErrorIs(t, err, model.ErrUnknownRegion)
}

func TestVendorsFor(t *testing.T) {
	d := fill(t)

	got, err := d.VendorsFor("China Proper")
	require.NoError(t, err)
	assert.Equal(t, []VendorRange{
		{Vendor: vendorA, Min: rate("0.001"), Max: rate("0.006")},
		{Vendor: vendorB, Min: rate("0.002"), Max: rate("0.002")},
		{Vendor: vendorC, Min: rate("0.002"), Max: rate("0.006")},
	}, got)

	mobile, err := d.VendorsFor("China Mobile")
	require.NoError(t, err)
	assert.Empty(t, mobile)
}

func TestRemoveVendor(t *testing.T) {
	d := fill(t)

	d.RemoveVendor(vendorB)
	want := []VendorRange{
		{Vendor: vendorA, Min: rate("0.001"), Max: rate("0.006")},
		{Vendor: vendorC, Min: rate("0.002"), Max: rate("0.006")},
	}
	got, err := d.VendorsFor("China Proper")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	d.RemoveVendor(vendorB)
	got, err = d.VendorsFor("China Proper")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	d.RemoveVendor(vendorA)
	got, err = d.VendorsFor("China Proper")
	require.NoError(t, err)
	assert.Equal(t, want[1:], got)

	// removed vendors stay known and answer with an empty result
	b, err := d.RatesFor(vendorB, "China Proper")
	require.NoError(t, err)
	assert.Empty(t, b.Rates)
	assert.True(t, b.Min.IsEmpty())
	assert.True(t, b.Max.IsEmpty())

	assert.Equal(t, []model.VendorID{vendorA, vendorB, vendorC}, d.ListVendors())
	assert.Equal(t, []model.VendorID{vendorC}, d.ActiveVendors())

	d.RemoveVendor(99)
	assert.Equal(t, []model.VendorID{vendorA, vendorB, vendorC}, d.ListVendors())
}

func TestRemoveVendorDoesNotTouchOthers(t *testing.T) {
	d := fill(t)
	before, err := d.RatesFor(vendorC, "China Proper")
	require.NoError(t, err)

	d.RemoveVendor(vendorA)
	after, err := d.RatesFor(vendorC, "China Proper")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPublishVendorReplacesSnapshot(t *testing.T) {
	d := fill(t)
	d.RemoveVendor(vendorB)

	d.PublishVendor(vendorB, vendor(t, map[string]string{"86": "0.009", "8620": "0.0005"}))
	b, err := d.RatesFor(vendorB, "China Proper")
	require.NoError(t, err)
	assert.Equal(t, rate("0.0005"), b.Min)
	assert.Equal(t, rate("0.009"), b.Max)
}

func TestListRegions(t *testing.T) {
	d := New()
	assert.Empty(t, d.ListRegions())

	d.PublishRegions(regions(t))
	assert.Equal(t, []string{"China CNC", "China Mobile", "China Proper", "Example"}, d.ListRegions())

	d.PublishRegions(nil)
	assert.Len(t, d.ListRegions(), 4)
}

func TestConcurrentReadsDuringPublish(t *testing.T) {
	defer goleak.VerifyNone(t)

	d := fill(t)
	low := vendor(t, map[string]string{"86": "0.001"})
	high := vendor(t, map[string]string{"86": "0.009"})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 8)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				r, err := d.RatesFor(vendorB, "China Proper")
				if err != nil {
					errs <- err
					return
				}
				// a reader sees one whole snapshot: removed, low or high
				if len(r.Rates) > 1 || r.Min != r.Max {
					errs <- fmt.Errorf("torn snapshot: %+v", r)
					return
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		switch i % 3 {
		case 0:
			d.PublishVendor(vendorB, low)
		case 1:
			d.PublishVendor(vendorB, high)
		default:
			d.RemoveVendor(vendorB)
		}
		d.PublishVendor(model.VendorID(100+i), low)
	}
	close(stop)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Len(t, d.ListVendors(), 503)
}
