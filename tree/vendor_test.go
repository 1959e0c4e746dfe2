package tree

import (
	"testing"

	"github.com/richinex/codedir/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func code(s string) model.Code { return model.MustParseCode(s) }

func rate(s string) model.Rate { return model.MustParseRate(s) }

type vendorStats struct {
	count    int
	withData int
}

func countVendor(v *VendorTree) vendorStats {
	var s vendorStats
	v.Traverse(func(n VendorNode) bool {
		s.count++
		if !n.IsEmpty() {
			s.withData++
		}
		return true
	})
	return s
}

func TestVendorTreeEmpty(t *testing.T) {
	v := NewVendorTree()

	_, ok := v.MaxMatchingNode(code("0123"))
	assert.False(t, ok)
	_, ok = v.MaxMatchingNode(code("0"))
	assert.False(t, ok)

	assert.True(t, v.MaximumPrefixRate(code("34")).IsEmpty())
	assert.Equal(t, vendorStats{count: 1}, countVendor(v))
}

func TestVendorTreeWithData(t *testing.T) {
	v := NewVendorTree()
	v.AddRate(code("86"), rate("0.01"), 0, 1)
	v.AddRate(code("06755"), rate("0.012"), 0, 1)

	assert.Equal(t, rate("0.01"), v.MaximumPrefixRate(code("86")))
	assert.Equal(t, rate("0.012"), v.MaximumPrefixRate(code("06755")))
	assert.NotEqual(t, rate("1."), v.MaximumPrefixRate(code("86")))
	assert.NotEqual(t, rate("0.01"), v.MaximumPrefixRate(code("06755")))

	assert.Equal(t, rate("0.01"), v.MaximumPrefixRate(code("868")))
	assert.Equal(t, rate("0.012"), v.MaximumPrefixRate(code("067550")))

	assert.True(t, v.MaximumPrefixRate(code("8")).IsEmpty())
	assert.True(t, v.MaximumPrefixRate(code("0675")).IsEmpty())

	a, ok := v.MaxMatchingNode(code("868"))
	require.True(t, ok)
	b, ok := v.MaxMatchingNode(code("869"))
	require.True(t, ok)
	assert.Equal(t, a.ID(), b.ID())

	a, _ = v.MaxMatchingNode(code("067551"))
	b, _ = v.MaxMatchingNode(code("067552"))
	assert.Equal(t, a.ID(), b.ID())
	assert.Equal(t, code("06755"), a.Code())

	assert.Equal(t, vendorStats{count: 8, withData: 2}, countVendor(v))
}

func TestVendorTreeLatestEffectiveDateWins(t *testing.T) {
	v := NewVendorTree()
	v.AddRate(code("86"), rate("0.01"), 10, 20)
	assert.Equal(t, rate("0.01"), v.MaximumPrefixRate(code("86")))

	v.AddRate(code("86"), rate("0.02"), 9, 20)
	assert.Equal(t, rate("0.01"), v.MaximumPrefixRate(code("86")))

	v.AddRate(code("86"), rate("0.03"), 11, 20)
	assert.Equal(t, rate("0.03"), v.MaximumPrefixRate(code("86")))

	// equal dates keep the first record
	v.AddRate(code("86"), rate("0.04"), 11, 30)
	n, ok := v.MaxMatchingNode(code("86"))
	require.True(t, ok)
	assert.Equal(t, model.RateRecord{Rate: rate("0.03"), EffectiveDate: 11, EndDate: 20}, n.Value())
}

func TestVendorTreeEmptyRecordIsReplaced(t *testing.T) {
	v := NewVendorTree()
	v.AddRate(code("86"), model.EmptyRate, 100, 200)
	assert.True(t, v.MaximumPrefixRate(code("86")).IsEmpty())

	v.AddRate(code("86"), rate("0.5"), 1, 2)
	assert.Equal(t, rate("0.5"), v.MaximumPrefixRate(code("86")))
}

func TestVendorTreeAddRateText(t *testing.T) {
	v := NewVendorTree()
	require.NoError(t, v.AddRateText(" 44 ", "0.25", 0, 1))
	require.NoError(t, v.AddRateText("4420", "", 0, 1))
	assert.Equal(t, rate("0.25"), v.MaximumPrefixRate(code("4420")))

	err := v.AddRateText("-86", "0.12", 0, 1)
	assert.ErrorIs(t, err, model.ErrInvalidCode)

	size := v.Len()
	err = v.AddRateText("86", "0.1x", 0, 1)
	assert.ErrorIs(t, err, model.ErrInvalidRate)
	assert.Equal(t, size, v.Len())
}
