package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)

func TestMonthLabels(t *testing.T) {
	assert.Equal(t, []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, MonthLabels(testNow))
	assert.Equal(t, []string{"Aug", "Sep", "Oct", "Nov", "Dec", "Jan"},
		MonthLabels(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

func TestChunkByIndex(t *testing.T) {
	sizes := func(chunks [][]int) []int {
		out := make([]int, len(chunks))
		for i, c := range chunks {
			out[i] = len(c)
		}
		return out
	}

	items := make([]int, 13)
	for i := range items {
		items[i] = i
	}
	chunks := ChunkByIndex(items, 6)
	assert.Equal(t, []int{2, 2, 2, 2, 2, 3}, sizes(chunks))
	assert.Equal(t, []int{0, 1}, chunks[0])
	assert.Equal(t, []int{10, 11, 12}, chunks[5])

	assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, sizes(ChunkByIndex([]int{1, 2, 3}, 6)))
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, sizes(ChunkByIndex([]int{}, 6)))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 0.0, Median(nil))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input must not be reordered")
}

func TestAverage(t *testing.T) {
	assert.Equal(t, int64(1), Average([]float64{1, 2, 2}))
	assert.Equal(t, int64(150000), Average([]float64{100000.5, 200000}))
	assert.Equal(t, int64(0), Average(nil))
}

func TestInventoryProxies(t *testing.T) {
	assert.Equal(t, 0.2, ListingInventory(10))
	assert.Equal(t, 0.6, ListingInventory(40))
	assert.Equal(t, 2.3, DaysOnMarketInventory(45))
	assert.Equal(t, 3.0, DaysOnMarketInventory(60))
}

func TestStaticData(t *testing.T) {
	data := StaticData(testNow)
	assert.Len(t, data, PointCount)
	assert.Equal(t, "Oct", data[0].Month)
	assert.Equal(t, "Mar", data[5].Month)
	for _, p := range data {
		assert.Positive(t, p.Price)
		assert.Positive(t, p.Inventory)
		assert.Positive(t, p.Sales)
	}
}
