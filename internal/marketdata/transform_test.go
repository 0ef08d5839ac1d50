package marketdata

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformRentSpree(t *testing.T) {
	body := `{"trends":[
		{"month":"Oct","medianPrice":510000,"monthsOfSupply":2.04,"closedSales":190,"priceChangePct":1.2},
		{"month":"Nov","medianPrice":512000.4,"monthsOfSupply":1.96,"closedSales":201},
		{"month":"Dec","medianPrice":"n/a","monthsOfSupply":1.8,"closedSales":188},
		{"month":"Jan","medianPrice":515000,"closedSales":176},
		{"month":"Feb","medianPrice":518000,"monthsOfSupply":1.7},
		{"medianPrice":520000,"monthsOfSupply":1.6,"closedSales":230},
		{"month":"Apr","medianPrice":1,"monthsOfSupply":1,"closedSales":1}
	]}`

	points, fellBack, err := TransformRentSpree([]byte(body), testNow, "Austin, TX")
	require.NoError(t, err)
	assert.False(t, fellBack)
	require.Len(t, points, PointCount)

	assert.Equal(t, "Oct", points[0].Month)
	assert.Equal(t, int64(510000), points[0].Price)
	assert.Equal(t, 2.0, points[0].Inventory)
	assert.Equal(t, 190, points[0].Sales)
	assert.Equal(t, "Austin, TX", points[0].Area)
	require.NotNil(t, points[0].Growth)
	assert.Equal(t, 1.2, *points[0].Growth)

	assert.Equal(t, int64(512000), points[1].Price)
	assert.Nil(t, points[1].Growth)

	// a malformed field only defaults that field
	assert.Equal(t, DefaultPrice, points[2].Price)
	assert.Equal(t, 188, points[2].Sales)

	assert.Equal(t, DefaultInventory, points[3].Inventory)
	assert.Equal(t, DefaultSales, points[4].Sales)

	// missing month label is computed
	assert.Equal(t, "Mar", points[5].Month)
}

func TestTransformRentSpree_ShortList(t *testing.T) {
	points, _, err := TransformRentSpree([]byte(`{"trends":[{"month":"Oct","medianPrice":400000}]}`), testNow, "")
	require.NoError(t, err)
	require.Len(t, points, PointCount)
	assert.Equal(t, int64(400000), points[0].Price)
	for _, p := range points[1:] {
		assert.Equal(t, DefaultPrice, p.Price)
		assert.Equal(t, DefaultInventory, p.Inventory)
		assert.Equal(t, DefaultSales, p.Sales)
	}
	assert.Equal(t, "Nov", points[1].Month)
}

func TestTransforms_MissingTopLevelField(t *testing.T) {
	transforms := map[string]Transform{
		"rentspree":  TransformRentSpree,
		"listings":   TransformListings,
		"zestimates": TransformZestimates,
		"mls":        TransformMLS,
	}
	for name, tr := range transforms {
		t.Run(name, func(t *testing.T) {
			points, fellBack, err := tr([]byte(`{"results":[]}`), testNow, "Austin, TX")
			require.NoError(t, err)
			assert.True(t, fellBack)
			assert.Equal(t, StaticData(testNow), points)

			points, fellBack, err = tr([]byte(`{"trends":"x","properties":{},"props":1,"monthlyStats":null}`), testNow, "")
			require.NoError(t, err)
			assert.True(t, fellBack, "non-array field counts as missing")
			assert.Len(t, points, PointCount)
		})
	}
}

func TestTransforms_InvalidJSON(t *testing.T) {
	for _, tr := range []Transform{TransformRentSpree, TransformListings, TransformZestimates, TransformMLS} {
		_, _, err := tr([]byte(`<html>gateway error</html>`), testNow, "")
		assert.Error(t, err)
	}
}

func TestTransformListings(t *testing.T) {
	var props []string
	for i := 0; i < 12; i++ {
		props = append(props, fmt.Sprintf(`{"price":%d}`, 300000+i*100000))
	}
	// a listing with no price still counts toward inventory and sales
	props = append(props, `{"address":"1 Main St"}`)
	body := `{"properties":[` + strings.Join(props, ",") + `]}`

	points, fellBack, err := TransformListings([]byte(body), testNow, "Austin, TX")
	require.NoError(t, err)
	assert.False(t, fellBack)
	require.Len(t, points, PointCount)

	// 13 listings split 2,2,2,2,2,3
	assert.Equal(t, int64(350000), points[0].Price)
	assert.Equal(t, 2, points[0].Sales)
	assert.Equal(t, 0.0, points[0].Inventory)
	assert.Equal(t, int64(1350000), points[5].Price)
	assert.Equal(t, 3, points[5].Sales)
	assert.Equal(t, "Oct", points[0].Month)
}

func TestTransformListings_Empty(t *testing.T) {
	points, fellBack, err := TransformListings([]byte(`{"properties":[]}`), testNow, "")
	require.NoError(t, err)
	assert.False(t, fellBack)
	for _, p := range points {
		assert.Equal(t, DefaultPrice, p.Price)
		assert.Equal(t, DefaultInventory, p.Inventory)
		assert.Equal(t, DefaultSales, p.Sales)
	}
}

func TestTransformZestimates(t *testing.T) {
	body := `{"props":[
		{"price":400001,"daysOnZillow":60},
		{"price":410000,"daysOnZillow":30},
		{"zestimate":420000,"daysOnZillow":45},
		{"price":null},
		{"price":440000,"daysOnZillow":15},
		{"price":450000,"daysOnZillow":90},
		{"price":460000,"daysOnZillow":0}
	]}`

	points, fellBack, err := TransformZestimates([]byte(body), testNow, "")
	require.NoError(t, err)
	assert.False(t, fellBack)
	require.Len(t, points, PointCount)

	assert.Equal(t, int64(400001), points[0].Price)
	assert.Equal(t, 3.0, points[0].Inventory)
	assert.Equal(t, 1.5, points[1].Inventory)
	assert.Equal(t, int64(420000), points[2].Price)
	assert.Equal(t, 2.3, points[2].Inventory)

	// null price and no days on market
	assert.Equal(t, DefaultPrice, points[3].Price)
	assert.Equal(t, DefaultInventory, points[3].Inventory)
	assert.Equal(t, 1, points[3].Sales)

	// last chunk holds two props: floored mean of 450000 and 460000, days 90 and 0
	assert.Equal(t, int64(455000), points[5].Price)
	assert.Equal(t, 2.3, points[5].Inventory)
	assert.Equal(t, 2, points[5].Sales)
}

func TestTransformMLS(t *testing.T) {
	body := `{"monthlyStats":[
		{"month":"Oct 2025","medianSalePrice":498000,"monthsSupply":2.2,"closedSales":310,"dollarVolume":154380000}
	]}`
	points, fellBack, err := TransformMLS([]byte(body), testNow, "Austin, TX")
	require.NoError(t, err)
	assert.False(t, fellBack)
	assert.Equal(t, "Oct 2025", points[0].Month)
	assert.Equal(t, int64(498000), points[0].Price)
	assert.Equal(t, 2.2, points[0].Inventory)
	assert.Equal(t, 310, points[0].Sales)
	require.NotNil(t, points[0].Volume)
	assert.Equal(t, int64(154380000), *points[0].Volume)
}
