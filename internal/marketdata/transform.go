package marketdata

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Transform maps a provider body onto the 6-point series. It only fails when
// the body is not JSON. A body without the expected top-level list yields
// the static dataset with fellBack set.
type Transform func(raw []byte, now time.Time, area string) (points []DataPoint, fellBack bool, err error)

// record gives field-level access so one malformed field only defaults that
// field, not the whole entry.
type record map[string]json.RawMessage

func (r record) number(keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok || string(raw) == "null" {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil && !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}

func (r record) text(keys ...string) (string, bool) {
	for _, k := range keys {
		raw, ok := r[k]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err == nil && v != "" {
			return v, true
		}
	}
	return "", false
}

// listField decodes the named top-level array. ok is false when the field
// is absent or not an array.
func listField(raw []byte, field string) ([]record, bool, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false, fmt.Errorf("failed to parse response: %w", err)
	}
	body, ok := envelope[field]
	if !ok || string(body) == "null" {
		return nil, false, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, false, nil
	}
	records := make([]record, len(items))
	for i, item := range items {
		var r record
		if err := json.Unmarshal(item, &r); err != nil {
			r = record{}
		}
		records[i] = r
	}
	return records, true, nil
}

// monthlyFields names the per-entry fields of a provider that already
// reports monthly aggregates.
type monthlyFields struct {
	month     []string
	price     []string
	inventory []string
	sales     []string
	growth    []string
	volume    []string
}

var rentSpreeFields = monthlyFields{
	month:     []string{"month", "period"},
	price:     []string{"medianPrice", "median_price"},
	inventory: []string{"monthsOfSupply", "months_of_supply"},
	sales:     []string{"closedSales", "closed_sales"},
	growth:    []string{"priceChangePct"},
}

var mlsFields = monthlyFields{
	month:     []string{"month"},
	price:     []string{"medianSalePrice"},
	inventory: []string{"monthsSupply"},
	sales:     []string{"closedSales"},
	growth:    []string{"yoyPriceChange"},
	volume:    []string{"dollarVolume"},
}

// TransformRentSpree reads the "trends" list.
func TransformRentSpree(raw []byte, now time.Time, area string) ([]DataPoint, bool, error) {
	return monthlyTransform("trends", rentSpreeFields)(raw, now, area)
}

// TransformMLS reads the "monthlyStats" list.
func TransformMLS(raw []byte, now time.Time, area string) ([]DataPoint, bool, error) {
	return monthlyTransform("monthlyStats", mlsFields)(raw, now, area)
}

func monthlyTransform(field string, f monthlyFields) Transform {
	return func(raw []byte, now time.Time, area string) ([]DataPoint, bool, error) {
		entries, ok, err := listField(raw, field)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return StaticData(now), true, nil
		}

		labels := MonthLabels(now)
		points := make([]DataPoint, PointCount)
		for i := range points {
			p := DataPoint{
				Month:     labels[i],
				Price:     DefaultPrice,
				Inventory: DefaultInventory,
				Sales:     DefaultSales,
				Area:      area,
			}
			if i < len(entries) {
				e := entries[i]
				if m, ok := e.text(f.month...); ok {
					p.Month = m
				}
				if v, ok := e.number(f.price...); ok {
					p.Price = int64(math.Round(v))
				}
				if v, ok := e.number(f.inventory...); ok {
					p.Inventory = Round1(v)
				}
				if v, ok := e.number(f.sales...); ok {
					p.Sales = int(math.Round(v))
				}
				if v, ok := e.number(f.growth...); ok {
					p.Growth = &v
				}
				if v, ok := e.number(f.volume...); ok {
					vol := int64(math.Round(v))
					p.Volume = &vol
				}
			}
			points[i] = p
		}
		return points, false, nil
	}
}

// TransformListings handles listing aggregators that return a flat
// "properties" list. Listings are bucketed by index; each bucket reports the
// median price and a listing-count inventory proxy.
func TransformListings(raw []byte, now time.Time, area string) ([]DataPoint, bool, error) {
	listings, ok, err := listField(raw, "properties")
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return StaticData(now), true, nil
	}

	labels := MonthLabels(now)
	points := make([]DataPoint, PointCount)
	for i, chunk := range ChunkByIndex(listings, PointCount) {
		p := DataPoint{
			Month:     labels[i],
			Price:     DefaultPrice,
			Inventory: DefaultInventory,
			Sales:     DefaultSales,
			Area:      area,
		}
		var prices []float64
		for _, l := range chunk {
			if v, ok := l.number("price", "list_price"); ok && v > 0 {
				prices = append(prices, v)
			}
		}
		if len(prices) > 0 {
			p.Price = int64(math.Round(Median(prices)))
		}
		if len(chunk) > 0 {
			p.Inventory = ListingInventory(len(chunk))
			p.Sales = len(chunk)
		}
		points[i] = p
	}
	return points, false, nil
}

// TransformZestimates handles the "props" list. Each bucket reports the
// floored average price and a days-on-market inventory proxy.
func TransformZestimates(raw []byte, now time.Time, area string) ([]DataPoint, bool, error) {
	props, ok, err := listField(raw, "props")
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return StaticData(now), true, nil
	}

	labels := MonthLabels(now)
	points := make([]DataPoint, PointCount)
	for i, chunk := range ChunkByIndex(props, PointCount) {
		p := DataPoint{
			Month:     labels[i],
			Price:     DefaultPrice,
			Inventory: DefaultInventory,
			Sales:     DefaultSales,
			Area:      area,
		}
		var prices, days []float64
		for _, prop := range chunk {
			if v, ok := prop.number("price", "zestimate"); ok && v > 0 {
				prices = append(prices, v)
			}
			if v, ok := prop.number("daysOnZillow"); ok && v >= 0 {
				days = append(days, v)
			}
		}
		if len(prices) > 0 {
			p.Price = Average(prices)
		}
		if len(days) > 0 {
			p.Inventory = DaysOnMarketInventory(float64(Average(days)))
		}
		if len(chunk) > 0 {
			p.Sales = len(chunk)
		}
		points[i] = p
	}
	return points, false, nil
}
