package marketdata

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Relative perturbation bounds of the synthetic source.
const (
	PriceJitter     = 0.01
	InventoryJitter = 0.05
	SalesJitter     = 0.025
)

// SyntheticSource perturbs the static dataset. It performs no I/O and
// always succeeds.
type SyntheticSource struct {
	now   func() time.Time
	float func() float64
}

// NewSyntheticSource uses the clock and the uniform [0,1) generator given,
// defaulting to time.Now and math/rand/v2.
func NewSyntheticSource(now func() time.Time, float func() float64) *SyntheticSource {
	if now == nil {
		now = time.Now
	}
	if float == nil {
		float = rand.Float64
	}
	return &SyntheticSource{now: now, float: float}
}

func (s *SyntheticSource) Name() string    { return SourceSynthetic }
func (s *SyntheticSource) Available() bool { return true }
func (s *SyntheticSource) RealTime() bool  { return false }

func (s *SyntheticSource) Fetch(_ context.Context) ([]DataPoint, error) {
	points := StaticData(s.now())
	for i := range points {
		p := &points[i]
		p.Price = int64(jitterRound(float64(p.Price), s.factor(PriceJitter), PriceJitter, 1))
		p.Inventory = jitterRound(p.Inventory, s.factor(InventoryJitter), InventoryJitter, 10)
		p.Sales = int(jitterRound(float64(p.Sales), s.factor(SalesJitter), SalesJitter, 1))
	}
	return points, nil
}

// jitterRound scales base by factor and rounds to 1/scale, keeping the
// rounded value inside base*(1±bound).
func jitterRound(base, factor, bound, scale float64) float64 {
	lo := math.Ceil(base*(1-bound)*scale) / scale
	hi := math.Floor(base*(1+bound)*scale) / scale
	v := math.Round(base*factor*scale) / scale
	return math.Max(lo, math.Min(hi, v))
}

// factor is uniform in [1-bound, 1+bound).
func (s *SyntheticSource) factor(bound float64) float64 {
	return 1 + (s.float()*2-1)*bound
}
