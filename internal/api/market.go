package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"marketing-api/internal/common/logger"
	"marketing-api/internal/marketdata"

	"github.com/gin-gonic/gin"
)

// MarketCacheControl lets a CDN serve a series for the cache TTL and keep
// serving it while it revalidates.
const MarketCacheControl = "public, s-maxage=1800, stale-while-revalidate=3600"

// MarketService is satisfied by *marketdata.Aggregator.
type MarketService interface {
	Get(ctx context.Context, forceRefresh bool) *marketdata.Result
}

type trendsResponse struct {
	Data     []marketdata.DataPoint `json:"data"`
	Metadata marketdata.Metadata    `json:"metadata"`
	Error    string                 `json:"error,omitempty"`
}

type refreshRequest struct {
	Action string `json:"action"`
}

type refreshMetadata struct {
	LastUpdated int64 `json:"lastUpdated"`
	Refreshed   bool  `json:"refreshed"`
}

type refreshResponse struct {
	Data     []marketdata.DataPoint `json:"data"`
	Metadata refreshMetadata        `json:"metadata"`
}

type MarketHandler struct {
	svc    MarketService
	logger logger.Logger
	now    func() time.Time
}

func NewMarketHandler(svc MarketService, log logger.Logger, now func() time.Time) *MarketHandler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if now == nil {
		now = time.Now
	}
	return &MarketHandler{svc: svc, logger: log, now: now}
}

// GetTrends always answers 200. If the aggregator blows up the static
// series goes out with an error string.
func (h *MarketHandler) GetTrends(c *gin.Context) {
	c.Header("Cache-Control", MarketCacheControl)
	area := c.Query("area")

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("Market trends handler panicked", map[string]interface{}{
				"panic": fmt.Sprint(rec),
			})
			c.JSON(http.StatusOK, h.fallback(area))
		}
	}()

	res := h.svc.Get(c.Request.Context(), c.Query("refresh") == "true")
	if res == nil {
		c.JSON(http.StatusOK, h.fallback(area))
		return
	}
	if area != "" {
		res.Metadata.Area = area
	}
	c.JSON(http.StatusOK, trendsResponse{Data: res.Data, Metadata: res.Metadata})
}

// PostTrends handles {"action":"refresh"}.
func (h *MarketHandler) PostTrends(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid market trends request", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	if req.Action != "refresh" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid action"})
		return
	}

	res := h.svc.Get(c.Request.Context(), true)
	if res == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, refreshResponse{
		Data:     res.Data,
		Metadata: refreshMetadata{LastUpdated: res.Metadata.LastUpdated, Refreshed: true},
	})
}

func (h *MarketHandler) fallback(area string) trendsResponse {
	now := h.now()
	return trendsResponse{
		Data: marketdata.StaticData(now),
		Metadata: marketdata.Metadata{
			Area:             area,
			LastUpdated:      now.UnixMilli(),
			Source:           marketdata.FallbackSource,
			AvailableSources: []string{},
		},
		Error: "Failed to fetch market data",
	}
}
