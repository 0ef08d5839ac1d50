package api

import (
	"context"
	"net/http"

	"marketing-api/internal/leads"

	"github.com/gin-gonic/gin"
)

// LeadRouter is satisfied by *leads.Router.
type LeadRouter interface {
	HandleBooking(ctx context.Context, b leads.Booking) (*leads.Result, error)
	HandleContactForm(ctx context.Context, f leads.ContactForm) (*leads.Result, error)
}

type leadResponse struct {
	ContactID     string         `json:"contactId"`
	OpportunityID string         `json:"opportunityId"`
	Score         int            `json:"score"`
	Priority      leads.Priority `json:"priority"`
}

type LeadHandler struct {
	router LeadRouter
}

func NewLeadHandler(router LeadRouter) *LeadHandler {
	return &LeadHandler{router: router}
}

// Booking handles POST /api/leads/booking.
func (h *LeadHandler) Booking(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	booking, err := leads.DecodeBooking(raw)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.router.HandleBooking(c.Request.Context(), booking)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLeadResponse(res))
}

// ContactForm handles POST /api/leads/contact.
func (h *LeadHandler) ContactForm(c *gin.Context) {
	raw, ok := readBody(c)
	if !ok {
		return
	}
	form, err := leads.DecodeContactForm(raw)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.router.HandleContactForm(c.Request.Context(), form)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLeadResponse(res))
}

func toLeadResponse(res *leads.Result) leadResponse {
	return leadResponse{
		ContactID:     res.ContactID,
		OpportunityID: res.OpportunityID,
		Score:         res.Score,
		Priority:      res.Priority,
	}
}
