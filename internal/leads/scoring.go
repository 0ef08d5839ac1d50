package leads

import (
	"fmt"
	"strings"
)

const baseScore = 50

// Fixed values for the booking path.
const (
	BookingDealValue = 50000
	BookingSource    = "Calendar Booking"
	BookingUrgency   = "High"
	ContactSource    = "Website Contact Form"
	DefaultDealValue = 25000
)

var budgetValues = map[string]int{
	"under-10k": 5000,
	"10k-50k":   30000,
	"50k-100k":  75000,
	"100k-500k": 300000,
	"over-500k": 750000,
}

var subjectValues = map[string]int{
	"demo":        50000,
	"partnership": 100000,
	"support":     10000,
	"general":     25000,
}

var messageKeywords = []struct {
	word   string
	points int
}{
	{"urgent", 20},
	{"budget", 15},
	{"immediately", 15},
	{"enterprise", 10},
}

// LeadScore adds up the rule table and clamps to [0,100].
func LeadScore(in ScoreInput, mode Mode) int {
	score := baseScore

	if mode == ModeDemo {
		score += 35
	}
	if strings.TrimSpace(in.Phone) != "" {
		score += 10
	}
	if strings.TrimSpace(in.Company) != "" {
		score += 15
	}
	if len(strings.Fields(in.Name)) >= 2 {
		score += 5
	}

	msg := strings.ToLower(in.Message)
	for _, kw := range messageKeywords {
		if strings.Contains(msg, kw.word) {
			score += kw.points
		}
	}

	switch normalize(in.Subject) {
	case "demo":
		score += 25
	case "partnership":
		score += 20
	}

	if b := normalize(in.BudgetRange); b != "" && b != "not-sure" {
		score += 15
	}
	if normalize(in.Timeline) == "immediate" {
		score += 20
	}
	if len(in.InterestedAgents) > 0 {
		score += 10
	}

	return clamp(score, 0, 100)
}

// DeterminePriority applies the thresholds top-down; the keyword and
// subject checks can only raise the result.
func DeterminePriority(score int, message, subject string) Priority {
	switch {
	case score >= 85 || strings.Contains(strings.ToLower(message), "urgent"):
		return PriorityUrgent
	case score >= 70 || normalize(subject) == "demo":
		return PriorityHigh
	case score >= 50:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// EstimateDealValue prefers the budget bracket over the subject.
func EstimateDealValue(budgetRange, subject string) int {
	if v, ok := budgetValues[normalize(budgetRange)]; ok {
		return v
	}
	if v, ok := subjectValues[normalize(subject)]; ok {
		return v
	}
	return DefaultDealValue
}

// ScoreBucket is the temperature tag for a score.
func ScoreBucket(score int) string {
	switch {
	case score >= 80:
		return "Hot Lead"
	case score >= 60:
		return "Warm Lead"
	default:
		return "Cold Lead"
	}
}

func bookingTags() []string {
	return []string{"Demo Booked", "High Intent", "Calendar Lead"}
}

func contactFormTags(f ContactForm, priority Priority, score int) []string {
	tags := []string{
		"Contact Form",
		"Priority: " + priority.Label(),
		ScoreBucket(score),
	}
	if s := strings.TrimSpace(f.Subject); s != "" {
		tags = append(tags, "Inquiry: "+s)
	}
	if strings.TrimSpace(f.Company) != "" {
		tags = append(tags, "Has Company")
	}
	if strings.TrimSpace(f.Phone) != "" {
		tags = append(tags, "Has Phone")
	}
	if b := strings.TrimSpace(f.BudgetRange); b != "" {
		tags = append(tags, "Budget: "+b)
	}
	if tl := strings.TrimSpace(f.Timeline); tl != "" {
		tags = append(tags, "Timeline: "+tl)
	}
	for _, agent := range f.InterestedAgents {
		if a := strings.TrimSpace(agent); a != "" {
			tags = append(tags, fmt.Sprintf("Interested: %s", a))
		}
	}
	return tags
}

// SplitName splits at the first space. Everything after it is the last name.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	first, last, _ = strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
