package rfi

import (
	"time"

	"github.com/suteetoe/rfitrack/internal/model"
)

// Summary holds the dashboard counters for a set of RFIs
type Summary struct {
	Total           int `json:"total"`
	Open            int `json:"open"`
	Overdue         int `json:"overdue"`
	DueSoon         int `json:"due_soon"`
	ClosedThisMonth int `json:"closed_this_month"`
}

func (s *Summary) add(r *model.RFI, now time.Time, window time.Duration) {
	s.Total++
	if r.Status == model.RFIOpen || r.Status == model.RFIPending {
		s.Open++
	}
	if IsOverdue(r, now) {
		s.Overdue++
	}
	if IsDueSoon(r, now, window) {
		s.DueSoon++
	}
	if closedInMonth(r, now) {
		s.ClosedThisMonth++
	}
}

// closedInMonth compares calendar month and year in now's location
func closedInMonth(r *model.RFI, now time.Time) bool {
	if r.Status != model.RFIClosed || r.ClosedAt == nil {
		return false
	}
	closed := r.ClosedAt.In(now.Location())
	return closed.Year() == now.Year() && closed.Month() == now.Month()
}

// Aggregate counts rfis as of now
func Aggregate(rfis []model.RFI, now time.Time, window time.Duration) Summary {
	var s Summary
	for i := range rfis {
		s.add(&rfis[i], now, window)
	}
	return s
}

// AggregateByProject is Aggregate keyed by project id
func AggregateByProject(rfis []model.RFI, now time.Time, window time.Duration) map[string]Summary {
	out := make(map[string]Summary)
	for i := range rfis {
		s := out[rfis[i].ProjectID]
		s.add(&rfis[i], now, window)
		out[rfis[i].ProjectID] = s
	}
	return out
}
