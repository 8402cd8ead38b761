// Package rfi implements the RFI workflow: status transitions, answer
// recording and the derived overdue/due-soon views.
package rfi

import (
	"fmt"
	"strings"
	"time"

	"github.com/suteetoe/rfitrack/internal/model"
)

// transitions lists the statuses reachable from each status. Closed is terminal;
// Reopen is the only way out of it.
var transitions = map[model.RFIStatus][]model.RFIStatus{
	model.RFIOpen:     {model.RFIPending, model.RFIAnswered, model.RFIClosed},
	model.RFIPending:  {model.RFIAnswered, model.RFIClosed},
	model.RFIAnswered: {model.RFIClosed},
	model.RFIClosed:   {},
}

// CanTransition reports whether the workflow allows from -> to
func CanTransition(from, to model.RFIStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SetStatus moves r to status to. Requesting the current status is a no-op.
// It returns whether the status changed.
func SetStatus(r *model.RFI, to model.RFIStatus, now time.Time) (bool, error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if r.Status == to {
		return false, nil
	}
	if !CanTransition(r.Status, to) {
		return false, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, r.Status, to)
	}
	enter(r, to, now)
	return true, nil
}

// RecordAnswer stores the answer text. An open RFI with a non-empty answer
// moves to answered. It returns whether the status changed.
func RecordAnswer(r *model.RFI, answer string, now time.Time) (bool, error) {
	if r.Status == model.RFIClosed {
		return false, ErrClosed
	}

	if strings.TrimSpace(answer) == "" {
		r.Answer = nil
		return false, nil
	}
	r.Answer = &answer

	if r.Status != model.RFIOpen {
		return false, nil
	}
	enter(r, model.RFIAnswered, now)
	return true, nil
}

// Reopen moves a closed RFI back to open and clears closed_at
func Reopen(r *model.RFI) error {
	if r.Status != model.RFIClosed {
		return fmt.Errorf("%w: only closed rfis can be reopened", ErrInvalidTransition)
	}
	r.Status = model.RFIOpen
	r.ClosedAt = nil
	return nil
}

func enter(r *model.RFI, to model.RFIStatus, now time.Time) {
	r.Status = to
	switch to {
	case model.RFIAnswered:
		if r.AnsweredAt == nil {
			r.AnsweredAt = &now
		}
	case model.RFIClosed:
		r.ClosedAt = &now
	}
}

// IsOverdue reports whether the due date has passed on an RFI that is not closed
func IsOverdue(r *model.RFI, now time.Time) bool {
	return r.DueDate != nil && r.DueDate.Before(now) && r.Status != model.RFIClosed
}

// IsDueSoon reports whether a not-yet-overdue, unclosed RFI is due within window
func IsDueSoon(r *model.RFI, now time.Time, window time.Duration) bool {
	if r.DueDate == nil || r.Status == model.RFIClosed || r.DueDate.Before(now) {
		return false
	}
	return r.DueDate.Sub(now) <= window
}
