package rfi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/internal/store"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"go.uber.org/zap"
)

const (
	recentRFILimit     = 5
	recentProjectLimit = 3
)

// Repository is the persistence the workflow needs. Every call is scoped by userID.
type Repository interface {
	CreateRFI(ctx context.Context, userID string, r *model.RFI) error
	GetRFI(ctx context.Context, userID, id string) (*model.RFI, error)
	ListRFIs(ctx context.Context, userID string, f store.RFIFilter) ([]model.RFI, error)
	SaveRFI(ctx context.Context, userID string, r *model.RFI) error
	DeleteRFI(ctx context.Context, userID, id string) error
	CountProjects(ctx context.Context, userID string) (int64, error)
	RecentProjects(ctx context.Context, userID string, limit int) ([]model.Project, error)
}

// Service runs RFI operations for one tenant at a time
type Service struct {
	repo          Repository
	dueSoonWindow time.Duration
	now           func() time.Time
}

// NewService creates an RFI service
func NewService(repo Repository, dueSoonWindow time.Duration) *Service {
	return &Service{
		repo:          repo,
		dueSoonWindow: dueSoonWindow,
		now:           time.Now,
	}
}

// View is an RFI with its derived flags
type View struct {
	model.RFI
	IsOverdue bool `json:"is_overdue"`
	IsDueSoon bool `json:"is_due_soon"`
}

// Dashboard is the overview shown after sign-in
type Dashboard struct {
	ProjectCount   int64           `json:"project_count"`
	Stats          Summary         `json:"stats"`
	RecentRFIs     []View          `json:"recent_rfis"`
	RecentProjects []model.Project `json:"recent_projects"`
}

// CreateRequest describes a new RFI
type CreateRequest struct {
	ProjectID    string
	Subject      string
	Question     string
	Priority     model.RFIPriority
	AssignedToID *string
	DueDate      *time.Time
}

// UpdateRequest replaces the editable details of an RFI
type UpdateRequest struct {
	Subject      string
	Question     string
	Priority     model.RFIPriority
	AssignedToID *string
	DueDate      *time.Time
}

func (s *Service) view(r *model.RFI, now time.Time) View {
	return View{
		RFI:       *r,
		IsOverdue: IsOverdue(r, now),
		IsDueSoon: IsDueSoon(r, now, s.dueSoonWindow),
	}
}

func (s *Service) views(rfis []model.RFI, now time.Time) []View {
	out := make([]View, 0, len(rfis))
	for i := range rfis {
		out = append(out, s.view(&rfis[i], now))
	}
	return out
}

func validateDetails(subject, question string, priority model.RFIPriority) error {
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	if priority != "" && !priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
	}
	return nil
}

// referenceError turns a foreign assignee into an input error instead of leaking its existence
func referenceError(err error) error {
	if errors.Is(err, store.ErrInvalidReference) {
		return fmt.Errorf("%w: assignee must be one of your contacts", ErrInvalidInput)
	}
	return err
}

// Create opens a new RFI on one of the user's projects
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*View, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, fmt.Errorf("%w: project is required", ErrInvalidInput)
	}
	if err := validateDetails(req.Subject, req.Question, req.Priority); err != nil {
		return nil, err
	}

	r := &model.RFI{
		ProjectID:    req.ProjectID,
		Subject:      strings.TrimSpace(req.Subject),
		Question:     req.Question,
		Status:       model.RFIOpen,
		Priority:     req.Priority,
		AssignedToID: req.AssignedToID,
		DueDate:      req.DueDate,
	}
	if err := s.repo.CreateRFI(ctx, userID, r); err != nil {
		return nil, referenceError(err)
	}

	logger.FromContext(ctx).Info("RFI created",
		zap.String("rfi_id", r.ID),
		zap.String("project_id", r.ProjectID),
		zap.Int("rfi_number", r.RFINumber))

	v := s.view(r, s.now())
	return &v, nil
}

// Get loads one RFI
func (s *Service) Get(ctx context.Context, userID, id string) (*View, error) {
	r, err := s.repo.GetRFI(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	v := s.view(r, s.now())
	return &v, nil
}

// List returns the user's RFIs, optionally narrowed to one project or status
func (s *Service) List(ctx context.Context, userID string, f store.RFIFilter) ([]View, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	rfis, err := s.repo.ListRFIs(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return s.views(rfis, s.now()), nil
}

// Update replaces the editable details of an open RFI
func (s *Service) Update(ctx context.Context, userID, id string, req UpdateRequest) (*View, error) {
	if err := validateDetails(req.Subject, req.Question, req.Priority); err != nil {
		return nil, err
	}

	r, err := s.repo.GetRFI(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if r.Status == model.RFIClosed {
		return nil, ErrClosed
	}

	r.Subject = strings.TrimSpace(req.Subject)
	r.Question = req.Question
	if req.Priority != "" {
		r.Priority = req.Priority
	}
	r.AssignedToID = req.AssignedToID
	r.AssignedTo = nil
	r.DueDate = req.DueDate

	if err := s.repo.SaveRFI(ctx, userID, r); err != nil {
		return nil, referenceError(err)
	}
	return s.reload(ctx, userID, id)
}

// Answer records the answer text and may move the RFI to answered
func (s *Service) Answer(ctx context.Context, userID, id, answer string) (*View, error) {
	r, err := s.repo.GetRFI(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	from := r.Status
	changed, err := RecordAnswer(r, answer, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveRFI(ctx, userID, r); err != nil {
		return nil, err
	}
	if changed {
		s.recordTransition(ctx, r, from)
	}

	v := s.view(r, s.now())
	return &v, nil
}

// ChangeStatus applies an explicit status change
func (s *Service) ChangeStatus(ctx context.Context, userID, id string, to model.RFIStatus) (*View, error) {
	r, err := s.repo.GetRFI(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	from := r.Status
	changed, err := SetStatus(r, to, s.now())
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.repo.SaveRFI(ctx, userID, r); err != nil {
			return nil, err
		}
		s.recordTransition(ctx, r, from)
	}

	v := s.view(r, s.now())
	return &v, nil
}

// Reopen moves a closed RFI back to open
func (s *Service) Reopen(ctx context.Context, userID, id string) (*View, error) {
	r, err := s.repo.GetRFI(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := Reopen(r); err != nil {
		return nil, err
	}
	if err := s.repo.SaveRFI(ctx, userID, r); err != nil {
		return nil, err
	}
	s.recordTransition(ctx, r, model.RFIClosed)

	v := s.view(r, s.now())
	return &v, nil
}

// Delete removes an RFI and its attachments
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteRFI(ctx, userID, id)
}

// ProjectStats aggregates the RFIs of one project
func (s *Service) ProjectStats(ctx context.Context, userID, projectID string) (Summary, error) {
	rfis, err := s.repo.ListRFIs(ctx, userID, store.RFIFilter{ProjectID: projectID})
	if err != nil {
		return Summary{}, err
	}
	return Aggregate(rfis, s.now(), s.dueSoonWindow), nil
}

// StatsByProject returns Summary per project id for every project with at least one RFI
func (s *Service) StatsByProject(ctx context.Context, userID string) (map[string]Summary, error) {
	rfis, err := s.repo.ListRFIs(ctx, userID, store.RFIFilter{})
	if err != nil {
		return nil, err
	}
	return AggregateByProject(rfis, s.now(), s.dueSoonWindow), nil
}

// Dashboard builds the user's overview
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	count, err := s.repo.CountProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	rfis, err := s.repo.ListRFIs(ctx, userID, store.RFIFilter{})
	if err != nil {
		return nil, err
	}
	projects, err := s.repo.RecentProjects(ctx, userID, recentProjectLimit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	recent := rfis
	if len(recent) > recentRFILimit {
		recent = recent[:recentRFILimit]
	}
	return &Dashboard{
		ProjectCount:   count,
		Stats:          Aggregate(rfis, now, s.dueSoonWindow),
		RecentRFIs:     s.views(recent, now),
		RecentProjects: projects,
	}, nil
}

func (s *Service) reload(ctx context.Context, userID, id string) (*View, error) {
	r, err := s.repo.GetRFI(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	v := s.view(r, s.now())
	return &v, nil
}

func (s *Service) recordTransition(ctx context.Context, r *model.RFI, from model.RFIStatus) {
	metrics.RecordRFITransition(string(from), string(r.Status))
	logger.FromContext(ctx).Info("RFI status changed",
		zap.String("rfi_id", r.ID),
		zap.String("from", string(from)),
		zap.String("to", string(r.Status)))
}
