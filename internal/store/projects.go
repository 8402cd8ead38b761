package store

import (
	"context"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"gorm.io/gorm/clause"
)

// ProjectSummary is a project with its RFI counts
type ProjectSummary struct {
	model.Project
	RFICount     int64 `json:"rfi_count"`
	OpenRFICount int64 `json:"open_rfi_count"`
}

// CreateProject inserts a project owned by userID
func (s *Store) CreateProject(ctx context.Context, userID string, p *model.Project) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("insert")()

	p.UserID = userID
	return translate(s.db.WithContext(ctx).Create(p).Error, "create project")
}

// GetProject loads one of the user's projects
func (s *Store) GetProject(ctx context.Context, userID, id string) (*model.Project, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	var p model.Project
	if err := owned(s.db.WithContext(ctx), userID).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err, "get project")
	}
	return &p, nil
}

// ListProjects returns the user's projects, newest first, with RFI counts
func (s *Store) ListProjects(ctx context.Context, userID string) ([]ProjectSummary, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	db := s.db.WithContext(ctx)

	var projects []model.Project
	if err := owned(db, userID).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, translate(err, "list projects")
	}

	var counts []struct {
		ProjectID string
		Total     int64
		OpenCount int64
	}
	err := owned(db.Model(&model.RFI{}), userID).
		Select("project_id, COUNT(*) AS total, SUM(CASE WHEN status IN ? THEN 1 ELSE 0 END) AS open_count",
			[]model.RFIStatus{model.RFIOpen, model.RFIPending}).
		Group("project_id").
		Scan(&counts).Error
	if err != nil {
		return nil, translate(err, "count project rfis")
	}

	byProject := make(map[string]int, len(counts))
	for i, c := range counts {
		byProject[c.ProjectID] = i
	}

	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summary := ProjectSummary{Project: p}
		if i, ok := byProject[p.ID]; ok {
			summary.RFICount = counts[i].Total
			summary.OpenRFICount = counts[i].OpenCount
		}
		out = append(out, summary)
	}
	return out, nil
}

// RecentProjects returns the most recently updated projects
func (s *Store) RecentProjects(ctx context.Context, userID string, limit int) ([]model.Project, error) {
	if err := requireTenant(userID); err != nil {
		return nil, err
	}
	defer metrics.TrackDBOperation("query")()

	var projects []model.Project
	err := owned(s.db.WithContext(ctx), userID).Order("updated_at DESC").Limit(limit).Find(&projects).Error
	if err != nil {
		return nil, translate(err, "recent projects")
	}
	return projects, nil
}

// CountProjects counts the user's projects
func (s *Store) CountProjects(ctx context.Context, userID string) (int64, error) {
	if err := requireTenant(userID); err != nil {
		return 0, err
	}
	defer metrics.TrackDBOperation("query")()

	var n int64
	if err := owned(s.db.WithContext(ctx).Model(&model.Project{}), userID).Count(&n).Error; err != nil {
		return 0, translate(err, "count projects")
	}
	return n, nil
}

// UpdateProject overwrites the editable project fields
func (s *Store) UpdateProject(ctx context.Context, userID string, p *model.Project) error {
	if err := requireTenant(userID); err != nil {
		return err
	}
	defer metrics.TrackDBOperation("update")()

	result := owned(s.db.WithContext(ctx).Model(p), userID).
		Where("id = ?", p.ID).
		Select("name", "description", "client_name", "address", "status", "updated_at").
		Omit(clause.Associations).
		Updates(p)
	if result.Error != nil {
		return translate(result.Error, "update project")
	}
	if result.RowsAffected == 0 {
		return translate(ErrNotFound, "update project")
	}
	return nil
}
