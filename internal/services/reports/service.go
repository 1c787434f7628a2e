package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"labelcheck/internal/domain"
	"labelcheck/internal/ports"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 50
	maxTitleLen      = 200
)

// Service is the owner-scoped persistence gateway for saved reports.
type Service struct {
	repo ports.ReportRepository
	log  *zap.Logger
	now  func() time.Time
}

var _ ports.Reports = (*Service)(nil)

func New(repo ports.ReportRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) Save(ctx context.Context, ownerID int64, title string, lang domain.Language, rec domain.AssessmentRecord) (domain.SavedReport, error) {
	now := s.now().UTC()
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Compliance report " + now.Format("2006-01-02")
	}
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen])
	}
	report := domain.SavedReport{
		ExternalID: uuid.NewString(),
		OwnerID:    ownerID,
		Title:      title,
		Language:   lang,
		Score:      rec.OverallRisk.Score(),
		Record:     rec,
		CreatedAt:  now,
	}
	saved, err := s.repo.InsertReport(ctx, report)
	if err != nil {
		return domain.SavedReport{}, s.storeErr("save report", err)
	}
	s.log.Info("report saved", zap.Int64("owner", ownerID), zap.String("report", saved.ExternalID), zap.Int("score", saved.Score))
	return saved, nil
}

// List returns the owner's reports newest first. limit is clamped to [1, MaxListLimit].
func (s *Service) List(ctx context.Context, ownerID int64, limit int) ([]domain.SavedReport, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	out, err := s.repo.ListReports(ctx, ownerID, limit)
	if err != nil {
		return nil, s.storeErr("list reports", err)
	}
	return out, nil
}

// Get returns ErrNotFound both for missing reports and for reports owned by someone else.
func (s *Service) Get(ctx context.Context, ownerID int64, externalID string) (domain.SavedReport, error) {
	if _, err := uuid.Parse(externalID); err != nil {
		return domain.SavedReport{}, domain.ErrNotFound
	}
	r, err := s.repo.GetReport(ctx, ownerID, externalID)
	if err != nil {
		return domain.SavedReport{}, s.storeErr("get report", err)
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, ownerID int64, externalID string) error {
	if _, err := uuid.Parse(externalID); err != nil {
		return domain.ErrNotFound
	}
	if err := s.repo.DeleteReport(ctx, ownerID, externalID); err != nil {
		return s.storeErr("delete report", err)
	}
	s.log.Info("report deleted", zap.Int64("owner", ownerID), zap.String("report", externalID))
	return nil
}

func (s *Service) storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}
	s.log.Error(op, zap.Error(err))
	return fmt.Errorf("%s: %w", op, domain.ErrStoreUnavailable)
}
