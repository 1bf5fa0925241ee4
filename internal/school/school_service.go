package school

import (
	"context"
	"errors"
	"time"

	schoolerrors "go-schoolops/internal/school/errors"
	"go-schoolops/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, actorID string, req CreateSchoolRequest) (SchoolResponse, error)
	GetByID(ctx context.Context, id string) (SchoolResponse, error)
	GetAll(ctx context.Context, filter ListSchoolsFilter) ([]SchoolResponse, error)
	UpdateStatus(ctx context.Context, id string, req UpdateSchoolStatusRequest) (SchoolResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("school.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("school.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateSchoolRequest) (SchoolResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	school := &School{
		ID:           uuid.New(),
		Name:         req.Name,
		Code:         req.Code,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
		Status:       StatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if uid, err := uuid.Parse(actorID); err == nil {
		school.CreatedBy = &uid
	}

	if err := s.repo.Create(ctx, school); err != nil {
		log.Error("create school failed", zap.String("code", req.Code), zap.Error(err))
		return SchoolResponse{}, MapRepositoryError(err)
	}

	log.Info("create school success", zap.String("school_id", school.ID.String()))
	return mapToResponse(*school), nil
}

func (s *service) GetByID(ctx context.Context, id string) (SchoolResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SchoolResponse{}, schoolerrors.ErrInvalidSchoolID
	}

	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return SchoolResponse{}, MapRepositoryError(err)
	}
	return mapToResponse(*school), nil
}

func (s *service) GetAll(ctx context.Context, filter ListSchoolsFilter) ([]SchoolResponse, error) {
	schools, err := s.repo.FindAll(ctx, filter.Status)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list schools failed", zap.Error(err))
		return nil, MapRepositoryError(err)
	}

	resp := make([]SchoolResponse, 0, len(schools))
	for _, sc := range schools {
		resp = append(resp, mapToResponse(sc))
	}
	return resp, nil
}

// UpdateStatus does not touch postings; an inactive school only stops
// accepting new postings and drops out of the monthly billing batch.
func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateSchoolStatusRequest) (SchoolResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SchoolResponse{}, schoolerrors.ErrInvalidSchoolID
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return SchoolResponse{}, MapRepositoryError(err)
	}

	contextutil.GetLogger(ctx, s.logger).Info("school status changed",
		zap.String("school_id", id),
		zap.String("status", req.Status),
	)
	return s.GetByID(ctx, id)
}

// MapRepositoryError is shared with packages that resolve schools through this repository.
func MapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return schoolerrors.ErrSchoolNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_school_code" {
		return schoolerrors.ErrSchoolCodeAlreadyExists
	}
	return err
}

func mapToResponse(s School) SchoolResponse {
	trainers := make([]string, 0, len(s.CurrentTrainers))
	for _, id := range s.TrainerIDs() {
		trainers = append(trainers, id.String())
	}

	return SchoolResponse{
		ID:              s.ID.String(),
		Name:            s.Name,
		Code:            s.Code,
		Address:         s.Address,
		ContactEmail:    s.ContactEmail,
		Status:          s.Status,
		CurrentTrainers: trainers,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
}
