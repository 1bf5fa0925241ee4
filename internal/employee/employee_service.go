package employee

import (
	"context"
	"fmt"
	"time"

	employeeerrors "go-schoolops/internal/employee/errors"
	"go-schoolops/internal/shared/contextutil"
	"go-schoolops/internal/shared/counter"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	employeeCodeScope   = "employee"
	employeeCodeCounter = "employee_code"
)

type Service interface {
	Create(ctx context.Context, actorID string, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
}

type service struct {
	db          *gorm.DB
	repo        Repository
	counterRepo counter.Repository
	logger      *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, counterRepo counter.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{db: db, repo: repo, counterRepo: counterRepo, logger: l}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateEmployeeRequest) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create employee requested", zap.String("email", req.Email))

	joinedAt := time.Now().UTC().Truncate(24 * time.Hour)
	if req.JoinedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.JoinedAt)
		if err != nil {
			log.Warn("create employee invalid joined_at", zap.String("joined_at", req.JoinedAt))
			return EmployeeResponse{}, employeeerrors.ErrInvalidJoinedAt
		}
		joinedAt = parsed
	}

	empl := &Employee{
		ID:          uuid.New(),
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       req.Phone,
		Designation: req.Designation,
		JoinedAt:    joinedAt,
		CreatedBy:   parseActor(actorID),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := s.counterRepo.WithTx(tx).GetNextValue(ctx, employeeCodeScope, employeeCodeCounter)
		if err != nil {
			return err
		}
		empl.EmployeeCode = fmt.Sprintf("EMP-%06d", next)

		return s.repo.WithTx(tx).Create(ctx, empl)
	})
	if err != nil {
		log.Error("create employee failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	log.Info("create employee success",
		zap.String("employee_id", empl.ID.String()),
		zap.String("employee_code", empl.EmployeeCode),
	)
	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	empls, err := s.repo.FindAll(ctx)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	resp := make([]EmployeeResponse, 0, len(empls))
	for _, e := range empls {
		resp = append(resp, mapToResponse(e))
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*empl), nil
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:           empl.ID.String(),
		EmployeeCode: empl.EmployeeCode,
		FullName:     empl.FullName,
		Email:        empl.Email,
		Phone:        empl.Phone,
		Designation:  empl.Designation,
		JoinedAt:     empl.JoinedAt.Format("2006-01-02"),
	}
}

func parseActor(actorID string) *uuid.UUID {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return nil
	}
	return &id
}
