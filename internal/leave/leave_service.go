package leave

import (
	"context"
	"errors"
	"time"

	"go-schoolops/internal/employee"
	leaveerrors "go-schoolops/internal/leave/errors"
	"go-schoolops/internal/school"
	"go-schoolops/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Upsert(ctx context.Context, actorID string, req UpsertLeaveRequest) (LeaveResponse, error)
	GetByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error)
	ListSchool(ctx context.Context, filter SchoolPeriodFilter) ([]LeaveResponse, error)
}

type service struct {
	repo      Repository
	employees employee.Repository
	schools   school.Repository
	logger    *zap.Logger
}

func NewService(repo Repository, employees employee.Repository, schools school.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{repo: repo, employees: employees, schools: schools, logger: l}
}

// ValidateDays checks the per-record cap applied to every monthly entry.
func ValidateDays(paid, unpaid int) error {
	if paid < 0 || unpaid < 0 {
		return leaveerrors.ErrNegativeDays
	}
	if paid+unpaid > MaxDaysPerMonth {
		return leaveerrors.ErrTooManyDays
	}
	return nil
}

func (s *service) Upsert(ctx context.Context, actorID string, req UpsertLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidEmployeeID
	}
	schoolID, err := uuid.Parse(req.SchoolID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrSchoolNotFound
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 {
		return LeaveResponse{}, leaveerrors.ErrInvalidPeriod
	}

	paid, unpaid := intOrZero(req.Paid), intOrZero(req.Unpaid)
	if err := ValidateDays(paid, unpaid); err != nil {
		return LeaveResponse{}, err
	}

	if _, err := s.employees.FindByID(ctx, req.EmployeeID); err != nil {
		return LeaveResponse{}, mapLookupError(err, leaveerrors.ErrEmployeeNotFound)
	}
	if _, err := s.schools.FindByID(ctx, req.SchoolID); err != nil {
		return LeaveResponse{}, mapLookupError(err, leaveerrors.ErrSchoolNotFound)
	}

	l := &Leave{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		SchoolID:   schoolID,
		Month:      req.Month,
		Year:       req.Year,
		Paid:       paid,
		Unpaid:     unpaid,
		CreatedAt:  time.Now(),
	}
	if uid, err := uuid.Parse(actorID); err == nil {
		l.CreatedBy = &uid
		l.UpdatedBy = &uid
	}

	if err := s.repo.Upsert(ctx, l); err != nil {
		log.Error("upsert leave failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("school_id", req.SchoolID),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	stored, err := s.repo.FindByPeriod(ctx, employeeID, schoolID, req.Month, req.Year)
	if err != nil {
		return LeaveResponse{}, mapLookupError(err, leaveerrors.ErrLeaveNotFound)
	}

	log.Info("leave recorded",
		zap.String("employee_id", req.EmployeeID),
		zap.String("school_id", req.SchoolID),
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
		zap.Int("paid", paid),
		zap.Int("unpaid", unpaid),
	)
	return mapToResponse(*stored), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string) ([]LeaveResponse, error) {
	id, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, leaveerrors.ErrInvalidEmployeeID
	}
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		return nil, mapLookupError(err, leaveerrors.ErrEmployeeNotFound)
	}

	leaves, err := s.repo.FindAllByEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAll(leaves), nil
}

func (s *service) ListSchool(ctx context.Context, filter SchoolPeriodFilter) ([]LeaveResponse, error) {
	schoolID, err := uuid.Parse(filter.SchoolID)
	if err != nil {
		return nil, leaveerrors.ErrSchoolNotFound
	}

	leaves, err := s.repo.FindAllBySchoolPeriod(ctx, schoolID, filter.Month, filter.Year)
	if err != nil {
		return nil, err
	}
	return mapAll(leaves), nil
}

func mapLookupError(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func mapAll(leaves []Leave) []LeaveResponse {
	resp := make([]LeaveResponse, 0, len(leaves))
	for _, l := range leaves {
		resp = append(resp, mapToResponse(l))
	}
	return resp
}

func mapToResponse(l Leave) LeaveResponse {
	return LeaveResponse{
		ID:         l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		SchoolID:   l.SchoolID.String(),
		Month:      l.Month,
		Year:       l.Year,
		Paid:       l.Paid,
		Unpaid:     l.Unpaid,
		UpdatedAt:  l.UpdatedAt.Format(time.RFC3339),
	}
}
