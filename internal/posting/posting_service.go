package posting

import (
	"context"
	"sort"
	"time"

	"go-schoolops/internal/employee"
	"go-schoolops/internal/events"
	"go-schoolops/internal/messaging/kafka"
	postingerrors "go-schoolops/internal/posting/errors"
	"go-schoolops/internal/school"
	"go-schoolops/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const autoTransferRemark = "Auto transfer: employee was posted to another school"

var hundred = decimal.NewFromInt(100)

type Service interface {
	Create(ctx context.Context, actorID string, req CreatePostingRequest) (PostingResponse, error)
	Update(ctx context.Context, actorID, id string, req UpdatePostingRequest) (PostingResponse, error)
	GetByID(ctx context.Context, id string) (PostingResponse, error)
	GetAll(ctx context.Context, filter ListPostingsFilter) ([]PostingResponse, error)
	ReconcileRosters(ctx context.Context) (ReconcileReport, error)
}

type service struct {
	db        *gorm.DB
	repo      Repository
	employees employee.Repository
	schools   school.Repository
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	db *gorm.DB,
	repo Repository,
	employees employee.Repository,
	schools school.Repository,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("posting.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("posting.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		schools:   schools,
		outbox:    outbox,
		logger:    l,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, actorID string, req CreatePostingRequest) (PostingResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("employee_id", req.EmployeeID),
		zap.String("school_id", req.SchoolID),
	)
	log.Debug("create posting requested", zap.String("status", req.Status))

	draft, err := s.newDraft(actorID, req)
	if err != nil {
		log.Warn("create posting validation failed", zap.Error(err))
		return PostingResponse{}, err
	}

	var saved *Posting
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		schools := s.schools.WithTx(tx)

		if _, err := s.employees.WithTx(tx).LockByID(ctx, req.EmployeeID); err != nil {
			return mapLookupError(err, postingerrors.ErrEmployeeNotFound)
		}
		if err := s.requireActiveSchool(ctx, schools, req.SchoolID); err != nil {
			return err
		}

		active, err := repo.FindActiveByEmployee(ctx, draft.EmployeeID)
		if err != nil {
			return err
		}
		if err := applyTransitionRules(draft, active); err != nil {
			return err
		}

		// superseded postings are closed before the insert so the partial
		// unique index never sees two current postings
		if err := s.syncRoster(ctx, repo, schools, draft, active, log); err != nil {
			return err
		}
		if err := repo.Create(ctx, draft); err != nil {
			return err
		}
		if err := s.writeEvent(ctx, tx, draft, events.PostingCreatedType); err != nil {
			return err
		}

		saved, err = repo.FindByID(ctx, draft.ID.String())
		return err
	})
	if err != nil {
		mapped := mapRepositoryError(err)
		log.Warn("create posting failed", zap.Error(err))
		return PostingResponse{}, mapped
	}

	log.Info("create posting success",
		zap.String("posting_id", saved.ID.String()),
		zap.String("status", saved.Status),
		zap.Bool("is_active", saved.IsActive),
	)
	return mapToResponse(*saved), nil
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdatePostingRequest) (PostingResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("posting_id", id),
	)
	if _, err := uuid.Parse(id); err != nil {
		return PostingResponse{}, postingerrors.ErrInvalidPostingID
	}
	if err := validatePercents(req.TDSPercent, req.GSTPercent); err != nil {
		return PostingResponse{}, err
	}
	if req.MonthlyBillingSalary != nil && !req.MonthlyBillingSalary.IsPositive() {
		return PostingResponse{}, postingerrors.ErrSalaryRequired
	}

	actor := parseActor(actorID)

	var saved *Posting
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		schools := s.schools.WithTx(tx)

		p, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.employees.WithTx(tx).LockByID(ctx, p.EmployeeID.String()); err != nil {
			return mapLookupError(err, postingerrors.ErrEmployeeNotFound)
		}
		// reload under the employee lock
		if p, err = repo.FindByID(ctx, id); err != nil {
			return err
		}

		p.UpdatedBy = actor
		if err := applyFieldChanges(p, req, s.now()); err != nil {
			return err
		}

		if req.Status != nil && (*req.Status != p.Status || (!p.IsActive && IsCurrentStatus(*req.Status))) {
			if err := s.changeStatus(ctx, repo, schools, p, *req.Status, req.EndDate != nil, log); err != nil {
				return err
			}
		}

		if err := repo.Update(ctx, p); err != nil {
			return err
		}
		if err := s.writeEvent(ctx, tx, p, events.PostingUpdatedType); err != nil {
			return err
		}

		saved, err = repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		log.Warn("update posting failed", zap.Error(err))
		return PostingResponse{}, mapRepositoryError(err)
	}

	log.Info("update posting success",
		zap.String("status", saved.Status),
		zap.Bool("is_active", saved.IsActive),
	)
	return mapToResponse(*saved), nil
}

// changeStatus moves an existing posting to target and re-runs roster sync
// when the move affects roster membership.
func (s *service) changeStatus(
	ctx context.Context,
	repo Repository,
	schools school.Repository,
	p *Posting,
	target string,
	keepEndDate bool,
	log *zap.Logger,
) error {
	switch {
	case IsTerminalStatus(target) && (IsTerminalStatus(p.Status) || !p.IsActive):
		// already closed, the roster no longer depends on this posting
		p.Status = target
		return nil

	case IsTerminalStatus(target):
		active, err := repo.FindActiveByEmployee(ctx, p.EmployeeID)
		if err != nil {
			return err
		}
		p.Status = target
		requested := p.EndDate
		if err := s.syncRoster(ctx, repo, schools, p, active, log); err != nil {
			return err
		}
		if keepEndDate {
			p.EndDate = requested
		}
		return nil

	case p.IsActive && IsCurrentStatus(p.Status):
		// continue <-> change_school on the live posting
		p.Status = target
		return nil

	default:
		// reactivating a closed posting follows the same rules as a new one
		if err := s.requireActiveSchool(ctx, schools, p.SchoolID.String()); err != nil {
			return err
		}
		active, err := repo.FindActiveByEmployee(ctx, p.EmployeeID)
		if err != nil {
			return err
		}
		p.Status = target
		if err := applyTransitionRules(p, active); err != nil {
			return err
		}
		if !keepEndDate {
			p.EndDate = nil
		}
		return s.syncRoster(ctx, repo, schools, p, active, log)
	}
}

func (s *service) GetByID(ctx context.Context, id string) (PostingResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return PostingResponse{}, postingerrors.ErrInvalidPostingID
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return PostingResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*p), nil
}

func (s *service) GetAll(ctx context.Context, filter ListPostingsFilter) ([]PostingResponse, error) {
	postings, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("list postings failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].StartDate.After(postings[j].StartDate)
	})

	resp := make([]PostingResponse, 0, len(postings))
	for _, p := range postings {
		resp = append(resp, mapToResponse(p))
	}
	return resp, nil
}

// ReconcileRosters rebuilds every school roster from the posting history.
// When an employee somehow holds several current postings, the most recent
// one wins and the rest are closed.
func (s *service) ReconcileRosters(ctx context.Context) (ReconcileReport, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	var report ReconcileReport

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		schools := s.schools.WithTx(tx)

		current, err := repo.FindCurrent(ctx)
		if err != nil {
			return err
		}
		sort.SliceStable(current, func(i, j int) bool {
			if !current[i].StartDate.Equal(current[j].StartDate) {
				return current[i].StartDate.After(current[j].StartDate)
			}
			return current[i].CreatedAt.After(current[j].CreatedAt)
		})

		now := s.now()
		kept := make(map[uuid.UUID]Posting, len(current))
		for _, p := range current {
			if _, ok := kept[p.EmployeeID]; ok {
				if err := repo.Deactivate(ctx, p.ID, closingDate(p.StartDate, now), nil); err != nil {
					return err
				}
				log.Warn("closed duplicate current posting",
					zap.String("posting_id", p.ID.String()),
					zap.String("employee_id", p.EmployeeID.String()),
				)
				report.PostingsDeactivated++
				continue
			}
			kept[p.EmployeeID] = p
		}

		roster := make(map[uuid.UUID][]uuid.UUID)
		for _, p := range kept {
			roster[p.SchoolID] = append(roster[p.SchoolID], p.EmployeeID)
		}

		all, err := schools.FindAll(ctx, "")
		if err != nil {
			return err
		}
		for _, sc := range all {
			added, removed, err := schools.ReplaceTrainers(ctx, sc.ID, roster[sc.ID])
			if err != nil {
				return err
			}
			report.SchoolsChecked++
			report.TrainersAdded += added
			report.TrainersRemoved += removed
		}
		return nil
	})
	if err != nil {
		log.Error("reconcile rosters failed", zap.Error(err))
		return ReconcileReport{}, err
	}

	log.Info("reconcile rosters done",
		zap.Int("schools", report.SchoolsChecked),
		zap.Int("added", report.TrainersAdded),
		zap.Int("removed", report.TrainersRemoved),
		zap.Int("postings_closed", report.PostingsDeactivated),
	)
	return report, nil
}

// syncRoster applies the roster side effects of p and settles p.IsActive and
// p.EndDate. active holds the employee's postings with is_active = true as
// read before the write.
func (s *service) syncRoster(
	ctx context.Context,
	repo Repository,
	schools school.Repository,
	p *Posting,
	active []Posting,
	log *zap.Logger,
) error {
	now := s.now()

	if IsTerminalStatus(p.Status) {
		if err := schools.RemoveTrainer(ctx, p.SchoolID, p.EmployeeID); err != nil {
			log.Error("remove trainer failed", zap.String("school_id", p.SchoolID.String()), zap.Error(err))
			return err
		}
		for _, other := range active {
			if other.ID == p.ID || other.SchoolID != p.SchoolID || !IsCurrentStatus(other.Status) {
				continue
			}
			if err := repo.Deactivate(ctx, other.ID, closingDate(other.StartDate, now), p.UpdatedBy); err != nil {
				return err
			}
		}
		end := closingDate(p.StartDate, now)
		p.IsActive = false
		p.EndDate = &end
		return nil
	}

	for _, other := range active {
		if other.ID == p.ID {
			continue
		}
		if err := schools.RemoveTrainer(ctx, other.SchoolID, p.EmployeeID); err != nil {
			log.Error("remove trainer from previous school failed",
				zap.String("school_id", other.SchoolID.String()),
				zap.Error(err),
			)
			return err
		}
		if err := repo.Deactivate(ctx, other.ID, closingDate(other.StartDate, now), p.UpdatedBy); err != nil {
			return err
		}
		log.Debug("superseded posting closed", zap.String("posting_id", other.ID.String()))
	}

	if err := schools.AddTrainer(ctx, p.SchoolID, p.EmployeeID); err != nil {
		log.Error("add trainer failed", zap.String("school_id", p.SchoolID.String()), zap.Error(err))
		return err
	}
	p.IsActive = true
	return nil
}

func (s *service) requireActiveSchool(ctx context.Context, schools school.Repository, schoolID string) error {
	sc, err := schools.FindByID(ctx, schoolID)
	if err != nil {
		return mapLookupError(err, postingerrors.ErrSchoolNotFound)
	}
	if sc.Status != school.StatusActive {
		return postingerrors.ErrSchoolInactive
	}
	return nil
}

func (s *service) writeEvent(ctx context.Context, tx *gorm.DB, p *Posting, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	actor := ""
	if p.UpdatedBy != nil {
		actor = p.UpdatedBy.String()
	}
	event, err := kafka.NewOutboxEvent(ctx, "posting", p.ID.String(), eventType, events.PostingChangedTopic,
		events.PostingChangedEvent{
			EventType:  eventType,
			PostingID:  p.ID.String(),
			EmployeeID: p.EmployeeID.String(),
			SchoolID:   p.SchoolID.String(),
			Status:     p.Status,
			IsActive:   p.IsActive,
			ActorID:    actor,
			OccurredAt: s.now(),
		})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, event)
}

func (s *service) newDraft(actorID string, req CreatePostingRequest) (*Posting, error) {
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return nil, postingerrors.ErrEmployeeNotFound
	}
	schoolID, err := uuid.Parse(req.SchoolID)
	if err != nil {
		return nil, postingerrors.ErrSchoolNotFound
	}
	if req.MonthlyBillingSalary == nil || !req.MonthlyBillingSalary.IsPositive() {
		return nil, postingerrors.ErrSalaryRequired
	}
	if err := validatePercents(req.TDSPercent, req.GSTPercent); err != nil {
		return nil, err
	}

	start := s.now()
	if req.StartDate != "" {
		d, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, postingerrors.ErrInvalidDate
		}
		start = d
	}

	var end *time.Time
	if req.EndDate != "" {
		d, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, postingerrors.ErrInvalidDate
		}
		if d.Before(start) {
			return nil, postingerrors.ErrInvalidDateRange
		}
		end = &d
	}

	actor := parseActor(actorID)
	return &Posting{
		ID:                   uuid.New(),
		EmployeeID:           employeeID,
		SchoolID:             schoolID,
		StartDate:            start,
		EndDate:              end,
		Status:               req.Status,
		IsActive:             true,
		MonthlyBillingSalary: req.MonthlyBillingSalary.Round(2),
		TDSPercent:           decimalOrZero(req.TDSPercent),
		GSTPercent:           decimalOrZero(req.GSTPercent),
		SalaryHistory:        []SalaryChange{},
		Remark:               req.Remark,
		CreatedBy:            actor,
		UpdatedBy:            actor,
	}, nil
}

// applyTransitionRules checks p against the employee's other current postings
// and turns a continue into an auto transfer when one exists elsewhere.
func applyTransitionRules(p *Posting, active []Posting) error {
	var current []Posting
	for _, a := range active {
		if a.ID != p.ID && IsCurrentStatus(a.Status) {
			current = append(current, a)
		}
	}

	switch p.Status {
	case StatusChangeSchool:
		if len(current) == 0 {
			return postingerrors.ErrNotCurrentlyPosted
		}
		for _, c := range current {
			if c.SchoolID == p.SchoolID {
				return postingerrors.ErrAlreadyPostedHere
			}
		}
	case StatusContinue:
		for _, c := range current {
			if c.SchoolID == p.SchoolID {
				return postingerrors.ErrActivePostingExists
			}
		}
		if len(current) > 0 {
			p.Status = StatusChangeSchool
			if p.Remark == "" {
				p.Remark = autoTransferRemark
			}
		}
	}
	return nil
}

func applyFieldChanges(p *Posting, req UpdatePostingRequest, now time.Time) error {
	if req.MonthlyBillingSalary != nil {
		next := req.MonthlyBillingSalary.Round(2)
		if !next.Equal(p.MonthlyBillingSalary) {
			p.SalaryHistory = append(p.SalaryHistory, SalaryChange{
				Amount: p.MonthlyBillingSalary,
				From:   p.salaryEffectiveSince(),
				To:     now,
			})
			p.MonthlyBillingSalary = next
		}
	}
	if req.TDSPercent != nil {
		p.TDSPercent = *req.TDSPercent
	}
	if req.GSTPercent != nil {
		p.GSTPercent = *req.GSTPercent
	}
	if req.Remark != nil {
		p.Remark = *req.Remark
	}
	if req.EndDate != nil {
		d, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return postingerrors.ErrInvalidDate
		}
		if d.Before(p.StartDate) {
			return postingerrors.ErrInvalidDateRange
		}
		p.EndDate = &d
	}
	return nil
}

func validatePercents(tds, gst *decimal.Decimal) error {
	if tds != nil && (tds.IsNegative() || tds.GreaterThan(hundred)) {
		return postingerrors.ErrInvalidTDSPercent
	}
	if gst != nil && (gst.IsNegative() || gst.GreaterThan(hundred)) {
		return postingerrors.ErrInvalidGSTPercent
	}
	return nil
}

// closingDate keeps endDate >= startDate for postings that start in the future.
func closingDate(start, now time.Time) time.Time {
	if now.Before(start) {
		return start
	}
	return now
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func parseActor(actorID string) *uuid.UUID {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return nil
	}
	return &id
}

func mapToResponse(p Posting) PostingResponse {
	resp := PostingResponse{
		ID:                   p.ID.String(),
		EmployeeID:           p.EmployeeID.String(),
		SchoolID:             p.SchoolID.String(),
		StartDate:            p.StartDate.Format("2006-01-02"),
		Status:               p.Status,
		IsActive:             p.IsActive,
		MonthlyBillingSalary: p.MonthlyBillingSalary,
		TDSPercent:           p.TDSPercent,
		GSTPercent:           p.GSTPercent,
		SalaryHistory:        make([]SalaryChangeResponse, 0, len(p.SalaryHistory)),
		Remark:               p.Remark,
		CreatedAt:            p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            p.UpdatedAt.Format(time.RFC3339),
	}
	if p.EndDate != nil {
		end := p.EndDate.Format("2006-01-02")
		resp.EndDate = &end
	}
	if p.Employee != nil {
		resp.EmployeeName = p.Employee.FullName
		resp.EmployeeCode = p.Employee.EmployeeCode
	}
	if p.School != nil {
		resp.SchoolName = p.School.Name
	}
	if p.CreatedBy != nil {
		resp.CreatedBy = p.CreatedBy.String()
	}
	if p.UpdatedBy != nil {
		resp.UpdatedBy = p.UpdatedBy.String()
	}
	for _, h := range p.SalaryHistory {
		resp.SalaryHistory = append(resp.SalaryHistory, SalaryChangeResponse{
			Amount: h.Amount,
			From:   h.From.Format(time.RFC3339),
			To:     h.To.Format(time.RFC3339),
		})
	}
	return resp
}
