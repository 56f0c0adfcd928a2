package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/biswajit-debnath/control-room/internal/authz"
	"github.com/biswajit-debnath/control-room/internal/events"
	"github.com/biswajit-debnath/control-room/internal/model"
	"github.com/biswajit-debnath/control-room/internal/repository"
)

const dateLayout = "2006-01-02"

// publishTimeout bounds how long a request waits on the broker, reconnect
// and lock wait included.
const publishTimeout = 3 * time.Second

// OperationService defines operations for DG shift records
type OperationService interface {
	CreateOperation(ctx context.Context, actor *model.User, req model.CreateOperationRequest) (*model.Operation, error)
	GetOperation(ctx context.Context, id int64) (*model.Operation, error)
	// Sign countersigns the record once. See ErrAlreadySigned.
	Sign(ctx context.Context, id int64, actor *model.User) (*model.Operation, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.Operation, error)
	ListAll(ctx context.Context, filters model.OperationFilters) ([]model.Operation, error)
	GroupByDate(ops []model.Operation) []model.DateGroup
	DayGroup(date time.Time, ops []model.Operation) model.DateGroup
	Location() *time.Location
}

type operationService struct {
	repo      repository.OperationRepository
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
}

// NewOperationService creates a new OperationService. Calendar dates are
// computed in loc; a nil loc means UTC.
func NewOperationService(repo repository.OperationRepository, publisher events.Publisher, loc *time.Location) OperationService {
	return newOperationService(repo, publisher, loc)
}

func newOperationService(repo repository.OperationRepository, publisher events.Publisher, loc *time.Location) *operationService {
	if loc == nil {
		loc = time.UTC
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &operationService{repo: repo, publisher: publisher, loc: loc, now: time.Now}
}

func (s *operationService) Location() *time.Location { return s.loc }

// optionalText trims a free-text field and drops it when empty.
func optionalText(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func (s *operationService) CreateOperation(ctx context.Context, actor *model.User, req model.CreateOperationRequest) (*model.Operation, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !authz.Allow(actor.Role, authz.ActionCreateOperation) {
		return nil, ErrForbidden
	}

	shift, err := model.ParseShift(req.Shift)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.OperationDate.IsZero() {
		return nil, fmt.Errorf("%w: operation date is required", ErrValidation)
	}

	now := s.now()
	op := &model.Operation{
		OperationDate: req.OperationDate,
		Shift:         shift,

		EODInShift:            optionalText(req.EODInShift),
		TestingHrsFrom:        optionalText(req.TestingHrsFrom),
		TestingHrsTo:          optionalText(req.TestingHrsTo),
		TestingProgressiveHrs: req.TestingProgressiveHrs,
		LoadHrsFrom:           optionalText(req.LoadHrsFrom),
		LoadHrsTo:             optionalText(req.LoadHrsTo),
		LoadProgressiveHrs:    req.LoadProgressiveHrs,
		HrsMeterReading:       req.HrsMeterReading,

		OilLevelInDieselTank: req.OilLevelInDieselTank,
		LubeOilLevelInEngine: req.LubeOilLevelInEngine,
		OilStockInStore:      req.OilStockInStore,
		LubeOilStockInStore:  req.LubeOilStockInStore,
		OilFilledInLiters:    req.OilFilledInLiters,

		BatteryCondition: optionalText(req.BatteryCondition),
		OilPressure:      req.OilPressure,
		OilTemperature:   req.OilTemperature,

		OnDutyStaff: optionalText(req.OnDutyStaff),
		Remarks:     optionalText(req.Remarks),

		CreatedBy:          actor.ID,
		DutyStaffSignature: actor.Name,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.repo.Create(ctx, op, func(created *model.Operation) *model.Activity {
		return &model.Activity{
			UserID:    actor.ID,
			Action:    model.ActivityCreate,
			Module:    model.ModuleDGOperations,
			Details:   fmt.Sprintf("Created entry #%d (%s)", created.ID, created.Shift),
			CreatedAt: now,
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create operation in repo: %w", err)
	}

	s.publish(ctx, events.QueueOperationCreated, model.CreatedEvent{
		OperationID:   op.ID,
		OperationDate: op.OperationDate,
		Shift:         op.Shift,
		SubmittedBy:   op.DutyStaffSignature,
		EODInShift:    op.EODInShift,
	})
	return op, nil
}

func (s *operationService) GetOperation(ctx context.Context, id int64) (*model.Operation, error) {
	op, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find operation by ID: %w", err)
	}
	if op == nil {
		return nil, ErrOperationNotFound
	}
	return op, nil
}

func (s *operationService) Sign(ctx context.Context, id int64, actor *model.User) (*model.Operation, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !authz.CanSign(actor.Role) {
		return nil, ErrForbidden
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find operation for signing: %w", err)
	}
	if existing == nil {
		return nil, ErrOperationNotFound
	}
	if existing.Signature.Signed() {
		return nil, ErrAlreadySigned
	}

	signedAt := s.now()
	name := actor.Name
	signerID := actor.ID
	audit := &model.Activity{
		UserID:    actor.ID,
		Action:    model.ActivityUpdateSignature,
		Module:    model.ModuleDGOperations,
		Details:   fmt.Sprintf("Signed entry #%d", id),
		CreatedAt: signedAt,
	}

	// The write is conditioned on the row still being unsigned, so a
	// concurrent signer that passed the check above loses here.
	updated, err := s.repo.Sign(ctx, id, model.Signature{SignerName: &name, SignedByUserID: &signerID, SignedAt: &signedAt}, audit)
	if err != nil {
		return nil, fmt.Errorf("failed to sign operation in repo: %w", err)
	}
	if updated == nil {
		return nil, ErrAlreadySigned
	}

	s.publish(ctx, events.QueueOperationSigned, model.SignedEvent{
		OperationID: updated.ID,
		Shift:       updated.Shift,
		SignerID:    signerID,
		SignerName:  name,
		SignedAt:    signedAt,
	})
	return updated, nil
}

// dayRange returns the [start, end) bounds of date's calendar day in s.loc.
func (s *operationService) dayRange(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

func (s *operationService) ListByDate(ctx context.Context, date time.Time) ([]model.Operation, error) {
	from, to := s.dayRange(date)
	ops, err := s.repo.FindAll(ctx, model.OperationFilters{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("failed to list operations by date: %w", err)
	}

	sort.SliceStable(ops, func(i, j int) bool {
		if oi, oj := ops[i].Shift.Order(), ops[j].Shift.Order(); oi != oj {
			return oi < oj
		}
		return ops[i].OperationDate.Before(ops[j].OperationDate)
	})
	return ops, nil
}

func (s *operationService) ListAll(ctx context.Context, filters model.OperationFilters) ([]model.Operation, error) {
	if filters.Date != nil {
		from, to := s.dayRange(*filters.Date)
		filters.From, filters.To = &from, &to
	}
	ops, err := s.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return ops, nil
}

// GroupByDate splits ops by calendar day (newest day first) and, within a
// day, into the three shifts in fixed order. Empty shifts are kept so every
// day renders all three tables. Record order inside a shift follows ops.
func (s *operationService) GroupByDate(ops []model.Operation) []model.DateGroup {
	index := map[string]int{}
	groups := []model.DateGroup{}

	for _, op := range ops {
		day := op.OperationDate.In(s.loc).Format(dateLayout)
		i, ok := index[day]
		if !ok {
			g := model.DateGroup{Date: day, Shifts: make([]model.ShiftGroup, len(model.Shifts))}
			for k, sh := range model.Shifts {
				g.Shifts[k] = model.ShiftGroup{Shift: sh, Records: []model.Operation{}}
			}
			groups = append(groups, g)
			i = len(groups) - 1
			index[day] = i
		}

		slot := op.Shift.Order()
		if slot >= len(model.Shifts) {
			log.Printf("Skipping operation %d with unknown shift %q while grouping", op.ID, op.Shift)
			continue
		}
		groups[i].Shifts[slot].Records = append(groups[i].Shifts[slot].Records, op)
		groups[i].Count++
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Date > groups[j].Date })
	return groups
}

// DayGroup buckets one day's records into the three shifts, keeping ops'
// order within each shift. Days without records still get three empty shifts.
func (s *operationService) DayGroup(date time.Time, ops []model.Operation) model.DateGroup {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc).Format(dateLayout)
	for _, g := range s.GroupByDate(ops) {
		if g.Date == day {
			return g
		}
	}
	g := model.DateGroup{Date: day, Shifts: make([]model.ShiftGroup, len(model.Shifts))}
	for k, sh := range model.Shifts {
		g.Shifts[k] = model.ShiftGroup{Shift: sh, Records: []model.Operation{}}
	}
	return g
}

func (s *operationService) publish(ctx context.Context, queue string, payload any) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, queue, payload); err != nil {
		log.Printf("Error publishing %s event: %v", queue, err)
	}
}
