package attendance

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/audit"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/merchpulse/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// memPunchRepository is an in-memory attendance.PunchRepository.
// Set failCreate or failUpdate to inject store failures.
type memPunchRepository struct {
	mu         sync.Mutex
	punches    map[uuid.UUID]*attendance.TimePunch
	failCreate error
	failUpdate error
}

func newMemPunchRepository() *memPunchRepository {
	return &memPunchRepository{punches: make(map[uuid.UUID]*attendance.TimePunch)}
}

func (r *memPunchRepository) all() []*attendance.TimePunch {
	out := make([]*attendance.TimePunch, 0, len(r.punches))
	for _, p := range r.punches {
		out = append(out, p.Clone())
	}
	return attendance.SortPunches(out)
}

func (r *memPunchRepository) FindLast(_ context.Context, employeeID uuid.UUID) (*attendance.TimePunch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *attendance.TimePunch
	for _, p := range r.all() {
		if p.EmployeeID == employeeID {
			last = p
		}
	}
	return last, nil
}

func (r *memPunchRepository) FindByID(_ context.Context, id uuid.UUID) (*attendance.TimePunch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.punches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *memPunchRepository) FindByEmployee(_ context.Context, employeeID uuid.UUID, from, to time.Time) ([]*attendance.TimePunch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*attendance.TimePunch
	for _, p := range r.all() {
		if p.EmployeeID == employeeID && !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPunchRepository) FindAll(_ context.Context, from, to time.Time) ([]*attendance.TimePunch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*attendance.TimePunch
	for _, p := range r.all() {
		if !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPunchRepository) Create(_ context.Context, punch *attendance.TimePunch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.punches[punch.ID] = punch.Clone()
	return nil
}

func (r *memPunchRepository) Update(_ context.Context, punch *attendance.TimePunch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if _, ok := r.punches[punch.ID]; !ok {
		return shared.ErrNotFound
	}
	r.punches[punch.ID] = punch.Clone()
	return nil
}

func (r *memPunchRepository) CountInRange(ctx context.Context, from, to time.Time) (int64, error) {
	all, _ := r.FindAll(ctx, from, to)
	return int64(len(all)), nil
}

func (r *memPunchRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.punches)
}

// memEmployeeRepository is an in-memory identity.EmployeeRepository
type memEmployeeRepository struct {
	employees []*identity.Employee
}

func (r *memEmployeeRepository) FindByID(_ context.Context, id uuid.UUID) (*identity.Employee, error) {
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memEmployeeRepository) FindByUsername(_ context.Context, username string) (*identity.Employee, error) {
	for _, e := range r.employees {
		if e.Username == username {
			return e, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memEmployeeRepository) FindAll(context.Context) ([]*identity.Employee, error) {
	out := slices.Clone(r.employees)
	slices.SortFunc(out, func(a, b *identity.Employee) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *memEmployeeRepository) Save(_ context.Context, e *identity.Employee) error {
	r.employees = append(r.employees, e)
	return nil
}

// MockAuditSink is a mock implementation of the audit sink
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) LogAction(ctx context.Context, action audit.Action, entityType audit.EntityType, entityID string, previous, next any, note string) (*audit.LogEntry, error) {
	args := m.Called(ctx, action, entityType, entityID, previous, next, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.LogEntry), args.Error(1)
}

// MockScreenEngine is a mock implementation of ScreenEngine
type MockScreenEngine struct {
	mock.Mock
}

func (m *MockScreenEngine) LoadStatus(ctx context.Context) (*PunchState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PunchState), args.Error(1)
}

func (m *MockScreenEngine) RecordPunch(ctx context.Context, input RecordPunchInput) (*PunchState, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PunchState), args.Error(1)
}

func (m *MockScreenEngine) CorrectPunch(ctx context.Context, input CorrectPunchInput) (*CorrectionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CorrectionResult), args.Error(1)
}

func (m *MockScreenEngine) LoadForDate(ctx context.Context, date string) (*TeamDay, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TeamDay), args.Error(1)
}

func (m *MockScreenEngine) Derive(employee *identity.Employee, punches []*attendance.TimePunch, now time.Time) PunchState {
	args := m.Called(employee, punches, now)
	return args.Get(0).(PunchState)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}
