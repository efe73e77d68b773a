package assessment

import (
	"context"
	"sort"
	"sync"
	"time"

	domainassessment "github.com/turtacn/recidivism-forecast/internal/domain/assessment"
	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/database/redis"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// -----------------------------------------------------------------------
// Mock: Repository
// -----------------------------------------------------------------------

type mockRepo struct {
	mu      sync.Mutex
	items   []*domainassessment.Assessment
	saveErr error
}

func (m *mockRepo) Save(ctx context.Context, a *domainassessment.Assessment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, a)
	return nil
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*domainassessment.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.New(errors.ErrCodeAssessmentNotFound, "assessment not found")
}

func (m *mockRepo) FindByPerson(ctx context.Context, personID string, opts ...domainassessment.QueryOption) ([]*domainassessment.Assessment, error) {
	o := domainassessment.ApplyOptions(opts...)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domainassessment.Assessment
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].PersonID == personID {
			out = append(out, m.items[i])
		}
	}
	if o.Offset >= len(out) {
		return nil, nil
	}
	out = out[o.Offset:]
	if len(out) > o.Limit {
		out = out[:o.Limit]
	}
	return out, nil
}

func (m *mockRepo) CountByLevel(ctx context.Context) (map[risk.Level]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[risk.Level]int64)
	for _, a := range m.items {
		counts[a.Level()]++
	}
	return counts, nil
}

func (m *mockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// -----------------------------------------------------------------------
// Mock: PersonRepository
// -----------------------------------------------------------------------

type mockPersons struct {
	persons    map[string]*domainassessment.Person
	violations map[string][]risk.Violation
}

func newMockPersons() *mockPersons {
	return &mockPersons{
		persons:    make(map[string]*domainassessment.Person),
		violations: make(map[string][]risk.Violation),
	}
}

func (m *mockPersons) SavePerson(ctx context.Context, p *domainassessment.Person) error {
	m.persons[p.ID] = p
	return nil
}

func (m *mockPersons) FindPerson(ctx context.Context, id string) (*domainassessment.Person, error) {
	p, ok := m.persons[id]
	if !ok {
		return nil, errors.New(errors.ErrCodePersonNotFound, "person not found").WithDetail(id)
	}
	return p, nil
}

func (m *mockPersons) AddViolation(ctx context.Context, v *risk.Violation) error {
	if _, ok := m.persons[v.PersonID]; !ok {
		return errors.New(errors.ErrCodePersonNotFound, "person not found")
	}
	m.violations[v.PersonID] = append(m.violations[v.PersonID], *v)
	return nil
}

func (m *mockPersons) ListViolations(ctx context.Context, personID string) ([]risk.Violation, error) {
	out := append([]risk.Violation(nil), m.violations[personID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// -----------------------------------------------------------------------
// Mock: ReportCache
// -----------------------------------------------------------------------

type mockCache struct {
	mu       sync.Mutex
	store    map[string]risk.Report
	computes int
	purged   bool
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string]risk.Report)}
}

func (m *mockCache) Fetch(ctx context.Context, hash string, compute func(ctx context.Context) (*risk.Report, error)) (*risk.Report, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.store[hash]; ok {
		return &r, true, nil
	}
	m.computes++
	r, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}
	m.store[hash] = *r
	return r, false, nil
}

func (m *mockCache) Purge(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.store))
	m.store = make(map[string]risk.Report)
	m.purged = true
	return n, nil
}

// -----------------------------------------------------------------------
// Mock: EventPublisher
// -----------------------------------------------------------------------

type mockPublisher struct {
	mu        sync.Mutex
	completed []*domainassessment.CompletedEvent
	requests  []domainassessment.ReassessRequest
	err       error
}

func (m *mockPublisher) PublishCompleted(ctx context.Context, ev *domainassessment.CompletedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, ev)
	return nil
}

func (m *mockPublisher) RequestReassessment(ctx context.Context, req domainassessment.ReassessRequest) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return nil
}

// -----------------------------------------------------------------------
// Mock: PersonLocker
// -----------------------------------------------------------------------

type mockLocker struct {
	lockErr error
	names   []string
	lock    *mockLock
}

func (m *mockLocker) PersonLock(personID string, ttl time.Duration) redis.DistributedLock {
	m.names = append(m.names, personID)
	m.lock = &mockLock{err: m.lockErr}
	return m.lock
}

type mockLock struct {
	err      error
	locked   bool
	unlocked bool
}

func (l *mockLock) Lock(ctx context.Context) error {
	if l.err != nil {
		return l.err
	}
	l.locked = true
	return nil
}

func (l *mockLock) TryLock(ctx context.Context) (bool, error) { return l.err == nil, l.err }

func (l *mockLock) Unlock(ctx context.Context) error {
	l.unlocked = true
	return nil
}

func (l *mockLock) Extend(ctx context.Context, ttl time.Duration) (bool, error) { return true, nil }

func (l *mockLock) TTL(ctx context.Context) (time.Duration, error) { return time.Minute, nil }

//Personal.AI order the ending
