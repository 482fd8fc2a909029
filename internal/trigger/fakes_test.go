package trigger

import (
	"context"
	"errors"
	"spidertrigger/internal/apperrors"
	"spidertrigger/internal/spider"
	"strconv"
	"sync"
)

type statusUpdate struct {
	ID     spider.RecordID
	Status spider.Status
	CtxErr error
}

// fakeRepo is an in-memory RepositoryOpener that records every call.
type fakeRepo struct {
	mu sync.Mutex

	spiders   map[int64]spider.Spider
	openErr   error
	findErr   error
	appendErr error
	updateErr error

	nextID   spider.RecordID
	finds    int
	appended []spider.ContainerRecord
	updates  []statusUpdate
	opened   int
	closed   int
}

func newFakeRepo(spiders ...spider.Spider) *fakeRepo {
	r := &fakeRepo{spiders: make(map[int64]spider.Spider)}
	for _, sp := range spiders {
		r.spiders[sp.ID] = sp
	}
	return r
}

func (r *fakeRepo) OpenSession(ctx context.Context) (spider.RepositorySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return nil, r.openErr
	}
	r.opened++
	return &fakeRepoSession{repo: r}, nil
}

func (r *fakeRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appended) + len(r.updates)
}

func (r *fakeRepo) sessions() (opened, closed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened, r.closed
}

type fakeRepoSession struct {
	repo   *fakeRepo
	closed bool
}

func (s *fakeRepoSession) FindSpider(ctx context.Context, id int64) (*spider.Spider, error) {
	r := s.repo
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if r.findErr != nil {
		return nil, r.findErr
	}
	sp, ok := r.spiders[id]
	if !ok {
		return nil, apperrors.NotFound("spider", strconv.FormatInt(id, 10))
	}
	return &sp, nil
}

func (s *fakeRepoSession) AppendContainer(ctx context.Context, rec *spider.ContainerRecord) (spider.RecordID, error) {
	r := s.repo
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return 0, r.appendErr
	}
	r.nextID++
	stored := *rec
	stored.ID = r.nextID
	r.appended = append(r.appended, stored)
	return stored.ID, nil
}

func (s *fakeRepoSession) UpdateContainerStatus(ctx context.Context, id spider.RecordID, status spider.Status) error {
	r := s.repo
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, statusUpdate{ID: id, Status: status, CtxErr: ctx.Err()})
	return r.updateErr
}

func (s *fakeRepoSession) Close() error {
	s.repo.mu.Lock()
	defer s.repo.mu.Unlock()
	if s.closed {
		return errors.New("session closed twice")
	}
	s.closed = true
	s.repo.closed++
	return nil
}

// fakeRuntime is an in-memory RuntimeDialer that records every call.
type fakeRuntime struct {
	mu sync.Mutex

	dialErr error

	// create returns the result for a spec; nil means a fresh id per call.
	create   func(ctx context.Context, spec *spider.LaunchSpec) (spider.CreateResult, error)
	started  bool
	startErr error
	onStart  func(ctx context.Context)

	specs     []*spider.LaunchSpec
	starts    []string
	startCtxs []error
	dialed    int
	closed    int
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{started: true}
}

func (f *fakeRuntime) DialRuntime(ctx context.Context) (spider.RuntimeSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.dialed++
	return &fakeRuntimeSession{rt: f}, nil
}

func (f *fakeRuntime) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.specs) + len(f.starts)
}

func (f *fakeRuntime) sessions() (dialed, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialed, f.closed
}

type fakeRuntimeSession struct {
	rt *fakeRuntime
}

func (s *fakeRuntimeSession) CreateContainer(ctx context.Context, spec *spider.LaunchSpec) (spider.CreateResult, error) {
	f := s.rt
	f.mu.Lock()
	f.specs = append(f.specs, spec)
	n := len(f.specs)
	create := f.create
	f.mu.Unlock()

	if create != nil {
		return create(ctx, spec)
	}
	return spider.CreateResult{ID: "container-" + strconv.Itoa(n)}, nil
}

func (s *fakeRuntimeSession) StartContainer(ctx context.Context, containerID string) (bool, error) {
	f := s.rt
	if f.onStart != nil {
		f.onStart(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, containerID)
	f.startCtxs = append(f.startCtxs, ctx.Err())
	return f.started, f.startErr
}

func (s *fakeRuntimeSession) Close() error {
	s.rt.mu.Lock()
	defer s.rt.mu.Unlock()
	s.rt.closed++
	return nil
}

// captureReporter collects published reports.
type captureReporter struct {
	mu      sync.Mutex
	reports []*Report
}

func (c *captureReporter) Publish(r *Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
}
