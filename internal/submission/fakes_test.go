package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ikkim/dishshot-intake/internal/app/model"
	"github.com/ikkim/dishshot-intake/internal/app/repository"
	"github.com/ikkim/dishshot-intake/internal/form"
	"gorm.io/gorm"
)

type fakeStorage struct {
	mu       sync.Mutex
	keys     []string
	failOn   int // 1-based upload number that fails, 0 for never
	attempts int
}

func (s *fakeStorage) Upload(_ context.Context, key string, _ form.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failOn != 0 && s.attempts == s.failOn {
		return errors.New("storage unavailable")
	}
	s.keys = append(s.keys, key)
	return nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeClients struct {
	byName  map[string]*model.Client
	byAuth  map[string]*model.Client
	created []*model.Client
	findErr error
}

func newFakeClients() *fakeClients {
	return &fakeClients{byName: map[string]*model.Client{}, byAuth: map[string]*model.Client{}}
}

func (c *fakeClients) Create(_ context.Context, client *model.Client) error {
	c.created = append(c.created, client)
	c.byName[client.RestaurantName] = client
	if client.AuthUserID != nil {
		c.byAuth[*client.AuthUserID] = client
	}
	return nil
}

func (c *fakeClients) FindByRestaurantName(_ context.Context, name string) (*model.Client, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	if cl, ok := c.byName[name]; ok {
		return cl, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (c *fakeClients) FindByAuthUserID(_ context.Context, id string) (*model.Client, error) {
	if c.findErr != nil {
		return nil, c.findErr
	}
	if cl, ok := c.byAuth[id]; ok {
		return cl, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSubmissions struct {
	batches   [][]model.Submission
	public    []repository.PublicItem
	insertErr error
}

func (s *fakeSubmissions) CreateBatch(_ context.Context, rows []model.Submission) error {
	s.batches = append(s.batches, rows)
	return s.insertErr
}

func (s *fakeSubmissions) PublicSubmitItemByRestaurantName(_ context.Context, item repository.PublicItem) (*model.Submission, error) {
	s.public = append(s.public, item)
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	return &model.Submission{ID: 1, ClientID: "lead-1", ItemName: item.ItemName, OriginalImageURLs: item.ImageURLs, Status: model.SubmissionStatusPending}, nil
}

type fakeNotifier struct {
	payloads []interface{}
}

func (n *fakeNotifier) Notify(_ context.Context, payload interface{}) {
	n.payloads = append(n.payloads, payload)
}

type fixture struct {
	storage     *fakeStorage
	clients     *fakeClients
	submissions *fakeSubmissions
	notifier    *fakeNotifier
	guard       *LocalGuard
	o           *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		storage:     &fakeStorage{},
		clients:     newFakeClients(),
		submissions: &fakeSubmissions{},
		notifier:    &fakeNotifier{},
		guard:       NewLocalGuard(),
	}
	f.o = NewOrchestrator(f.storage, f.clients, f.submissions, f.notifier, f.guard)
	n := 0
	f.o.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return f
}
