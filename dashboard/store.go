// Package dashboard holds per-session dashboard state: the generated
// dataset, the chat panel and the sidebar, plus the chart, table and
// statistics views read by the presentation layer.
package dashboard

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spektr-org/spendshark/assistant"
	"github.com/spektr-org/spendshark/config"
	"github.com/spektr-org/spendshark/mockdata"
	"github.com/spektr-org/spendshark/stats"
	"github.com/spektr-org/spendshark/widget"
)

// ErrSessionNotFound is returned for unknown or deleted session ids.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps sessions in memory. Each session owns a freshly generated
// dataset that is discarded with it.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	seed         uint64
	invoiceCount int
	now          func() time.Time
	panelOpts    []widget.PanelOption
	logger       *logrus.Entry
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSeed makes every session generate the same dataset. 0 keeps random seeding.
func WithSeed(seed uint64) StoreOption {
	return func(s *Store) { s.seed = seed }
}

// WithInvoiceCount sets the number of invoices generated per session.
func WithInvoiceCount(n int) StoreOption {
	return func(s *Store) { s.invoiceCount = n }
}

// WithClock replaces the wall clock used for generation and session stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPanelOptions passes options to every session's chat panel.
func WithPanelOptions(opts ...widget.PanelOption) StoreOption {
	return func(s *Store) { s.panelOpts = append(s.panelOpts, opts...) }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions:     make(map[string]*Session),
		invoiceCount: mockdata.DefaultInvoiceCount,
		now:          time.Now,
		logger:       config.GetLogger().WithField("module", "dashboard"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStoreFromConfig maps application configuration onto store options.
func NewStoreFromConfig(cfg config.Config, opts ...StoreOption) *Store {
	base := []StoreOption{
		WithSeed(cfg.Seed),
		WithInvoiceCount(cfg.InvoiceCount),
		WithPanelOptions(widget.WithTypingDelay(cfg.TypingDelayMin(), cfg.TypingDelayMax())),
	}
	return NewStore(append(base, opts...)...)
}

// Create generates a dataset and opens a session around it.
func (s *Store) Create() *Session {
	rng := s.newRand()
	data := mockdata.Generate(
		mockdata.WithRand(rng),
		mockdata.WithClock(s.now),
		mockdata.WithInvoiceCount(s.invoiceCount),
	)

	ctx, cancel := context.WithCancel(context.Background())
	sess := &Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Data:      data,
		Panel:     widget.NewChatPanel(assistant.New(data), append([]widget.PanelOption{widget.WithRand(rng)}, s.panelOpts...)...),
		Sidebar:   &widget.Sidebar{},
		CreatedAt: s.now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	// drawn once so the disconnected "New" bucket is stable for the session
	sess.vendorSummary = stats.Vendors(data.Vendors, rng)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session":  sess.ID,
		"vendors":  len(data.Vendors),
		"invoices": len(data.Invoices),
	}).Info("📊 session created")
	return sess
}

func (s *Store) newRand() *rand.Rand {
	if s.seed != 0 {
		return rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Get returns the session with id.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session and drops its pending chat replies.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.cancel()
	s.logger.WithField("session", id).Info("📊 session deleted")
	return nil
}

// Len is the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close drops every session.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.cancel()
	}
}
