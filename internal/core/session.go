package core

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sellervault-backend-go/internal/models"
)

const (
	// DefaultSessionTTL is how long an idle session keeps its drafts.
	DefaultSessionTTL = 15 * time.Minute
	// DefaultSweepSpec is the cron schedule of the expiry sweep.
	DefaultSweepSpec = "@every 1m"
)

// Session is the state of one member's intake interaction. It replaces the
// page-global state of a browser controller.
type Session struct {
	Member         *models.Member
	Record         *models.SellerRecord
	Staging        *CredentialStaging
	RedirectTarget string

	// work serializes actions so the record is never mutated concurrently.
	// Record and Staging are only touched while it is held.
	work sync.Mutex

	mu          sync.Mutex
	inFlight    map[string]bool
	lastTouched time.Time
	state       SellerState
}

func newSession(member *models.Member, redirectTarget string, now time.Time) *Session {
	m := *member
	return &Session{
		Member:         &m,
		Record:         &models.SellerRecord{ID: member.ID},
		Staging:        NewCredentialStaging(),
		RedirectTarget: redirectTarget,
		inFlight:       make(map[string]bool),
		lastTouched:    now,
		state:          StateUnverified,
	}
}

// State returns the seller state as of the last finished action. It does not
// wait for a running action.
func (s *Session) State() SellerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// publishState snapshots the record state. The caller must hold work.
func (s *Session) publishState() {
	state := StateOf(s.Record)
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// begin marks action as running. It returns false when the same action is already in flight.
func (s *Session) begin(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[action] {
		return false
	}
	s.inFlight[action] = true
	return true
}

func (s *Session) end(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, action)
}

// InFlight reports whether action is currently running.
func (s *Session) InFlight(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[action]
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastTouched = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}

func (s *Session) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight) > 0
}

// SessionRegistry keeps one session per member and expires idle ones.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewSessionRegistry creates a registry. A non-positive ttl selects DefaultSessionTTL.
func NewSessionRegistry(ttl time.Duration, logger *zap.Logger) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Open starts a fresh session for member, discarding any previous one and its drafts.
func (r *SessionRegistry) Open(member *models.Member, redirectTarget string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.sessions[member.ID]; ok {
		prev.Staging.ClearAll()
	}
	s := newSession(member, redirectTarget, r.now())
	r.sessions[member.ID] = s
	return s
}

// Get returns the live session of memberID and refreshes its idle timer.
func (r *SessionRegistry) Get(memberID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[memberID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := r.now()
	if now.Sub(s.idleSince()) > r.ttl && !s.busy() {
		s.Staging.ClearAll()
		delete(r.sessions, memberID)
		return nil, ErrSessionNotFound
	}
	s.touch(now)
	return s, nil
}

// Close drops the session of memberID and releases its drafts.
func (r *SessionRegistry) Close(memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[memberID]; ok {
		s.Staging.ClearAll()
		delete(r.sessions, memberID)
	}
}

// Sweep expires idle sessions and returns how many were removed. Sessions with
// an action in flight are kept.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) <= r.ttl || s.busy() {
			continue
		}
		s.Staging.ClearAll()
		delete(r.sessions, id)
		removed++
	}
	if removed > 0 {
		r.logger.Info("Expired idle intake sessions", zap.Int("removed", removed), zap.Int("remaining", len(r.sessions)))
	}
	return removed
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartSweeper schedules Sweep with a cron spec such as "@every 1m".
func (r *SessionRegistry) StartSweeper(spec string) error {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	cronLogger := cron.PrintfLogger(zap.NewStdLog(r.logger))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))
	if _, err := c.AddFunc(spec, func() { r.Sweep() }); err != nil {
		return err
	}
	r.cron = c
	c.Start()
	r.logger.Info("Session sweeper scheduled", zap.String("schedule", spec), zap.Duration("ttl", r.ttl))
	return nil
}

// StopSweeper stops the cron scheduler; the returned context is done once a running sweep finishes.
func (r *SessionRegistry) StopSweeper() context.Context {
	if r.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return r.cron.Stop()
}
