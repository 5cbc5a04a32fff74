package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/abelbrown/skydeck/internal/logging"
	"github.com/abelbrown/skydeck/internal/model"
	"github.com/abelbrown/skydeck/internal/otel"
	"github.com/abelbrown/skydeck/internal/store"
)

// ErrEmptyMessage is returned by Send for blank input.
var ErrEmptyMessage = errors.New("message is empty")

// active is the cached session for one owner.
type active struct {
	session model.ChatSession
	stored  bool
}

// Service keeps one active session per owner and persists sessions of
// named owners. The empty owner is anonymous and lives in memory only.
type Service struct {
	tutor  *Tutor
	store  store.Store
	events *otel.Logger
	ids    *snowflake.Node
	now    func() time.Time

	mu     sync.Mutex
	active map[string]*active
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Store  store.Store // nil keeps every session in memory
	Events *otel.Logger
	NodeID int64
	Now    func() time.Time
}

// NewService creates a Service around t.
func NewService(t *Tutor, opts ServiceOptions) (*Service, error) {
	node, err := snowflake.NewNode(opts.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		tutor:  t,
		store:  opts.Store,
		events: opts.Events,
		ids:    node,
		now:    opts.Now,
		active: make(map[string]*active),
	}, nil
}

func (s *Service) persistent(owner string) bool {
	return owner != "" && s.store != nil
}

func (s *Service) message(role model.Role, text string) model.ChatMessage {
	return model.ChatMessage{
		Meta: model.Meta{ID: s.ids.Generate().String(), Time: s.now().UTC()},
		Role: role,
		Text: text,
	}
}

func (s *Service) newSession(owner string) model.ChatSession {
	now := s.now().UTC()
	return model.ChatSession{
		ID:        uuid.NewString(),
		Owner:     owner,
		Title:     DefaultTitle,
		Messages:  []model.ChatMessage{s.message(model.RoleAssistant, Greeting)},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// current returns the owner's cached session, resuming the most recent
// stored one on first use. Caller must hold s.mu.
func (s *Service) current(ctx context.Context, owner string) *active {
	if a, ok := s.active[owner]; ok {
		return a
	}
	a := &active{session: s.newSession(owner)}
	if s.persistent(owner) {
		sessions, err := s.store.ListSessions(ctx, owner)
		if err != nil {
			s.storeError("list sessions", err)
		} else if len(sessions) > 0 {
			a = &active{session: sessions[0], stored: true}
		}
	}
	s.active[owner] = a
	return a
}

// Active returns a copy of the owner's current session.
func (s *Service) Active(ctx context.Context, owner string) model.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current(ctx, owner).session.Clone()
}

// Send appends the user's message and the tutor's reply to the active
// session and persists it. Store failures are logged and do not fail the
// send; the transcript stays in memory.
func (s *Service) Send(ctx context.Context, owner, text string, mode Mode) (model.ChatSession, Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ChatSession{}, Reply{}, ErrEmptyMessage
	}

	s.mu.Lock()
	a := s.current(ctx, owner)
	a.session.Append(s.now().UTC(), s.message(model.RoleUser, text))
	s.mu.Unlock()

	reply := s.tutor.Answer(ctx, text, mode)

	s.mu.Lock()
	a.session.Append(s.now().UTC(), s.message(model.RoleAssistant, reply.Text))
	a.session.Title = Title(a.session.Messages)
	snapshot := a.session.Clone()
	wasStored := a.stored
	if s.persistent(owner) {
		a.stored = true
	}
	s.mu.Unlock()

	if s.persistent(owner) {
		s.save(ctx, snapshot, wasStored)
	}
	return snapshot, reply, nil
}

func (s *Service) save(ctx context.Context, cs model.ChatSession, exists bool) {
	var err error
	if exists {
		err = s.store.UpdateSession(ctx, cs)
		if errors.Is(err, store.ErrNotFound) {
			err = s.store.CreateSession(ctx, cs)
		}
	} else {
		err = s.store.CreateSession(ctx, cs)
	}
	if err != nil {
		s.storeError("save session", err)
	}
}

// Clear starts a new session for owner. For named owners the new session
// is stored immediately.
func (s *Service) Clear(ctx context.Context, owner string) (model.ChatSession, error) {
	cs := s.newSession(owner)
	if s.persistent(owner) {
		if err := s.store.CreateSession(ctx, cs); err != nil {
			s.storeError("create session", err)
			return model.ChatSession{}, fmt.Errorf("create session: %w", err)
		}
	}

	s.mu.Lock()
	s.active[owner] = &active{session: cs, stored: s.persistent(owner)}
	s.mu.Unlock()
	return cs.Clone(), nil
}

// History lists the owner's stored sessions, newest first. Anonymous
// owners only have their active session.
func (s *Service) History(ctx context.Context, owner string) ([]model.ChatSession, error) {
	if !s.persistent(owner) {
		return []model.ChatSession{s.Active(ctx, owner)}, nil
	}
	sessions, err := s.store.ListSessions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Open makes a stored session the owner's active one.
func (s *Service) Open(ctx context.Context, owner, id string) (model.ChatSession, error) {
	if !s.persistent(owner) {
		return model.ChatSession{}, store.ErrNotFound
	}
	cs, err := s.store.GetSession(ctx, id)
	if err != nil {
		return model.ChatSession{}, err
	}
	if cs.Owner != owner {
		return model.ChatSession{}, store.ErrNotFound
	}

	s.mu.Lock()
	s.active[owner] = &active{session: cs, stored: true}
	s.mu.Unlock()
	return cs.Clone(), nil
}

func (s *Service) storeError(op string, err error) {
	logging.Error("tutor store error", "op", op, "error", err)
	s.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindStoreError, Comp: "tutor", Msg: op, Err: err.Error()})
}
