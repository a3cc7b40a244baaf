package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaminalder/gomoku/internal/domain"
)

// Errors exposed by the service layer.
var (
	ErrNotFound       = errors.New("game not found")
	ErrUnknownCommand = errors.New("unknown command")
)

// GameState is a copy of a session handed to callers.
type GameState struct {
	ID      string          `json:"id"`
	Game    domain.Snapshot `json:"game"`
	Created time.Time       `json:"created"`
	Updated time.Time       `json:"updated"`
}

type session struct {
	id      string
	game    *domain.Game
	created time.Time
	updated time.Time
}

func (s *session) state() GameState {
	return GameState{ID: s.id, Game: s.game.Snapshot(), Created: s.created, Updated: s.updated}
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service owns one engine per session and serialises every call into it.
type Service struct {
	mu          sync.Mutex
	defaultSize int
	games       map[string]*session
	subs        map[string]map[*subscriber]struct{}
	encode      func(GameState) []byte
}

// Option configures a Service.
type Option func(*Service)

// WithEncoder sets the function that turns a state into a broadcast payload.
func WithEncoder(enc func(GameState) []byte) Option {
	return func(s *Service) {
		if enc != nil {
			s.encode = enc
		}
	}
}

// WithDefaultSize sets the board size used when CreateGame gets 0.
func WithDefaultSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultSize = n
		}
	}
}

// NewService creates a service that broadcasts states as JSON.
func NewService(opts ...Option) *Service {
	s := &Service{
		defaultSize: domain.DefaultSize,
		games:       make(map[string]*session),
		subs:        make(map[string]map[*subscriber]struct{}),
		encode:      encodeJSON,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func encodeJSON(gs GameState) []byte {
	b, err := json.Marshal(gs)
	if err != nil {
		log.Printf("encode game %s: %v", gs.ID, err)
		return nil
	}
	return b
}

// CreateGame creates and registers a new game. A size of 0 uses the default.
func (s *Service) CreateGame(size int) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if size == 0 {
		size = s.defaultSize
	}
	g, err := domain.New(size)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sess := &session{id: uuid.NewString(), game: g, created: now, updated: now}
	s.games[sess.id] = sess
	log.Printf("game %s created (%dx%d)", sess.id, size, size)
	st := sess.state()
	return &st, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, false
	}
	st := sess.state()
	return &st, true
}

// Dispatch applies cmd to the game, stamps it and broadcasts the result. On a
// rejected command the unchanged state is returned with the error.
func (s *Service) Dispatch(id string, cmd Command) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	before := sess.game.Status()
	if err := cmd.apply(sess.game); err != nil {
		st := sess.state()
		return &st, err
	}
	sess.updated = time.Now()
	if after := sess.game.Status(); after != before && after != domain.InProgress {
		w, _ := sess.game.Winner()
		log.Printf("game %s: %s (winner %s)", id, after, w)
	}

	st := sess.state()
	s.broadcastLocked(id, s.encode(st))
	return &st, nil
}

// broadcastLocked fans payload out to the game's subscribers. Sends never
// block: a subscriber with a full buffer is removed and closed. Channels are
// only sent on and closed while s.mu is held.
func (s *Service) broadcastLocked(id string, payload []byte) {
	set := s.subs[id]
	for sub := range set {
		select {
		case sub.ch <- payload:
		default:
			delete(set, sub)
			sub.close()
		}
	}
}

// Place puts the current player's stone at (r, c).
func (s *Service) Place(id string, r, c int) (*GameState, error) {
	return s.Dispatch(id, Command{Kind: CmdPlace, Row: r, Col: c})
}

func (s *Service) Undo(id string) (*GameState, error) {
	return s.Dispatch(id, Command{Kind: CmdUndo})
}

func (s *Service) Pass(id string) (*GameState, error) {
	return s.Dispatch(id, Command{Kind: CmdPass})
}

func (s *Service) Resign(id string) (*GameState, error) {
	return s.Dispatch(id, Command{Kind: CmdResign})
}

// Reset starts a new game in the session; scores carry over.
func (s *Service) Reset(id string) (*GameState, error) {
	return s.Dispatch(id, Command{Kind: CmdReset})
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func; the channel is closed when ctx ends or the subscriber
// falls behind.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, nil, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}
