package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jaminalder/gomoku/internal/domain"
)

// minimal encoder for tests: encode moves count as bytes
func testEncoder(gs GameState) []byte { return []byte(fmt.Sprintf("moves=%d", len(gs.Game.Moves))) }

func TestCreateAndGet(t *testing.T) {
	s := NewService(WithEncoder(testEncoder))
	gs, err := s.CreateGame(0)
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty game ID")
	}
	if gs.Game.Turn != domain.Black {
		t.Fatalf("expected initial turn black")
	}
	if gs.Game.Size != domain.DefaultSize {
		t.Fatalf("expected default size, got %d", gs.Game.Size)
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Get should not find unknown game")
	}
}

func TestCreateGameSizes(t *testing.T) {
	s := NewService(WithDefaultSize(9))
	gs, err := s.CreateGame(0)
	if err != nil || gs.Game.Size != 9 {
		t.Fatalf("expected default size 9, got %+v err=%v", gs, err)
	}
	gs, err = s.CreateGame(19)
	if err != nil || gs.Game.Size != 19 {
		t.Fatalf("expected size 19, got %+v err=%v", gs, err)
	}
	if _, err := s.CreateGame(3); !errors.Is(err, domain.ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestDispatchCommands(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame(15)

	st, err := s.Place(gs.ID, 7, 7)
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if st.Game.Board[7][7] != domain.Black || st.Game.Turn != domain.White {
		t.Fatalf("unexpected state after place: %+v", st.Game)
	}
	if !st.Updated.After(gs.Updated) && !st.Updated.Equal(gs.Updated) {
		t.Fatalf("expected updated timestamp to move forward")
	}

	if st, err = s.Pass(gs.ID); err != nil || st.Game.Turn != domain.Black {
		t.Fatalf("pass: turn=%v err=%v", st.Game.Turn, err)
	}
	if st, err = s.Undo(gs.ID); err != nil || st.Game.Board[7][7] != domain.Empty {
		t.Fatalf("undo: err=%v", err)
	}
	if st, err = s.Resign(gs.ID); err != nil || st.Game.Status != "won" || st.Game.Winner != domain.White {
		t.Fatalf("resign: status=%s winner=%v err=%v", st.Game.Status, st.Game.Winner, err)
	}
	if st, err = s.Reset(gs.ID); err != nil || st.Game.Status != "in_progress" || st.Game.Scores.White != 1 {
		t.Fatalf("reset: %+v err=%v", st.Game, err)
	}
}

func TestDispatchRejections(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame(15)
	s.Place(gs.ID, 0, 0)

	st, err := s.Place(gs.ID, 0, 0)
	if !errors.Is(err, domain.ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
	if st == nil || len(st.Game.Moves) != 1 {
		t.Fatalf("expected unchanged state with rejection, got %+v", st)
	}
	if _, err := s.Place(gs.ID, 15, 0); !errors.Is(err, domain.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := s.Dispatch(gs.ID, Command{Kind: "castle"}); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if _, err := s.Undo("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentPlacesAreSerialised(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame(19)

	var wg sync.WaitGroup
	for r := 0; r < 19; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			for c := 0; c < 19; c += 4 {
				s.Place(gs.ID, r, c)
			}
		}(r)
	}
	wg.Wait()

	st, _ := s.Get(gs.ID)
	stones := st.Game.Stones.Black + st.Game.Stones.White
	if stones != len(st.Game.Moves) {
		t.Fatalf("board and history disagree: stones=%d moves=%d", stones, len(st.Game.Moves))
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := NewService(WithEncoder(testEncoder))
	gs, _ := s.CreateGame(0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	if _, err := s.Place(gs.ID, 0, 0); err != nil {
		t.Fatalf("place failed: %v", err)
	}

	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if string(b) != "moves=1" {
			t.Fatalf("unexpected broadcast payload: %q", string(b))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestDefaultEncoderIsJSON(t *testing.T) {
	s := NewService()
	gs, _ := s.CreateGame(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _, _ := s.Subscribe(ctx, gs.ID)

	s.Place(gs.ID, 3, 4)
	var got GameState
	if err := json.Unmarshal(<-ch, &got); err != nil {
		t.Fatalf("decode broadcast: %v", err)
	}
	if got.ID != gs.ID || got.Game.Board[3][4] != domain.Black {
		t.Fatalf("unexpected broadcast: %+v", got)
	}
}

func TestSubscribeUnknownGame(t *testing.T) {
	s := NewService()
	if _, _, err := s.Subscribe(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectedCommandDoesNotBroadcast(t *testing.T) {
	s := NewService(WithEncoder(testEncoder))
	gs, _ := s.CreateGame(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _, _ := s.Subscribe(ctx, gs.ID)

	if _, err := s.Undo(gs.ID); !errors.Is(err, domain.ErrNoHistory) {
		t.Fatalf("expected ErrNoHistory, got %v", err)
	}
	select {
	case b := <-ch:
		t.Fatalf("unexpected broadcast %q", b)
	default:
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := NewService(WithEncoder(testEncoder))
	gs, _ := s.CreateGame(0)

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

	// Fast subscriber: will read
	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, _ := s.Subscribe(ctxFast, gs.ID)
	defer unsubFast()

	if _, err := s.Place(gs.ID, 0, 0); err != nil {
		t.Fatalf("play1: %v", err)
	}
	<-fastCh
	if _, err := s.Place(gs.ID, 1, 1); err != nil {
		t.Fatalf("play2: %v", err)
	}
	<-fastCh

	// first payload is still buffered, then the channel is closed
	if b, ok := <-slowCh; !ok || string(b) != "moves=1" {
		t.Fatalf("expected buffered first payload, got %q ok=%v", b, ok)
	}
	if _, ok := <-slowCh; ok {
		t.Fatalf("expected slow subscriber to be closed")
	}
}

func TestDispatchWhileSubscribersLeave(t *testing.T) {
	s := NewService(WithEncoder(testEncoder))
	gs, _ := s.CreateGame(0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.Pass(gs.ID)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ctx, cancel := context.WithCancel(context.Background())
				_, unsub, err := s.Subscribe(ctx, gs.ID)
				if err != nil {
					t.Errorf("subscribe: %v", err)
					cancel()
					return
				}
				// never read: the next broadcasts fill the buffer and drop it
				if j%2 == 0 {
					unsub()
				}
				cancel()
			}
		}()
	}
	wg.Wait()

	st, ok := s.Get(gs.ID)
	if !ok || st.Game.Status != "in_progress" {
		t.Fatalf("unexpected state after concurrent passes: %+v", st)
	}
}
