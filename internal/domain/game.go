package domain

import (
	"errors"
	"fmt"
)

// Status is the phase of a game.
type Status uint8

const (
	InProgress Status = iota
	Won
	Draw
)

func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Errors returned by domain operations. Every rejection other than a bad
// coordinate wraps ErrIllegalMove.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrIllegalMove = errors.New("illegal move")
	ErrInvalidSize = errors.New("board size too small")

	ErrOccupied  = fmt.Errorf("%w: cell occupied", ErrIllegalMove)
	ErrGameOver  = fmt.Errorf("%w: game over", ErrIllegalMove)
	ErrNoHistory = fmt.Errorf("%w: nothing to undo", ErrIllegalMove)
	ErrResigned  = fmt.Errorf("%w: game ended by resignation", ErrIllegalMove)
)

// Move is a placed stone.
type Move struct {
	Row    int  `json:"row"`
	Col    int  `json:"col"`
	Player Cell `json:"player"`
}

// Scores counts games won per player. It outlives Reset.
type Scores struct {
	Black int `json:"black"`
	White int `json:"white"`
}

func (s *Scores) add(p Cell, n int) {
	switch p {
	case Black:
		s.Black += n
	case White:
		s.White += n
	}
}

// Result describes an accepted placement.
type Result struct {
	Move   Move
	Status Status
	Winner Cell
	Run    Run // zero unless Status is Won
}

// Game holds the state of a Gomoku session. It is not safe for concurrent
// use; hosts serialise calls.
type Game struct {
	board    *Board
	turn     Cell
	status   Status
	winner   Cell
	run      Run
	resigned bool
	history  []Move
	scores   Scores
}

// New returns a game on an empty n x n board with Black to move.
func New(n int) (*Game, error) {
	b, err := NewBoard(n)
	if err != nil {
		return nil, err
	}
	return &Game{board: b, turn: Black}, nil
}

// Reset clears the board and history and gives Black the move. Scores are kept.
func (g *Game) Reset() {
	g.board.clear()
	g.turn = Black
	g.status = InProgress
	g.winner = Empty
	g.run = Run{}
	g.resigned = false
	g.history = nil
}

// NewGame is Reset under the name the menus use.
func (g *Game) NewGame() { g.Reset() }

// Place puts the current player's stone at (r, c).
func (g *Game) Place(r, c int) (Result, error) {
	if g.status != InProgress {
		return Result{}, ErrGameOver
	}
	cell, err := g.board.Get(r, c)
	if err != nil {
		return Result{}, err
	}
	if cell != Empty {
		return Result{}, ErrOccupied
	}

	mv := Move{Row: r, Col: c, Player: g.turn}
	_ = g.board.Set(r, c, g.turn)
	g.history = append(g.history, mv)

	if run, ok := CheckWin(g.board, r, c); ok {
		g.status = Won
		g.winner = g.turn
		g.run = run
		g.scores.add(g.turn, 1)
	} else if g.board.IsFull() {
		g.status = Draw
	} else {
		g.turn = g.turn.Opponent()
	}
	return Result{Move: mv, Status: g.status, Winner: g.winner, Run: g.run}, nil
}

// Pass hands the move to the opponent without placing a stone.
func (g *Game) Pass() error {
	if g.status != InProgress {
		return ErrGameOver
	}
	g.turn = g.turn.Opponent()
	return nil
}

// Undo retracts the last stone and gives its player the move again. It is the
// only way out of a won or drawn position; a resignation cannot be undone.
func (g *Game) Undo() error {
	if g.resigned {
		return ErrResigned
	}
	if len(g.history) == 0 {
		return ErrNoHistory
	}
	last := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	_ = g.board.Set(last.Row, last.Col, Empty)
	g.turn = last.Player

	// scores are cumulative; retracting a winning stone keeps the point
	g.status = InProgress
	g.winner = Empty
	g.run = Run{}
	return nil
}

// Resign concedes the game for the player to move.
func (g *Game) Resign() error {
	if g.status != InProgress {
		return ErrGameOver
	}
	g.status = Won
	g.winner = g.turn.Opponent()
	g.run = resignRun(g.board.Size())
	g.resigned = true
	g.scores.add(g.winner, 1)
	return nil
}

// Board returns a copy of the board.
func (g *Game) Board() *Board { return g.board.Clone() }

// Size returns the board side length.
func (g *Game) Size() int { return g.board.Size() }

// CurrentPlayer returns whose move it is, or who won.
func (g *Game) CurrentPlayer() Cell { return g.turn }

func (g *Game) Status() Status { return g.status }

// Winner returns the winning player when the status is Won.
func (g *Game) Winner() (Cell, bool) {
	return g.winner, g.status == Won
}

func (g *Game) Scores() Scores { return g.scores }

// WinningRun returns the line to highlight when the status is Won. After a
// resignation it is a fixed placeholder rather than real stones.
func (g *Game) WinningRun() (Run, bool) {
	return g.run, g.status == Won
}

// Resigned reports whether the game was ended by resignation.
func (g *Game) Resigned() bool { return g.resigned }

// History returns the placed stones in order.
func (g *Game) History() []Move {
	out := make([]Move, len(g.history))
	copy(out, g.history)
	return out
}

// StoneCount returns how many stones p has on the board.
func (g *Game) StoneCount(p Cell) int { return g.board.Count(p) }

// Snapshot is a self-contained copy of everything a client draws.
type Snapshot struct {
	Size       int      `json:"size"`
	Board      [][]Cell `json:"board"`
	Turn       Cell     `json:"turn"`
	Status     string   `json:"status"`
	Winner     Cell     `json:"winner"`
	WinningRun *Run     `json:"winningRun,omitempty"`
	Resigned   bool     `json:"resigned"`
	Moves      []Move   `json:"moves"`
	Scores     Scores   `json:"scores"`
	Stones     Scores   `json:"stones"`
}

// Snapshot copies the observable state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Size:     g.board.Size(),
		Board:    g.board.Rows(),
		Turn:     g.turn,
		Status:   g.status.String(),
		Winner:   g.winner,
		Resigned: g.resigned,
		Moves:    g.History(),
		Scores:   g.scores,
		Stones:   Scores{Black: g.board.Count(Black), White: g.board.Count(White)},
	}
	if run, ok := g.WinningRun(); ok {
		s.WinningRun = &run
	}
	return s
}
