package app

import "github.com/jaminalder/gomoku/internal/domain"

// CommandKind names a user intent.
type CommandKind string

const (
	CmdPlace  CommandKind = "place"
	CmdUndo   CommandKind = "undo"
	CmdPass   CommandKind = "pass"
	CmdResign CommandKind = "resign"
	CmdReset  CommandKind = "reset"
)

// Command is one user intent against a game. Row and Col are only read for
// CmdPlace.
type Command struct {
	Kind CommandKind `json:"t"`
	Row  int         `json:"row"`
	Col  int         `json:"col"`
}

func (c Command) apply(g *domain.Game) error {
	switch c.Kind {
	case CmdPlace:
		_, err := g.Place(c.Row, c.Col)
		return err
	case CmdUndo:
		return g.Undo()
	case CmdPass:
		return g.Pass()
	case CmdResign:
		return g.Resign()
	case CmdReset:
		g.Reset()
		return nil
	default:
		return ErrUnknownCommand
	}
}
