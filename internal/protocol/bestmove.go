package protocol

import (
	"strings"

	"github.com/Iron-Ham/uccibridge/internal/errors"
)

// MoveResult is the structured form of a bestmove line.
type MoveResult struct {
	// From and To are the origin and destination squares in the engine's
	// native coordinates (the first and second pair of the move token).
	From string `json:"from"`
	To   string `json:"to"`
	// Move is the full move token, so a promotion suffix stays visible.
	Move string `json:"move"`
	// Ponder is the move the engine expects in reply, if it named one.
	Ponder string `json:"ponder,omitempty"`
	// Position is the FEN the request was issued against.
	Position string `json:"position"`
}

// String renders the result as "<from> <to>".
func (r MoveResult) String() string {
	return r.From + " " + r.To
}

// ParseBestMove parses a terminal line such as "bestmove h2e2 ponder h9g7".
//
// It needs at least two tokens and a move token of four or more characters;
// anything else is a MalformedMove. "nobestmove", "bestmove (none)" and the
// null move "bestmove 0000" are reported as NoMove.
func ParseBestMove(line, position string) (MoveResult, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return MoveResult{}, errors.NewParseError(errors.ParseMalformedMove, line)
	}

	switch tokens[0] {
	case NoBestMoveToken:
		return MoveResult{}, errors.NewParseError(errors.ParseNoMove, line)
	case BestMoveToken:
	default:
		return MoveResult{}, errors.NewParseError(errors.ParseMalformedMove, line)
	}

	if len(tokens) < 2 {
		return MoveResult{}, errors.NewParseError(errors.ParseMalformedMove, line)
	}

	move := tokens[1]
	if move == "(none)" || move == "0000" {
		return MoveResult{}, errors.NewParseError(errors.ParseNoMove, line)
	}

	squares := []rune(move)
	if len(squares) < 4 {
		return MoveResult{}, errors.NewParseError(errors.ParseMalformedMove, line)
	}

	result := MoveResult{
		From:     string(squares[0:2]),
		To:       string(squares[2:4]),
		Move:     move,
		Position: position,
	}

	for i := 2; i+1 < len(tokens); i++ {
		if tokens[i] == "ponder" {
			result.Ponder = tokens[i+1]
			break
		}
	}

	return result, nil
}
