package protocol

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/Iron-Ham/uccibridge/internal/errors"
)

// Variant selects how ValidateFEN checks a position string.
type Variant string

const (
	VariantChess   Variant = "chess"
	VariantXiangqi Variant = "xiangqi"
	// VariantNone accepts any non-empty single-line string.
	VariantNone Variant = "none"
)

// XiangqiStartFEN is the standard xiangqi starting position.
const XiangqiStartFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w - - 0 1"

// ChessStartFEN is the standard chess starting position.
const ChessStartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

const (
	xiangqiRanks = 10
	xiangqiFiles = 9
	xiangqiPiece = "rnbakcp"
)

// ValidateFEN performs a syntactic check of fen for the given variant.
// It does not judge legality beyond what the board layout implies.
func ValidateFEN(v Variant, fen string) error {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return errors.NewValidationError("FEN must not be empty").WithField("fen")
	}
	if strings.ContainsAny(fen, "\r\n") {
		return errors.NewValidationError("FEN must be a single line").WithField("fen")
	}

	switch v {
	case VariantChess:
		if _, err := chess.FEN(fen); err != nil {
			return errors.NewValidationError("invalid chess FEN").WithField("fen").WithValue(fen).WithCause(err)
		}
		return nil
	case VariantXiangqi:
		return validateXiangqiFEN(fen)
	case VariantNone, "":
		return nil
	default:
		return errors.NewValidationError("unknown variant").WithField("variant").WithValue(string(v))
	}
}

func validateXiangqiFEN(fen string) error {
	fail := func(format string, args ...any) error {
		return errors.NewValidationError(fmt.Sprintf(format, args...)).WithField("fen").WithValue(fen)
	}

	fields := strings.Fields(fen)
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != xiangqiRanks {
		return fail("expected %d ranks, got %d", xiangqiRanks, len(ranks))
	}

	kings := map[rune]int{}
	for i, rank := range ranks {
		files := 0
		for _, r := range rank {
			switch {
			case r >= '1' && r <= '9':
				files += int(r - '0')
			case strings.ContainsRune(xiangqiPiece, toLower(r)):
				files++
				if r == 'k' || r == 'K' {
					kings[r]++
				}
			default:
				return fail("rank %d: unexpected character %q", i+1, r)
			}
		}
		if files != xiangqiFiles {
			return fail("rank %d: expected %d files, got %d", i+1, xiangqiFiles, files)
		}
	}

	if kings['K'] != 1 || kings['k'] != 1 {
		return fail("each side must have exactly one king")
	}

	if len(fields) > 1 {
		switch fields[1] {
		case "w", "b", "r":
		default:
			return fail("side to move must be w, r or b")
		}
	}

	return nil
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
