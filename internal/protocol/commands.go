// Package protocol holds the pure, I/O-free parts of the UCI/UCCI text
// protocol: command builders, terminal-line recognition, bestmove and info
// parsing, and a syntactic FEN precheck.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/uccibridge/internal/errors"
)

// Dialect identifies the protocol flavor spoken by an engine.
type Dialect string

const (
	// DialectUCI is the Universal Chess Interface, also used by xiangqi
	// engines such as Pikafish.
	DialectUCI Dialect = "uci"
	// DialectUCCI is the Universal Chinese Chess Interface used by ElephantEye.
	DialectUCCI Dialect = "ucci"
)

// ParseDialect converts a config string to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case DialectUCI:
		return DialectUCI, nil
	case DialectUCCI:
		return DialectUCCI, nil
	default:
		return "", errors.NewValidationError("unknown protocol dialect").WithField("dialect").WithValue(s)
	}
}

// InitCommand returns the command that opens a session ("uci" or "ucci").
func (d Dialect) InitCommand() string {
	if d == DialectUCCI {
		return "ucci"
	}
	return "uci"
}

// Fixed commands.
const (
	IsReady = "isready"
	ReadyOK = "readyok"
	Stop    = "stop"
	Quit    = "quit"
)

// Terminal response tokens.
const (
	BestMoveToken   = "bestmove"
	NoBestMoveToken = "nobestmove"
)

// NewGame returns the dialect's new-game command. UCCI has none; ok is
// false then and nothing should be sent.
func NewGame(d Dialect) (cmd string, ok bool) {
	if d == DialectUCCI {
		return "", false
	}
	return "ucinewgame", true
}

// PositionFEN builds "position fen <fen> [moves m1 m2 ...]".
func PositionFEN(fen string, moves ...string) string {
	return withMoves("position fen "+strings.TrimSpace(fen), moves)
}

func withMoves(base string, moves []string) string {
	if len(moves) == 0 {
		return base
	}
	return base + " moves " + strings.Join(moves, " ")
}

// GoMoveTime builds "go movetime <ms>". Durations below one millisecond
// are rounded up to 1.
func GoMoveTime(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return "go movetime " + strconv.FormatInt(ms, 10)
}

// GoDepth builds "go depth <n>".
func GoDepth(n int) string {
	return "go depth " + strconv.Itoa(n)
}

// SetOption builds a setoption command. UCI uses "setoption name N value V";
// UCCI uses "setoption N V". An empty value omits the value part.
func SetOption(d Dialect, name, value string) string {
	if d == DialectUCCI {
		if value == "" {
			return "setoption " + name
		}
		return fmt.Sprintf("setoption %s %s", name, value)
	}
	if value == "" {
		return "setoption name " + name
	}
	return fmt.Sprintf("setoption name %s value %s", name, value)
}

// ValidateCommand reports whether s can be sent as exactly one protocol line.
func ValidateCommand(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return errors.NewWriteError(errors.WriteInvalidCommand, s, nil)
	}
	return nil
}

// FirstToken returns the first whitespace-separated token of line.
func FirstToken(line string) string {
	line = strings.TrimLeft(line, " \t")
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		return line[:i]
	}
	return line
}

// IsBestMoveLine reports whether line terminates a move computation.
func IsBestMoveLine(line string) bool {
	tok := FirstToken(line)
	return tok == BestMoveToken || tok == NoBestMoveToken
}

// IsReadyLine reports whether line answers an isready probe.
func IsReadyLine(line string) bool {
	return strings.TrimSpace(line) == ReadyOK
}
