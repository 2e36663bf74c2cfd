package protocol

import (
	"testing"
	"time"

	"github.com/Iron-Ham/uccibridge/internal/errors"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"uci", DialectUCI, false},
		{"UCCI", DialectUCCI, false},
		{" uci ", DialectUCI, false},
		{"xboard", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDialect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if tt.wantErr && !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("error should be a validation error: %v", err)
			}
		})
	}
}

func TestDialectTokens(t *testing.T) {
	if DialectUCI.InitCommand() != "uci" {
		t.Error("unexpected UCI init command")
	}
	if DialectUCCI.InitCommand() != "ucci" {
		t.Error("unexpected UCCI init command")
	}
	if cmd, ok := NewGame(DialectUCI); !ok || cmd != "ucinewgame" {
		t.Errorf("NewGame(uci) = %q, %v, want ucinewgame, true", cmd, ok)
	}
	if cmd, ok := NewGame(DialectUCCI); ok || cmd != "" {
		t.Errorf("NewGame(ucci) = %q, %v, want nothing to send", cmd, ok)
	}
}

func TestCommandBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"position fen", PositionFEN(" 9/9 w - - 0 1 "), "position fen 9/9 w - - 0 1"},
		{"position fen moves", PositionFEN("x w", "h2e2", "h9g7"), "position fen x w moves h2e2 h9g7"},
		{"go movetime", GoMoveTime(1500 * time.Millisecond), "go movetime 1500"},
		{"go movetime rounds up", GoMoveTime(time.Microsecond), "go movetime 1"},
		{"go depth", GoDepth(12), "go depth 12"},
		{"setoption uci", SetOption(DialectUCI, "Threads", "4"), "setoption name Threads value 4"},
		{"setoption uci button", SetOption(DialectUCI, "Clear Hash", ""), "setoption name Clear Hash"},
		{"setoption ucci", SetOption(DialectUCCI, "usebook", "false"), "setoption usebook false"},
		{"setoption ucci flag", SetOption(DialectUCCI, "newgame", ""), "setoption newgame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestValidateCommand(t *testing.T) {
	if err := ValidateCommand("go movetime 1000"); err != nil {
		t.Errorf("ValidateCommand() = %v, want nil", err)
	}
	if err := ValidateCommand(""); err != nil {
		t.Errorf("empty command should be allowed: %v", err)
	}
	for _, bad := range []string{"isready\nquit", "isready\r", "\n"} {
		err := ValidateCommand(bad)
		if !errors.Is(err, errors.ErrInvalidCommand) {
			t.Errorf("ValidateCommand(%q) = %v, want ErrInvalidCommand", bad, err)
		}
	}
}

func TestTerminalLines(t *testing.T) {
	tests := []struct {
		line     string
		bestmove bool
		ready    bool
	}{
		{"bestmove e2e4", true, false},
		{"bestmove", true, false},
		{"nobestmove", true, false},
		{"bestmoves e2e4", false, false},
		{"info string bestmove e2e4", false, false},
		{"readyok", false, true},
		{" readyok ", false, true},
		{"readyok now", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := IsBestMoveLine(tt.line); got != tt.bestmove {
				t.Errorf("IsBestMoveLine(%q) = %v, want %v", tt.line, got, tt.bestmove)
			}
			if got := IsReadyLine(tt.line); got != tt.ready {
				t.Errorf("IsReadyLine(%q) = %v, want %v", tt.line, got, tt.ready)
			}
		})
	}
}

func TestFirstToken(t *testing.T) {
	tests := map[string]string{
		"bestmove e2e4": "bestmove",
		"\tinfo depth":  "info",
		"uciok":         "uciok",
		"":              "",
	}
	for in, want := range tests {
		if got := FirstToken(in); got != want {
			t.Errorf("FirstToken(%q) = %q, want %q", in, got, want)
		}
	}
}
