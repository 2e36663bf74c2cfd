package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Iron-Ham/uccibridge/internal/config"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move [engine]",
	Short: "Ask an engine for one move",
	Long: `Start an engine, request its best move for a position, print it and
stop the engine.

The position defaults to the starting position of move.variant. The move
is printed as "<from> <to>", or as a JSON object with --json.

With --depth the engine searches to that depth instead of for a fixed
time; --movetime then only bounds how long to wait for the answer.

Examples:
  # Best move from the xiangqi starting position
  uccibridge move

  # Think for five seconds about a chess position
  uccibridge move --fen "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1" --movetime 5000 ./stockfish

  # Search twelve plies, waiting at most a minute
  uccibridge move --depth 12 --movetime 60000`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMove,
}

var (
	moveFEN          string
	moveTimeMs       int
	moveDepth        int
	moveJSON         bool
	errFENNeeded     = errors.New("--fen is required when move.variant is none")
	errDepthNegative = errors.New("--depth must not be negative")
)

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().StringVar(&moveFEN, "fen", "", "position to search (default: the variant's starting position)")
	moveCmd.Flags().IntVar(&moveTimeMs, "movetime", 0, "think time in milliseconds (default: move.default_movetime_ms)")
	moveCmd.Flags().IntVar(&moveDepth, "depth", 0, "search to this depth instead of for a fixed time")
	moveCmd.Flags().BoolVar(&moveJSON, "json", false, "print the result as JSON")
}

func runMove(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	variant := protocol.Variant(cfg.Move.Variant)
	fen := moveFEN
	if fen == "" {
		if fen, err = startPosition(variant); err != nil {
			return err
		}
	}
	if err := protocol.ValidateFEN(variant, fen); err != nil {
		return err
	}

	if moveDepth < 0 {
		return errDepthNegative
	}
	limit := cfg.Move.DefaultMoveTime()
	if moveTimeMs > 0 {
		limit = time.Duration(moveTimeMs) * time.Millisecond
	}

	env, err := newEngineEnv(cfg, args, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.Close()

	if err := env.start(cmd.Context()); err != nil {
		return err
	}

	if err := env.newGame(); err != nil {
		return err
	}

	var res protocol.MoveResult
	if moveDepth > 0 {
		res, err = env.bridge.RequestMoveDepth(cmd.Context(), fen, moveDepth, limit)
	} else {
		res, err = env.bridge.RequestMove(cmd.Context(), fen, limit)
	}
	if err != nil {
		return err
	}
	if err := env.bridge.Stop(); err != nil {
		env.logger.Warn("engine did not stop cleanly", "error", err.Error())
	}

	out := cmd.OutOrStdout()
	if moveJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintln(out, res.String())
	return err
}

func startPosition(v protocol.Variant) (string, error) {
	switch v {
	case protocol.VariantChess:
		return protocol.ChessStartFEN, nil
	case protocol.VariantXiangqi:
		return protocol.XiangqiStartFEN, nil
	default:
		return "", errFENNeeded
	}
}
