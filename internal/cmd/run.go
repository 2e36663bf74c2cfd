package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/uccibridge/internal/config"
	"github.com/Iron-Ham/uccibridge/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run [engine]",
	Short: "Open a console for an engine",
	Long: `Start an engine and open a console for it.

The engine is the given executable, engine.path from the config, or the
first file in engine.search_paths matching engine.patterns.

On a terminal this opens the interactive console. Otherwise, or with
--plain, commands are read from standard input one per line and engine
output is printed as it arrives. In both consoles:

  <command>      sent to the engine as typed
  :move <fen>    request a move for the position
  :quit          stop the engine and exit (plain console)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var runPlain bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "use the line console even on a terminal")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	interactive := !runPlain && term.IsTerminal(int(os.Stdout.Fd()))

	// Forwarded stderr would tear through the TUI's alternate screen.
	host := cmd.ErrOrStderr()
	if interactive {
		host = nil
	}

	env, err := newEngineEnv(cfg, args, host)
	if err != nil {
		return err
	}
	defer env.Close()

	if cfg.Engine.WatchBinary {
		env.watchBinary()
	}

	if interactive {
		err := tui.Run(cmd.Context(), env.bridge, env.bus, tui.Options{
			EnginePath:       env.path,
			AutoStart:        true,
			Handshake:        cfg.Engine.Handshake,
			HandshakeTimeout: cfg.Engine.HandshakeTimeout(),
			DefaultMoveTime:  cfg.Move.DefaultMoveTime(),
			MaxOutputLines:   cfg.TUI.MaxOutputLines,
			Setup:            env.setupCommands(),
		})
		if err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	}

	c := newConsole(env.bridge, cmd.OutOrStdout(), cfg.Move.DefaultMoveTime())
	defer c.notifyBinaryChanged(env.bus)()

	if err := env.start(cmd.Context()); err != nil {
		c.sub.Close()
		return err
	}
	_ = c.out.println(tui.FormatNotice(fmt.Sprintf("[engine started: %s, pid %d]", env.path, env.bridge.PID())))

	return c.run(cmd.Context(), cmd.InOrStdin())
}
