package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/uccibridge/internal/bridge"
	"github.com/Iron-Ham/uccibridge/internal/config"
	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/logging"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
	"github.com/Iron-Ham/uccibridge/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.RunHelperEngineIfRequested()
	os.Exit(m.Run())
}

// executeCommand runs the root command with args against fresh viper and
// flag state and returns the captured output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// isolateConfig points the config directory at a temporary directory.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "uccibridge")
}

// helperEngineConfig writes a config that runs this test binary as the
// engine.
func helperEngineConfig(t *testing.T, extra string) string {
	t.Helper()
	t.Setenv(testutil.HelperEngineEnv, testutil.HelperNormal)
	t.Setenv("GORACE", "atexit_sleep_ms=0")
	content := fmt.Sprintf(`engine:
  path: %q
  args: [%q]
logging:
  enabled: false
%s`, os.Args[0], "-test.run=^$", extra)
	return testutil.WriteFile(t, t.TempDir(), "config.yaml", content)
}

func TestRootCommand_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"run", "move", "engines", "config"} {
		if !slices.Contains(names, want) {
			t.Errorf("root command is missing %q (have %v)", want, names)
		}
	}
}

func TestConfigPath_Default(t *testing.T) {
	dir := isolateConfig(t)

	out, err := executeCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}

	want := filepath.Join(dir, "config.yaml") + " (does not exist)\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestConfigInit(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "config.yaml")

	if _, err := executeCommand(t, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	for _, want := range []string{"dialect: uci", "safety_margin_ms: 2000", "variant: xiangqi"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config file missing %q:\n%s", want, data)
		}
	}

	_, err = executeCommand(t, "config", "init")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init error = %v, want already exists", err)
	}

	if _, err := executeCommand(t, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestConfigShow_ReadsFile(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteFile(t, t.TempDir(), "config.yaml", "engine:\n  dialect: ucci\n")

	out, err := executeCommand(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}

	if !strings.Contains(out, "# Config file: "+path) {
		t.Errorf("output does not name the config file:\n%s", out)
	}
	if !strings.Contains(out, "dialect: ucci") {
		t.Errorf("output does not reflect the file:\n%s", out)
	}
}

func TestConfigShow_InvalidConfig(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteFile(t, t.TempDir(), "config.yaml", "engine:\n  dialect: xboard\n")

	_, err := executeCommand(t, "config", "show", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "engine.dialect") {
		t.Errorf("error = %v, want an engine.dialect validation error", err)
	}
}

func TestConfigSet(t *testing.T) {
	dir := isolateConfig(t)

	if _, err := executeCommand(t, "config", "set", "bridge.quit_grace_ms", "250"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if _, err := executeCommand(t, "config", "set", "engine.patterns", "alpha*, beta*"); err != nil {
		t.Fatalf("config set list: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "quit_grace_ms: 250") {
		t.Errorf("config file missing quit_grace_ms:\n%s", data)
	}

	out, err := executeCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"quit_grace_ms: 250", "- alpha*", "- beta*"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigSet_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"unknown key", "engine.colour", "red", "unknown configuration key"},
		{"not an integer", "bridge.quit_grace_ms", "soon", "expected integer"},
		{"not a bool", "engine.handshake", "maybe", "expected true or false"},
		{"fails validation", "engine.dialect", "xboard", "engine.dialect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolateConfig(t)

			_, err := executeCommand(t, "config", "set", tt.key, tt.value)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
			}
			if _, statErr := os.Stat(filepath.Join(dir, "config.yaml")); statErr == nil {
				t.Error("config file written despite the error")
			}
		})
	}
}

func TestEngines(t *testing.T) {
	isolateConfig(t)
	engines := t.TempDir()
	testutil.WriteExecutable(t, engines, "pikafish-avx2")
	testutil.WriteExecutable(t, engines, "stockfish")
	testutil.WriteFile(t, engines, "pikafish.nnue", "weights")

	path := testutil.WriteFile(t, t.TempDir(), "config.yaml", fmt.Sprintf(`engine:
  search_paths: [%q]
  patterns: ["pikafish*", "stockfish*"]
`, engines))

	out, err := executeCommand(t, "engines", "--config", path)
	if err != nil {
		t.Fatalf("engines: %v", err)
	}

	if !strings.HasPrefix(out, "NAME") {
		t.Errorf("output has no header:\n%s", out)
	}
	pika := strings.Index(out, filepath.Join(engines, "pikafish-avx2"))
	stock := strings.Index(out, filepath.Join(engines, "stockfish"))
	if pika < 0 || stock < 0 {
		t.Fatalf("output missing engines:\n%s", out)
	}
	if pika > stock {
		t.Errorf("engines listed out of pattern order:\n%s", out)
	}
	if strings.Contains(out, "pikafish.nnue") {
		t.Errorf("non-executable file listed:\n%s", out)
	}
}

func TestEngines_NoneFound(t *testing.T) {
	isolateConfig(t)
	empty := t.TempDir()
	path := testutil.WriteFile(t, t.TempDir(), "config.yaml", fmt.Sprintf("engine:\n  search_paths: [%q]\n", empty))

	out, err := executeCommand(t, "engines", "--config", path)
	if err != nil {
		t.Fatalf("engines: %v", err)
	}
	if !strings.HasPrefix(out, "No engines found in "+empty) {
		t.Errorf("output = %q", out)
	}
}

func TestMove(t *testing.T) {
	isolateConfig(t)
	path := helperEngineConfig(t, "")

	out, err := executeCommand(t, "move", "--config", path, "--movetime", "50")
	if err != nil {
		t.Fatalf("move: %v\n%s", err, out)
	}
	if out != "e2 e4\n" {
		t.Errorf("output = %q, want %q", out, "e2 e4\n")
	}
}

func TestMove_JSON(t *testing.T) {
	isolateConfig(t)
	path := helperEngineConfig(t, "move:\n  variant: chess\n")

	out, err := executeCommand(t, "move", "--config", path, "--movetime", "50", "--json")
	if err != nil {
		t.Fatalf("move: %v\n%s", err, out)
	}

	var res protocol.MoveResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Move != testutil.DefaultBestMove || res.From != "e2" || res.To != "e4" {
		t.Errorf("result = %+v", res)
	}
	if res.Position != protocol.ChessStartFEN {
		t.Errorf("position = %q, want the chess starting position", res.Position)
	}
}

func TestMove_InvalidPosition(t *testing.T) {
	isolateConfig(t)
	path := helperEngineConfig(t, "move:\n  variant: xiangqi\n")

	if _, err := executeCommand(t, "move", "--config", path, "--fen", "not a position"); err == nil {
		t.Fatal("expected an error for an invalid FEN")
	}
}

func TestMove_VariantNoneNeedsFEN(t *testing.T) {
	isolateConfig(t)
	path := helperEngineConfig(t, "move:\n  variant: none\n")

	_, err := executeCommand(t, "move", "--config", path)
	if !errors.Is(err, errFENNeeded) {
		t.Errorf("error = %v, want errFENNeeded", err)
	}
}

func TestMove_EngineNotFound(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteFile(t, t.TempDir(), "config.yaml", fmt.Sprintf(`engine:
  search_paths: [%q]
logging:
  enabled: false
`, t.TempDir()))

	_, err := executeCommand(t, "move", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "failed to find an engine") {
		t.Errorf("error = %v, want a discovery failure", err)
	}
}

func TestMove_Depth(t *testing.T) {
	isolateConfig(t)
	path := helperEngineConfig(t, "")

	out, err := executeCommand(t, "move", "--config", path, "--depth", "5", "--movetime", "2000")
	if err != nil {
		t.Fatalf("move: %v\n%s", err, out)
	}
	if out != "e2 e4\n" {
		t.Errorf("output = %q, want %q", out, "e2 e4\n")
	}
}

func TestMove_NegativeDepth(t *testing.T) {
	isolateConfig(t)
	path := helperEngineConfig(t, "")

	_, err := executeCommand(t, "move", "--config", path, "--depth", "-1")
	if !errors.Is(err, errDepthNegative) {
		t.Errorf("error = %v, want errDepthNegative", err)
	}
}

// newFakeEnv builds an engineEnv around a FakeSpawner.
func newFakeEnv(t *testing.T, cfg *config.Config) (*engineEnv, *testutil.FakeSpawner) {
	t.Helper()

	dialect, err := protocol.ParseDialect(cfg.Engine.Dialect)
	if err != nil {
		t.Fatalf("ParseDialect: %v", err)
	}
	spawner := &testutil.FakeSpawner{}
	logger := logging.NopLogger()
	env := &engineEnv{
		cfg:    cfg,
		path:   "fake-engine",
		logger: logger,
		bus:    event.NewBus(logger),
		bridge: bridge.New(bridge.WithSpawner(spawner), bridge.WithDialect(dialect)),
	}
	t.Cleanup(func() { _ = env.Close() })
	return env, spawner
}

func TestEngineEnv_OptionsAndNewGame(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		options []string
		want    []string
	}{
		{
			name:    "uci",
			dialect: "uci",
			options: []string{"Threads=4", "Clear Hash"},
			want: []string{
				"uci", "isready",
				"setoption name Threads value 4",
				"setoption name Clear Hash",
				"ucinewgame",
				"isready",
			},
		},
		{
			name:    "ucci has no new-game command",
			dialect: "ucci",
			options: []string{"usebook=false"},
			want: []string{
				"ucci", "isready",
				"setoption usebook false",
				"isready",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Engine.Dialect = tt.dialect
			cfg.Engine.Options = tt.options
			env, spawner := newFakeEnv(t, cfg)

			if err := env.start(context.Background()); err != nil {
				t.Fatalf("start: %v", err)
			}
			if err := env.newGame(); err != nil {
				t.Fatalf("newGame: %v", err)
			}
			if err := env.bridge.Send(protocol.IsReady); err != nil {
				t.Fatalf("Send: %v", err)
			}

			e := spawner.Last()
			testutil.Eventually(t, 3*time.Second, func() bool {
				return len(e.Commands()) >= len(tt.want)
			}, "engine received %q, want %q", e.Commands(), tt.want)
			if got := e.Commands(); !slices.Equal(got, tt.want) {
				t.Errorf("engine received %q, want %q", got, tt.want)
			}
			if bytes.Contains(e.Raw(), []byte("\n\n")) {
				t.Errorf("engine received a blank line: %q", e.Raw())
			}
		})
	}
}

func TestWatchBinary_FailureReleasesWatcher(t *testing.T) {
	if _, err := os.Stat("/proc/self/fd"); err != nil {
		t.Skip("needs /proc/self/fd")
	}
	openFDs := func() int {
		entries, err := os.ReadDir("/proc/self/fd")
		if err != nil {
			t.Fatalf("ReadDir: %v", err)
		}
		return len(entries)
	}

	env := &engineEnv{
		path:   filepath.Join(t.TempDir(), "missing", "pikafish"),
		logger: logging.NopLogger(),
		bus:    event.NewBus(nil),
	}

	before := openFDs()
	for range 20 {
		env.watchBinary()
	}
	if env.watcher != nil {
		t.Fatal("watcher kept for a directory that does not exist")
	}
	if after := openFDs(); after > before+5 {
		t.Errorf("open file descriptors grew from %d to %d", before, after)
	}
}

func TestRun_PlainConsole(t *testing.T) {
	isolateConfig(t)
	path := helperEngineConfig(t, "")

	viper.Reset()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader("isready\n:move " + protocol.XiangqiStartFEN + "\n"))
	rootCmd.SetArgs([]string{"run", "--plain", "--config", path})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("run: %v\n%s", err, buf.String())
	}

	out := buf.String()
	for _, want := range []string{"[engine started: ", "uciok", "readyok", "bestmove e2 e4", "[engine output ended"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func startConsole(t *testing.T) (*console, *testutil.FakeSpawner, *bytes.Buffer) {
	t.Helper()

	spawner := &testutil.FakeSpawner{}
	b := bridge.New(bridge.WithSpawner(spawner))
	out := new(bytes.Buffer)
	c := newConsole(b, out, 100*time.Millisecond)

	if err := b.Start(context.Background(), "fake-engine"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = b.Stop() })
	return c, spawner, out
}

func TestConsole_CommandsAndMoves(t *testing.T) {
	c, spawner, out := startConsole(t)

	in := strings.NewReader("isready\n\n:move " + protocol.XiangqiStartFEN + "\n")
	if err := c.run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{
		"isready",
		protocol.PositionFEN(protocol.XiangqiStartFEN),
		protocol.GoMoveTime(100 * time.Millisecond),
		protocol.Quit,
	}
	if got := spawner.Last().Commands(); !slices.Equal(got, want) {
		t.Errorf("engine received %q, want %q", got, want)
	}

	text := out.String()
	for _, s := range []string{"readyok", "info depth 1", "bestmove e2 e4", "[engine output ended"} {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q:\n%s", s, text)
		}
	}
}

func TestConsole_QuitStopsReading(t *testing.T) {
	c, spawner, _ := startConsole(t)

	if err := c.run(context.Background(), strings.NewReader(":quit\nisready\n")); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := spawner.Last().Commands(); slices.Contains(got, "isready") {
		t.Errorf("command after :quit was sent: %q", got)
	}
}

func TestConsole_MoveUsage(t *testing.T) {
	c, _, out := startConsole(t)

	if err := c.run(context.Background(), strings.NewReader(":move\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), errConsoleMoveUsage.Error()) {
		t.Errorf("output missing usage:\n%s", out.String())
	}
}

func TestConsole_BinaryChangedNotice(t *testing.T) {
	c, _, out := startConsole(t)
	bus := event.NewBus(nil)
	unsubscribe := c.notifyBinaryChanged(bus)

	bus.Publish(event.NewEngineBinaryChangedEvent("/opt/engines/pikafish", "WRITE"))
	unsubscribe()
	bus.Publish(event.NewEngineBinaryChangedEvent("/opt/engines/pikafish", "REMOVE"))

	if err := c.run(context.Background(), strings.NewReader("")); err != nil {
		t.Fatalf("run: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "engine binary changed on disk (WRITE): /opt/engines/pikafish") {
		t.Errorf("output missing notice:\n%s", text)
	}
	if strings.Contains(text, "REMOVE") {
		t.Errorf("notice delivered after unsubscribe:\n%s", text)
	}
}
