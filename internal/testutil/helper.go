package testutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Iron-Ham/uccibridge/internal/process"
)

// HelperEngineEnv selects the helper engine mode when a test binary is
// re-executed as an engine.
const HelperEngineEnv = "UCCIBRIDGE_HELPER_ENGINE"

// Helper engine modes.
const (
	// HelperNormal answers like EngineReplies and exits on quit or EOF.
	HelperNormal = "normal"
	// HelperIgnoreQuit keeps running after quit and EOF until killed.
	HelperIgnoreQuit = "ignore-quit"
	// HelperStderr writes a line to stderr before behaving normally.
	HelperStderr = "stderr"
	// HelperOrphan starts a grandchild that inherits stdout, then ignores
	// quit. Killing the helper leaves the pipe open.
	HelperOrphan = "orphan"
	// HelperSleep sleeps briefly and exits. Used by HelperOrphan.
	HelperSleep = "sleep"
)

// HelperStderrLine is what HelperStderr mode writes to stderr.
const HelperStderrLine = "helper engine diagnostic"

// RunHelperEngineIfRequested runs the helper engine and exits when the
// current process was started by HelperEngineSpec. Call it first in TestMain.
func RunHelperEngineIfRequested() {
	mode := os.Getenv(HelperEngineEnv)
	if mode == "" {
		return
	}
	os.Exit(runHelperEngine(mode, os.Stdin, os.Stdout, os.Stderr))
}

// HelperEngineRaceEnv turns off the race detector's exit delay in helper
// engines. A -race binary otherwise sleeps a second before exiting, longer
// than the default quit grace, and would be reported as killed.
const HelperEngineRaceEnv = "GORACE=atexit_sleep_ms=0"

// HelperEngineSpec returns a spec that re-executes the running test binary
// as a helper engine in the given mode.
func HelperEngineSpec(mode string) process.Spec {
	return process.Spec{
		Path: os.Args[0],
		Args: []string{"-test.run=^$"},
		Env:  append(os.Environ(), HelperEngineEnv+"="+mode, HelperEngineRaceEnv),
	}
}

func runHelperEngine(mode string, stdin io.Reader, stdout, stderr io.Writer) int {
	switch mode {
	case HelperSleep:
		time.Sleep(3 * time.Second)
		return 0
	case HelperStderr:
		fmt.Fprintln(stderr, HelperStderrLine)
	case HelperOrphan:
		spec := HelperEngineSpec(HelperSleep)
		cmd := exec.Command(spec.Path, spec.Args...)
		cmd.Env = spec.Env
		cmd.Stdout = os.Stdout
		if err := cmd.Start(); err != nil {
			fmt.Fprintln(stderr, "failed to start grandchild:", err)
			return 1
		}
	}

	ignoreQuit := mode == HelperIgnoreQuit || mode == HelperOrphan
	out := bufio.NewWriter(stdout)
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		if cmd == "quit" {
			if ignoreQuit {
				continue
			}
			return 0
		}
		for _, line := range EngineReplies(cmd, DefaultBestMove) {
			fmt.Fprintln(out, line)
		}
		if err := out.Flush(); err != nil {
			return 1
		}
	}

	if ignoreQuit {
		time.Sleep(time.Minute)
	}
	return 0
}
