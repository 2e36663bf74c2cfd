package bridge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/uccibridge/internal/errors"
	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
)

type requestKind int

const (
	requestMove requestKind = iota
	requestReady
)

func (k requestKind) String() string {
	if k == requestReady {
		return "ready"
	}
	return "move"
}

type outcome struct {
	line string
	err  error
}

// pendingRequest is the single outstanding synchronous request. It is
// resolved exactly once, by whoever clears it from the bridge's slot.
type pendingRequest struct {
	id       string
	kind     requestKind
	position string
	issued   time.Time
	done     chan outcome
}

func newPendingRequest(kind requestKind, position string) *pendingRequest {
	return &pendingRequest{
		id:       uuid.NewString(),
		kind:     kind,
		position: position,
		done:     make(chan outcome, 1),
	}
}

// terminal reports whether line completes the request.
func (p *pendingRequest) terminal(line string) bool {
	switch p.kind {
	case requestReady:
		return protocol.IsReadyLine(line)
	default:
		return protocol.IsBestMoveLine(line)
	}
}

func (p *pendingRequest) resolve(line string, err error) {
	p.done <- outcome{line: line, err: err}
}

// MaxTimeLimit is the longest search a move request accepts.
const MaxTimeLimit = 24 * time.Hour

// RequestMove asks the engine for its best move in position fen, searching
// for timeLimit. It blocks until the engine answers, the deadline of
// timeLimit plus the safety margin passes, or ctx is done.
//
// Only one request may be outstanding; a second fails immediately with
// MoveAlreadyPending and writes nothing.
func (b *Bridge) RequestMove(ctx context.Context, fen string, timeLimit time.Duration) (protocol.MoveResult, error) {
	p := newPendingRequest(requestMove, fen)

	if err := validateMoveRequest(fen, timeLimit); err != nil {
		merr := errors.NewMoveError(errors.MoveFailed, err).WithRequestID(p.id).WithPosition(fen)
		return protocol.MoveResult{}, merr
	}
	return b.requestMove(ctx, p, protocol.GoMoveTime(timeLimit), timeLimit)
}

// RequestMoveDepth is RequestMove for a fixed-depth search. The engine
// decides how long the search takes, so budget only bounds the wait: the
// deadline is budget plus the safety margin.
func (b *Bridge) RequestMoveDepth(ctx context.Context, fen string, depth int, budget time.Duration) (protocol.MoveResult, error) {
	p := newPendingRequest(requestMove, fen)

	err := validateMoveRequest(fen, budget)
	if err == nil && depth <= 0 {
		err = errors.NewValidationError("depth must be positive").WithField("depth").WithValue(depth)
	}
	if err != nil {
		merr := errors.NewMoveError(errors.MoveFailed, err).WithRequestID(p.id).WithPosition(fen)
		return protocol.MoveResult{}, merr
	}
	return b.requestMove(ctx, p, protocol.GoDepth(depth), budget)
}

func (b *Bridge) requestMove(ctx context.Context, p *pendingRequest, search string, budget time.Duration) (protocol.MoveResult, error) {
	fen := p.position
	if err := b.issue(p, protocol.PositionFEN(fen), search); err != nil {
		b.publish(event.NewMoveFailedEvent(p.id, fen, err))
		return protocol.MoveResult{}, err
	}

	out, err := b.await(ctx, p, budget+b.safetyMargin)
	if err != nil {
		b.publish(event.NewMoveFailedEvent(p.id, fen, err))
		return protocol.MoveResult{}, err
	}

	result, err := protocol.ParseBestMove(out.line, fen)
	if err != nil {
		merr := errors.NewMoveError(errors.MoveFailed, err).WithRequestID(p.id).WithPosition(fen)
		b.logger.WithRequest(p.id).Warn("unusable bestmove", "line", out.line, "error", err.Error())
		b.publish(event.NewMoveFailedEvent(p.id, fen, merr))
		return protocol.MoveResult{}, merr
	}

	elapsed := b.clock.Since(p.issued)
	b.logger.WithRequest(p.id).Debug("move computed", "move", result.Move, "elapsed_ms", elapsed.Milliseconds())
	b.publish(event.NewMoveCompletedEvent(p.id, fen, result.Move, result.Ponder, elapsed))
	return result, nil
}

func validateMoveRequest(fen string, timeLimit time.Duration) error {
	if timeLimit <= 0 {
		return errors.NewValidationError("time limit must be positive").WithField("timeLimit").WithValue(timeLimit)
	}
	if timeLimit > MaxTimeLimit {
		return errors.NewValidationError("time limit exceeds 24h").WithField("timeLimit").WithValue(timeLimit)
	}
	if fen == "" {
		return errors.NewValidationError("position is required").WithField("fen")
	}
	return protocol.ValidateCommand(fen)
}

// Handshake sends the dialect's init command followed by isready, and
// waits up to timeout for readyok. Output before readyok, including the
// id lines and uciok, reaches subscribers as notifications.
func (b *Bridge) Handshake(ctx context.Context, timeout time.Duration) error {
	p := newPendingRequest(requestReady, "")
	if timeout <= 0 {
		return errors.NewMoveError(errors.MoveFailed,
			errors.NewValidationError("handshake timeout must be positive").WithField("timeout").WithValue(timeout)).
			WithRequestID(p.id)
	}

	if err := b.issue(p, b.dialect.InitCommand(), protocol.IsReady); err != nil {
		return err
	}
	if _, err := b.await(ctx, p, timeout); err != nil {
		return err
	}

	b.logger.WithRequest(p.id).Debug("handshake complete", "dialect", string(b.dialect))
	return nil
}

// issue claims the pending slot for p and writes commands under one lock
// hold, so the terminal line cannot arrive before the slot is set.
func (b *Bridge) issue(p *pendingRequest, commands ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending != nil {
		return errors.NewMoveError(errors.MoveAlreadyPending, nil).WithRequestID(p.id).WithPosition(p.position)
	}
	if b.writer == nil {
		return errors.NewMoveError(errors.MoveNotRunning, nil).WithRequestID(p.id).WithPosition(p.position)
	}

	b.pending = p
	p.issued = b.clock.Now()
	for _, cmd := range commands {
		if err := b.writeLocked(cmd); err != nil {
			b.pending = nil
			return errors.NewMoveError(errors.MoveFailed, err).WithRequestID(p.id).WithPosition(p.position)
		}
	}
	return nil
}

// await waits for p to resolve, for limit to pass on the bridge clock, or
// for ctx to end.
func (b *Bridge) await(ctx context.Context, p *pendingRequest, limit time.Duration) (outcome, error) {
	timer := b.clock.NewTimer(limit)
	defer timer.Stop()

	var reason error
	select {
	case out := <-p.done:
		return out, out.err
	case <-timer.C():
		reason = errors.NewMoveError(errors.MoveTimeout, nil).WithRequestID(p.id).WithPosition(p.position)
		b.logger.WithRequest(p.id).Warn("request timed out", "kind", p.kind.String(), "limit_ms", limit.Milliseconds())
	case <-ctx.Done():
		reason = errors.NewMoveError(errors.MoveCanceled, ctx.Err()).WithRequestID(p.id).WithPosition(p.position)
	}

	if b.abandon(p) {
		return outcome{}, reason
	}

	// The stream resolved p while we were giving up on it.
	out := <-p.done
	return out, out.err
}

// abandon clears p from the slot if it still holds it. For move requests
// it also tells the engine to stop searching when configured to.
func (b *Bridge) abandon(p *pendingRequest) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending != p {
		return false
	}
	b.pending = nil

	if p.kind == requestMove && b.abortOnTimeout && b.writer != nil {
		if err := b.writeLocked(protocol.Stop); err != nil {
			b.procLog.WithRequest(p.id).Debug("stop not delivered", "error", err.Error())
		}
	}
	return true
}
