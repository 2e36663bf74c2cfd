// Package bridge connects a host program to a UCI or UCCI engine running as
// a child process.
//
// A Bridge owns at most one engine process. Commands are written to the
// engine's stdin one line at a time under a mutex. A dedicated goroutine
// reads stdout, hands terminal lines to the single pending synchronous
// request, and fans every other line out to subscribers as OutputEvents.
//
// Subscriber queues are bounded and drop the oldest event on overflow, so a
// slow consumer never stalls the engine. Subscriptions survive restarts;
// events carry the generation of the process that produced them.
//
// The process layer and the clock are injected, so tests substitute
// an in-memory engine and a fake clock for a real executable and timers.
//
// Lifecycle:
//
//	b := bridge.New(bridge.WithLogger(logger))
//	sub := b.Subscribe()
//	b.Start(ctx, "/usr/local/bin/pikafish")
//	b.Handshake(ctx, 5*time.Second)
//	res, err := b.RequestMove(ctx, fen, time.Second)
//	b.Stop()
package bridge
