// Package runner shares one controller.Controller between goroutines.
//
// A Runner is the poll supervisor: its Run method is the only code that
// touches the controller. It calls Loop on a ticker, reconnects with
// exponential backoff when the session is lost, and publishes a
// controller.Snapshot to subscribers whenever the state changes.
//
//	r := runner.New(controller.New(tr, opts), runner.Config{Host: "192.168.1.20"})
//	go r.Run(ctx)
//
//	_, updates, cancel := r.Subscribe()
//	defer cancel()
//
//	cmd, _ := runner.ParseCommand("volume", "+5%")
//	if err := r.Do(ctx, cmd); castproto.IsNoActiveMedia(err) {
//	    // nothing is playing
//	}
//
// Exec is the one-shot variant used by the CLI: it connects, waits until a
// single command can be issued, issues it and returns the resulting state.
package runner
