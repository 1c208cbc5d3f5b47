// Package controller is the Cast session state machine.
//
// A Controller multiplexes two virtual channels over one TLS transport: the
// device channel ("receiver-0") and, once the receiver reports a running
// application, an application channel addressed to its session id. The
// caller drives everything by calling Loop at a steady cadence:
//
//	c := controller.New(tr, controller.DefaultOptions())
//	if err := c.Connect(ctx, "192.168.1.20"); err != nil {
//	    return err
//	}
//	for range ticker.C {
//	    switch c.Loop() {
//	    case controller.Disconnected:
//	        // reconnect
//	    }
//	}
//
// # Poll Cycle
//
// Each Loop first drains every buffered frame, applying status payloads
// and refreshing channel liveness. Only if nothing arrived does it consider
// sending, and then it sends at most one message, chosen by priority:
//
//  1. the application CONNECT handshake, when a new session was reported
//  2. device GET_STATUS, while no application channel is up
//  3. device PING, when the device channel is due
//  4. media GET_STATUS on the application channel
//  5. application PING
//
// Status requests and pings arm a response window (500ms by default). Any
// inbound frame disarms it. Every window that expires without traffic
// costs one of MaxErrors attempts; when none remain the transport is closed
// and Loop reports Disconnected.
//
// # Commands
//
// Play, Pause, Next, Prev and Seek need a known media session; SetVolume
// and SetMute do not. All commands are refused with castproto.ErrBusy while
// a request is outstanding. Commands do not arm the response window.
//
// # Concurrency
//
// There are no goroutines inside a Controller and no locking. Use
// runner.Runner to share one across goroutines.
package controller
