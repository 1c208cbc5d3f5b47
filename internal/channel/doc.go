// Package channel models one logical Cast conversation (a "virtual
// channel") over the shared device connection.
//
// The controller keeps two channels: one addressed to the device itself
// ("receiver-0") and one addressed to the running application's transport
// id. Each tracks its own keepalive clock. Status is never stored; it is
// derived on every call from the connected latch, the transport and the
// idle time:
//
//	idle > 3 × ping interval  Disconnected (latch cleared)
//	idle > ping interval      NeedsPing
//	otherwise                 Connected
//
// Channels do not own the transport. They send through a Link supplied by
// the controller, which holds the single write buffer.
package channel
