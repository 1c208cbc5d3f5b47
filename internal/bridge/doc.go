// Package bridge serves a runner over HTTP so other programs on the LAN
// can watch and control the receiver.
//
// # Endpoints
//
//	GET  /status            latest snapshot as JSON
//	POST /commands/{name}   play, pause, next, prev, seek, volume, mute
//	GET  /ws                WebSocket stream, one JSON text message per change
//	GET  /metrics           Prometheus exposition
//
// Command bodies are optional JSON objects:
//
//	{"relative": true, "value": 10}    // seek +10s, or volume +10 (clamped)
//	{"toggle": true}                   // pause or mute toggle
//	{"mute": false}                    // unmute
//
// Command results map to status codes: 202 accepted, 400 unknown command or
// bad body, 409 busy, 422 no active media, 429 rate limited, 503 transport
// unavailable, 504 timed out. Command endpoints are rate limited per client
// IP.
//
// Serve shuts down gracefully on context cancellation, SIGINT or SIGTERM,
// closing every open stream with a going-away close frame.
package bridge
