// Package plant serves the simulated process over TCP.
//
// A Server owns a process.Engine and runs a single sequential loop with the states
//
//	Listening -> AwaitingClient -> Serving -> (connection error) -> AwaitingClient
//
// While Serving, every cycle advances the engine, sends the encoded sample, and then polls for at most
// one command frame with a short timeout. A timeout on that poll is normal. Write failures, zero-byte
// writes and a closed connection are connection errors: up to MaxRetries consecutive errors are
// tolerated with a backoff between them, one more ends the session and the server waits for the next
// client. Only one client is served at a time; further connection attempts wait in the listen backlog
// until the current session ends.
//
// All socket operations use short deadlines, so the loop observes context cancellation and Close
// promptly.
package plant
