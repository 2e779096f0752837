// Package cli provides the interactive Quest Board command-line client.
//
// It wires configuration, the local session database, the gRPC client and
// an interactive REPL. On start the saved session (if any) is resumed, so a
// user who logged in before does not have to type a password again.
//
// Key features:
//   - Register / Login / Logout with a persisted refresh token
//   - Browse, post, edit and delete quests
//   - Express interest, accept or decline requests
//   - Inbox and per-conversation chat
//   - Profile editing and picture upload
//   - Live views through watch
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
