// Package client talks to the Quest Board server.
//
// # Overview
//
//  1. Client is the API contract the CLI depends on.
//  2. GRPCClient implements it over gRPC. Requests travel as structpb
//     envelopes (see package api). An interceptor attaches the access token
//     and, when the server reports it expired, refreshes the token pair once
//     and retries the call.
//  3. Uploader PUTs local files to presigned URLs.
//  4. InitDatabase opens the local SQLite file that keeps the session
//     between runs.
//
// # Error Handling
//
// gRPC statuses are mapped onto the sentinel errors in errors.go; the
// server's message is kept so it can be shown to the user verbatim.
package client
