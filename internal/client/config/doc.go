// Package config loads runtime configuration for the Quest Board CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, optionally from a .env file:
//     QB_SERVER_ADDR, QB_SESSION_DB, QB_REQUEST_TIMEOUT, QB_EMAIL_DOMAIN.
//  3. JSON file selected with -c or -config.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string   address:port of the gRPC endpoint
//	-db string  path of the local session database
//	-t int      per-request timeout (seconds)
//	-m string   email domain accepted at registration
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "session_db_path": "questboard.db",
//	  "request_timeout": "10s",
//	  "email_domain": "ustp.edu.ph"
//	}
package config
