// Package commands implements CLI command handlers for hostgate.
//
// Every command implements Runner:
//   - Init(): parse flags, load and validate configuration
//   - Run(): execute
//   - Name(): subcommand name used for dispatch
//
// Available commands:
//   - serve: run the HTTP server until a signal arrives or GET /stop is called
//   - check-config: validate the configuration and optionally print it
//   - routes: print the route table in resolution order
package commands
