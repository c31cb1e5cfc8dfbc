// Package commands defines the weather-companion CLI.
//
// Commands
//
//   - serve       Run the HTTP API and the background refresh scheduler
//   - search      Look a place up by name in English and Finnish
//   - reverse     Name the place at a coordinate
//   - weather     Show current, hourly and daily weather
//   - favorites   List, add, remove and reorder saved locations
//   - settings    Show or change preferences
//
// # Implementation
//
// The root command loads configuration from the environment (and .env),
// sets up logging and opens the application before any subcommand runs, so
// every handler works against the same stores and provider clients.
package commands
