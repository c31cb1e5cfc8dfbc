// Package app wires application dependencies for the HTTP server and the CLI.
//
// Open builds the stores, provider clients and services from config and
// returns an App whose methods are the use cases both front ends expose:
// place search, reverse geocoding, weather lookups, favorites and settings.
package app
