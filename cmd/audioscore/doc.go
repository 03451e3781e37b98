// Package main hosts the audioscore CLI entrypoint and command graph.
//
// "analyze" runs the pipeline against a local file, "serve" exposes it over
// HTTP with Prometheus metrics, "doctor" runs preflight checks, and "config"
// scaffolds and prints configuration. Configuration resolution and logger
// setup live here so the commands stay thin; the work itself happens in the
// internal packages.
package main
