// Package main hosts the mediasort CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the run lock and the
// record store into the ingest scanner and the file organizer. Commands stay
// declarative: behavior lives in the internal packages and is only surfaced
// here through flags and summary tables.
package main
