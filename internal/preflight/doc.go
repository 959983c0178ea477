// Package preflight provides readiness checks for the filesystem paths
// mediasort reads from and writes to.
//
// The deps command prints every result; mutating commands call RunAll before
// touching any file and abort when a required path is unusable, so a run
// does not fail file by file on a missing mount.
package preflight
