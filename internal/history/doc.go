// Package history records local sandbox runs in SQLite.
//
// Every program the studio or the CLI runs is stored with its outcome,
// the error messages it produced and a whitespace-normalized digest of
// its source, so repeated runs of the same program can be found again.
package history
