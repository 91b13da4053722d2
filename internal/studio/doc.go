// Package studio drives the create flow: generate a program from a
// description, preview it headlessly, ask for fixes while it fails and give
// up after a bounded number of attempts. It also opens shared programs,
// serves the random feed, records moods and shares programs.
//
// Every run is optionally journaled to the local history and reported to
// analytics.
package studio
