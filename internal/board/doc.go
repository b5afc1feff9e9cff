// Package board derives display data from raw feedback-board records: week
// windows, vote tallies, comment threads, rankings and tag popularity.
//
// Everything here is pure and synchronous. Fetching and writing belong to the
// store package.
package board
