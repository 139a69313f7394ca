// Package batch runs one function over a list of items with bounded
// concurrency, keeping results in input order and reporting progress after
// each item. Item failures are collected rather than cancelling the run; only
// context cancellation stops it early.
package batch
