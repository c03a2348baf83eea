// Package lines maps program addresses to source positions.
//
// A Table is a sorted set of half-open address ranges, each carrying the
// file, line and column of the line-number program row that starts it.
package lines
