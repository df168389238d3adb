// Package lines provides the line-oriented cursor both DSLs are parsed
// with.
//
// A [Cursor] owns the lines of one source unit (a file or an inline
// string) and a position. [Cursor.Parse] drives a block body: it skips
// blank and comment lines, splits each remaining line into words, stops
// in front of the expected end keyword and hands every other line to a
// handler together with its [PInfo].
//
// [Normalize] rewrites the pipe-indented logic DSL into the flat
// statement form so that a single statement parser serves both.
package lines
