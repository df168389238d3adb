// Package lex holds the lexical primitives shared by the template DSL and
// the model DSL: identifier and literal matchers, attribute and tag lists,
// comment handling, word splitting, and a small [Scanner] used by the
// statement parsers to pick apart the remainder of a line.
//
// Regular expressions are used only for single tokens. Anything with
// nesting is handled by the hand-written scanners in the consuming
// packages.
package lex
