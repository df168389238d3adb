// Package soup implements the template and script engine.
//
// A template is line oriented. Lines starting with ':' are statements,
// every other line is content:
//
//	:for e in entities
//	class {{ e.name | pascal-case }} {
//	:if e.abstract : // abstract
//	}
//	:end-for
//
// Content lines interpolate print expressions ({{ expr | modifier }}) and
// inline calls (={{ fn(args) }}=, with all whitespace removed from the
// result). A content line that renders to whitespace only is dropped
// together with its newline.
//
// Scripts use the pipe-depth logic syntax and are normalized into the
// statement form before parsing:
//
//	set total = 0
//	|> for n in numbers
//	| set total = total + n
//
// Templates are parsed into a tree of [Stmt] values once and executed by a
// [Sandbox], which owns the variable [Scope], the [Registry] of modifiers
// and operators, and the declared functions. Side effects are delegated
// to a [Host].
package soup
