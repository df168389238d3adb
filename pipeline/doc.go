// Package pipeline generates source trees from domain models.
//
// A [Pipeline] runs five passes in order:
//
//   - discover finds model files below the working directory
//   - load parses them into one [model.Model]
//   - hydrate resolves references between entities
//   - render runs the blueprint once per container, each in its own
//     sandbox, concurrently
//   - persist writes the files of every container that rendered without
//     error
//
// Application state is checked before any output is attempted, and a
// container that fails to render never leaves files behind.
package pipeline
