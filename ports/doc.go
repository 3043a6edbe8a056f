// Package ports defines the external interfaces a caller of this module
// implements or consumes: ExecutableFactory (the loader contract), a
// visitor-style result walk, and the error-kind taxonomy from spec §7.
//
// See loader.go for ExecutableFactory/ResultVisitor/Walk and errors.go for
// the ErrorKind/Warning shapes.
package ports
