// Package application provides application initialization and dependency wiring.
// It encapsulates the creation of the rewriter, the artifact generator and the
// reporter around one resolved project configuration, making the main package
// cleaner and more focused on CLI parsing and orchestration.
package application
