// Package rewrite performs ordered literal token substitution over fixed
// sets of existing project files.
package rewrite
