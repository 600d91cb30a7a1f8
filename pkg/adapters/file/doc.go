// Package file provides the filesystem side of a compile run: a sink stage
// writing instruction text to any io.Writer, and a loader for layer geometry files.
package file
