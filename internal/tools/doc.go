// Package tools provides the process and filesystem capabilities the
// workflow operations run through.
//
// Ownership boundary:
// - external command execution (real and dry-run)
//
// - recursive path removal (real and dry-run)
package tools
