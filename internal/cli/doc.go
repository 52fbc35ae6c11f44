// Package cli parses command-line arguments, merges them with the optional
// settings file and handles process-level concerns like exit codes.
package cli
