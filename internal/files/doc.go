// Package files wraps the file system operations of the refresh job: copying
// the pull data CSV into the extracted survey, deleting temporary archives and
// folders, and reporting sizes. Every mutating call is logged.
package files
