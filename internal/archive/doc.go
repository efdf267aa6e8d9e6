// Package archive handles the survey package round trip: extract the
// downloaded zip, swap one media file, and zip the tree again.
package archive
