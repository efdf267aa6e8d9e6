// Package pullupdate runs the survey pull data refresh.
//
// A run is a fixed sequence of steps:
//
//	load -> clean -> write -> sign_in -> download -> repackage -> upload -> cleanup -> notify
//
// Each step gets its own span, a duration sample and start/finish log
// records. The first failing step ends the run; nothing is rolled back and
// the downloaded or rebuilt packages stay on disk. Clean runs the first three
// steps only, Publish runs sign_in through cleanup against the CSV already on
// disk.
package pullupdate
