// Package notify emails the completion notice after a survey refresh.
//
// Messages are built and sent with github.com/wneessen/go-mail. Each recipient
// gets an individual message; sends are paced by a rate limiter so that relays
// with per-second quotas accept the whole batch.
package notify
