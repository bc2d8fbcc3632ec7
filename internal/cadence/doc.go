// Package cadence decides whether the bot may publish a new post.
//
// Posting is limited to one post per hourly window inside the active hours.
// The last window that received a post is persisted as a marker of the form
// YYYY-MM-DD_hour_H. Gate is pure; MarkerStore reads and writes the marker
// through a domain.StateStore.
package cadence
