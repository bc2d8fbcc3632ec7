// Package app runs the bot: one cycle takes the run lock, makes at most one
// scheduled post per hourly window and replies to new mentions. The Scheduler
// repeats cycles in serve mode.
package app
