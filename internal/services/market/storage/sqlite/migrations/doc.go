// Package migrations embeds the SQLite schema for the marketplace journal.
package migrations
