// Package tui holds terminal presentation helpers: the banner, markdown
// rendering through glamour and markdown reports for flow diagnostics.
package tui
