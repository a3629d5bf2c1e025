// Package mcp exposes survey tooling to Model Context Protocol clients:
// condition evaluation, navigation resolution, graph export and editing with
// undo, diagnostics, and respondent sessions. Stdio and SSE transports are
// supported.
package mcp
