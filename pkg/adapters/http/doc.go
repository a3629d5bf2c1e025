// Package http serves surveyflow over HTTP with chi: condition evaluation,
// navigation resolution, tree and graph transforms, a stateful graph editor
// with undo, and survey sessions with server-sent diffs.
package http
