// Package runtime drives a respondent through a survey: it validates answers,
// resolves navigation rules, skips hidden blocks and emits lifecycle events.
package runtime
