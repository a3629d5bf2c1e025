// Package condition evaluates the conditions attached to navigation rules and
// visibility clauses against live answer data.
//
// A condition is a structured rule, a list of rules joined by AND, or a
// free-form expression. Expressions are parsed with a fixed grammar into a small
// tree that only reads from the answer map; anything else evaluates to false
// unless the sandbox fallback is enabled with WithSandboxFallback.
package condition
