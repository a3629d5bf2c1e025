// Package flow converts a survey tree into an explicit flow graph and back, applies
// visual edits to both sides, and reports structural problems such as cycles.
//
// The graph is a derived view. Conditional edges mirror navigation rules one to
// one; every other edge kind is structural and carries no rule.
package flow
