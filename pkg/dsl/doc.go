/*
Package dsl provides a fluent Go builder for surveys.

It is an alternative to JSON or YAML documents for tests, fixtures and surveys
generated at runtime:

	s, err := dsl.New("onboarding").
		Page("about").Name("About you").
		Question("age", "number", "age").Label("How old are you?").
		BranchPage("age < 18", "guardian").
		Otherwise("job").
		Question("job", "text", "job").
		Page().End().
		Page("guardian").
		Question("guardian-name", "text", "guardian").
		Submit().
		Page().End().
		Build()

Malformed rule expressions are collected and returned by Build.
*/
package dsl
