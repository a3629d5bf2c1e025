/*
Package surveyflow is a conditional-navigation engine for form and survey
builders.

A survey is a tree of pages ("sets") holding blocks. Each block may carry
ordered navigation rules: a condition over the respondent's answers and a
target (another block, a page, or submit). surveyflow evaluates those rules at
runtime and turns the same survey into a directed flow graph for visual
editing.

# Packages

  - pkg/condition: evaluates structured rules and string expressions over answers.
  - pkg/navigation: resolves a rule list to a destination, first match wins.
  - pkg/flow: converts between the survey tree and the flow graph, edits rule
    edges, finds cycles and reports inconsistencies.
  - pkg/layout: places graph nodes in ranks without overlap.
  - pkg/history: bounded undo/redo of graph snapshots.
  - pkg/session, pkg/adapters: session persistence (memory, file, Redis).

# Usage

	eng, err := surveyflow.New("./surveys/onboarding.yaml")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, err := eng.Start(ctx, "session-123")
	if err != nil {
		log.Fatal(err)
	}

	// Answer -> Navigate until submitted
	state, err = eng.Answer(ctx, state, 16)
	state, err = eng.Navigate(ctx, state)

The Engine never mutates the State it receives, so states can be stored, compared
and replayed freely.
*/
package surveyflow
