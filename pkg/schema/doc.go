// Package schema validates survey input at the two points where it enters the
// system.
//
// Survey documents are checked against an embedded JSON Schema before they are
// decoded into the domain model:
//
//	if err := schema.ValidateDocument(data); err != nil {
//	    var docErr *domain.DocumentError
//	    errors.As(err, &docErr) // docErr.Reasons lists every violation
//	}
//
// Answers are checked against the Type implied by the block that asks for them.
// ForBlock maps a block type ("number", "email", "choice", ...) to a Type, and
// ValidateAnswer wraps failures in an *AnswerValidationError:
//
//	if err := schema.ValidateAnswer(block, value); err != nil {
//	    // reject the answer and keep the respondent on the block
//	}
//
// Interactive front ends read raw strings; ParseAnswer converts them into the
// value a block type expects before validation.
package schema
