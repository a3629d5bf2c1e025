/*
Package domain contains the core models shared by every surveyflow component.

It defines the authored survey (a Survey arena of Pages and Blocks addressed by id),
the navigation rules attached to blocks, the flow graph used by the visual editor and
the runtime session State. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Survey: The root section. Owns pages and blocks; child links are ids.
  - NavigationRule: A Condition plus a destination (block, page or submit).
  - Condition: An expression string, a structured rule, or a list of rules (AND).
  - FlowGraph: The explicit node/edge view derived from a Survey.
  - State: Captures the runtime snapshot of a session (Current Block, Answers, History).
*/
package domain
