/*
Package ports defines the driven ports (interfaces) for the surveyflow runtime.

These interfaces decouple the survey runtime from concrete storage and transport,
so the same engine runs in-process, behind HTTP or behind MCP.

# Key Interfaces

  - SurveyLoader: Resolves survey definitions by id (memory, files).
  - SessionStore: Persists respondent session State.
  - DistributedLocker: Serializes access to one session across replicas.
  - Runtime: The session-level operations exposed to adapters.
*/
package ports
