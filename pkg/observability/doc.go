/*
Package observability connects the survey runtime to logs and Prometheus.

Metrics owns a private registry with counters and histograms for navigation,
condition evaluation, layout and HTTP traffic. Its Hooks and ConditionObserver
methods plug into the runtime and the condition evaluator. LoggingHooks turns
lifecycle events into structured slog records, and ComposeHooks fans one event
out to several hook sets.
*/
package observability
