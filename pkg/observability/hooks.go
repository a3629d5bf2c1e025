package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/surveyflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, submissions at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBlockEnter: func(ctx context.Context, e *domain.BlockEvent) {
			logger.DebugContext(ctx, "block_enter", "session_id", e.SessionID, "block_id", e.BlockID, "page_id", e.PageID)
		},
		OnBlockLeave: func(ctx context.Context, e *domain.BlockEvent) {
			logger.DebugContext(ctx, "block_leave", "session_id", e.SessionID, "block_id", e.BlockID, "page_id", e.PageID)
		},
		OnNavigate: func(ctx context.Context, e *domain.NavigationEvent) {
			logger.DebugContext(ctx, "navigate",
				"session_id", e.SessionID,
				"from", e.FromBlockID,
				"kind", e.Destination.Kind,
				"target", e.Destination.Target,
				"sequential", e.Sequential,
			)
		},
		OnSubmit: func(ctx context.Context, e *domain.EventBase) {
			logger.InfoContext(ctx, "submit", "session_id", e.SessionID)
		},
	}
}

// ComposeHooks returns hooks that call each set in order. Nil callbacks are skipped.
func ComposeHooks(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBlockEnter: func(ctx context.Context, e *domain.BlockEvent) {
			for _, s := range sets {
				if s.OnBlockEnter != nil {
					s.OnBlockEnter(ctx, e)
				}
			}
		},
		OnBlockLeave: func(ctx context.Context, e *domain.BlockEvent) {
			for _, s := range sets {
				if s.OnBlockLeave != nil {
					s.OnBlockLeave(ctx, e)
				}
			}
		},
		OnNavigate: func(ctx context.Context, e *domain.NavigationEvent) {
			for _, s := range sets {
				if s.OnNavigate != nil {
					s.OnNavigate(ctx, e)
				}
			}
		},
		OnSubmit: func(ctx context.Context, e *domain.EventBase) {
			for _, s := range sets {
				if s.OnSubmit != nil {
					s.OnSubmit(ctx, e)
				}
			}
		},
	}
}
