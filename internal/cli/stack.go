package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/surveyflow"
	"github.com/aretw0/surveyflow/internal/config"
	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/pkg/adapters/file"
	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/adapters/redis"
	"github.com/aretw0/surveyflow/pkg/condition"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/observability"
	"github.com/aretw0/surveyflow/pkg/persistence/middleware"
	"github.com/aretw0/surveyflow/pkg/ports"
	"github.com/aretw0/surveyflow/pkg/session"
)

// Stack holds the shared components every front end is built from.
type Stack struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Evaluator *condition.Evaluator
	Hooks     domain.LifecycleHooks
	Loader    *file.Loader
	Store     ports.SessionStore
	Sessions  *session.Manager

	closers []io.Closer
}

// NewLogger builds the process logger from the log section. Records go to w.
func NewLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(w, level, logging.Format(cfg.Format)), nil
}

// Build wires the store, session manager, evaluator and metrics described by cfg.
// A nil logger writes to stderr at the configured level.
func Build(cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	if logger == nil {
		l, err := NewLogger(cfg.Log, os.Stderr)
		if err != nil {
			return nil, err
		}
		logger = l
	}

	metrics := observability.NewMetrics()
	s := &Stack{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Evaluator: condition.New(
			condition.WithLogger(logger),
			condition.WithSandboxFallback(cfg.Condition.Sandbox),
			condition.WithObserver(metrics.ConditionObserver()),
		),
		Hooks:  observability.ComposeHooks(observability.LoggingHooks(logger), metrics.Hooks()),
		Loader: file.NewLoader(cfg.Surveys.Dir),
	}

	sessionOpts := []session.Option{
		session.WithLockTTL(cfg.Store.LockTTL),
		session.WithLogger(logger),
	}
	switch cfg.Store.Driver {
	case config.StoreMemory:
		s.Store = memory.NewStore()
	case config.StoreFile:
		s.Store = file.NewStore(cfg.Store.Path)
	case config.StoreRedis:
		rc := cfg.Store.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(rc.TTL))
		s.Store = store
		s.closers = append(s.closers, store)
		sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(store.Client(), rc.Prefix)))
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	secured, err := secure(s.Store, cfg.Store)
	if err != nil {
		return nil, err
	}
	s.Store = secured
	s.Sessions = session.NewManager(s.Store, sessionOpts...)

	logger.Debug("Stack Ready", "store", cfg.Store.Driver, "surveys", cfg.Surveys.Dir)
	return s, nil
}

// secure wraps store with answer masking and encryption when configured.
// Answers are masked before the state is sealed.
func secure(store ports.SessionStore, cfg config.StoreConfig) (ports.SessionStore, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskFields) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.MaskFields)
		if err != nil {
			return nil, fmt.Errorf("store.mask_fields: %w", err)
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		enc := middleware.EncryptionConfig{}
		key, err := middleware.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		enc.ActiveKey = key
		for _, k := range cfg.FallbackKeys {
			fallback, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("store.fallback_keys: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, fallback)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(store, mws...), nil
}

// Close releases store connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenEngine builds an engine for source, which is either the path of a survey
// document or the id of a survey in the configured directory.
func (s *Stack) OpenEngine(source string) (*surveyflow.Engine, error) {
	opts := []surveyflow.Option{
		surveyflow.WithEvaluator(s.Evaluator),
		surveyflow.WithLifecycleHooks(s.Hooks),
		surveyflow.WithLogger(s.Logger),
	}
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		return surveyflow.New(source, opts...)
	}
	return surveyflow.New(source, append(opts, surveyflow.WithLoader(s.Loader))...)
}

// OpenSurvey is OpenEngine without the runtime.
func (s *Stack) OpenSurvey(source string) (*domain.Survey, error) {
	eng, err := s.OpenEngine(source)
	if err != nil {
		return nil, err
	}
	return eng.Survey(), nil
}
