// Package bot wires the runtime together: config, logger, rate limiter, API
// client, handler registry, bounded event queue, long-poll loop and worker
// pool. One Bot owns one long-poll session.
package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vkgram/pkg/cache"
	"vkgram/pkg/config"
	"vkgram/pkg/filters"
	"vkgram/pkg/handlers"
	"vkgram/pkg/logger"
	"vkgram/pkg/longpoll"
	"vkgram/pkg/ratelimit"
	"vkgram/pkg/types"
	"vkgram/pkg/vkapi"
)

const component = "bot"

const userCacheTTL = 5 * time.Minute

type Bot struct {
	cfg        *config.Config
	log        *logger.Logger
	api        *vkapi.Client
	registry   *handlers.Registry
	dispatcher *handlers.Dispatcher
	queue      chan types.Event
	poller     *longpoll.Poller
	users      *cache.Cache

	mu      sync.Mutex
	running bool
}

func New(cfg *config.Config) (*Bot, error) {
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	log := logger.New(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.Enabled {
		path := filepath.Join(cfg.Logging.Dir, cfg.Logging.Filename)
		if err := log.EnableFile(path, cfg.Logging.MaxSizeMB, cfg.Logging.RetentionDays); err != nil {
			return nil, fmt.Errorf("failed to enable file logging: %w", err)
		}
	}

	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimitPeriod())
	api := vkapi.NewClient(cfg.Token, cfg.APIVersion, cfg.APIBase, cfg.APITimeout(), cfg.API.MaxRateLimitRetries, limiter, log)

	registry := handlers.NewRegistry()
	queue := make(chan types.Event, cfg.QueueSize)
	poller := longpoll.New(api, cfg.GroupID, cfg.LongPoll.WaitSec, cfg.LongPollRetryDelay(), queue, log)

	return &Bot{
		cfg:        cfg,
		log:        log,
		api:        api,
		registry:   registry,
		dispatcher: handlers.NewDispatcher(registry, log),
		queue:      queue,
		poller:     poller,
		users:      cache.New(userCacheTTL),
	}, nil
}

// API exposes the outbound client for use inside handlers.
func (b *Bot) API() *vkapi.Client {
	return b.api
}

func (b *Bot) Logger() *logger.Logger {
	return b.log
}

// OnMessage binds a callback to incoming messages gated by the given
// filters. All registration must happen before Run.
func (b *Bot) OnMessage(cb handlers.Callback, fs ...filters.Filter) error {
	return b.registry.RegisterMessage(fs, cb)
}

// OnEvent binds a callback to generic updates of the given type.
func (b *Bot) OnEvent(eventType string, cb handlers.Callback, fs ...filters.Filter) error {
	return b.registry.RegisterEvent(eventType, fs, cb)
}

// SendText posts a plain text message to the peer.
func (b *Bot) SendText(ctx context.Context, peerID int64, text string) error {
	_, err := b.api.SendMessage(ctx, peerID, text, nil)
	return err
}

// Run freezes handler registration, negotiates the long-poll session (fatal
// on failure) and runs the poll loop plus the worker pool until ctx is
// cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bot already running")
	}
	b.running = true
	b.mu.Unlock()

	b.registry.Freeze()

	if err := b.poller.Start(ctx); err != nil {
		return err
	}

	b.log.InfoF(component, "Bot started", map[string]interface{}{
		"workers":    b.cfg.Workers,
		"queue_size": b.cfg.QueueSize,
		"handlers":   b.registry.Len(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.poller.Run(gctx)
	})
	for i := 0; i < b.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			return b.runWorker(gctx, worker)
		})
	}

	err := g.Wait()

	if dropped := b.poller.Dropped(); dropped > 0 {
		b.log.WarnF(component, "Events dropped during run", map[string]interface{}{
			"dropped": dropped,
		})
	}
	b.log.Info(component, "Bot stopped")
	return err
}

// runWorker drains the queue into the dispatcher. On cancellation the
// in-flight dispatch finishes and no further events are pulled.
func (b *Bot) runWorker(ctx context.Context, id int) error {
	for {
		select {
		case <-ctx.Done():
			b.log.DebugF(component, "Worker stopped", map[string]interface{}{
				logger.FieldWorker: id,
			})
			return nil
		case event, ok := <-b.queue:
			if !ok {
				return nil
			}
			b.dispatcher.Dispatch(ctx, event)
		}
	}
}
