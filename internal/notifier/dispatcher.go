package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/exposure-watch/internal/circuitbreaker"
	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/metrics"
	"github.com/jonesrussell/exposure-watch/internal/record"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency     = 4
	defaultBreakerFailures = 3
	defaultBreakerTimeout  = 10 * time.Minute
)

// Config configures a Dispatcher.
type Config struct {
	// Concurrency is the number of targets delivered to at once.
	Concurrency int
	// BreakerFailures is the consecutive failed notifications that open a target's circuit.
	BreakerFailures int
	// BreakerTimeout is how long an open target is skipped.
	BreakerTimeout time.Duration
}

// DefaultConfig returns the default dispatcher settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:     defaultConcurrency,
		BreakerFailures: defaultBreakerFailures,
		BreakerTimeout:  defaultBreakerTimeout,
	}
}

func (c *Config) setDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.BreakerFailures <= 0 {
		c.BreakerFailures = defaultBreakerFailures
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = defaultBreakerTimeout
	}
}

// Dispatcher implements Notifier by sending every record to every target
// from a TargetSource. Targets are served concurrently; records for one
// target are sent sequentially in order. Each target has its own circuit
// breaker so an unreachable target does not slow every check.
type Dispatcher struct {
	source  TargetSource
	sender  Sender
	config  Config
	log     logger.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	breakers map[Target]*circuitbreaker.Breaker
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(source TargetSource, sender Sender, cfg Config, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	cfg.setDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	return &Dispatcher{
		source:   source,
		sender:   sender,
		config:   cfg,
		log:      log.With(logger.Component("notifier")),
		metrics:  m,
		breakers: make(map[Target]*circuitbreaker.Breaker),
		now:      time.Now,
	}
}

// WithClock replaces the time source used by target circuit breakers.
// It must be called before the first Notify.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Notify delivers records to all current targets. It returns the joined
// per-target errors; a failing target never prevents delivery to others.
func (d *Dispatcher) Notify(ctx context.Context, records []record.Record) error {
	if len(records) == 0 {
		return nil
	}

	targets, err := d.source.Targets(ctx)
	if err != nil {
		return fmt.Errorf("list targets: %w", err)
	}
	targets = uniqueTargets(targets)

	if len(targets) == 0 {
		d.log.Info("No notification targets registered", logger.Int("records", len(records)))
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(d.config.Concurrency)

	for _, target := range targets {
		g.Go(func() error {
			if deliverErr := d.deliver(ctx, target, records); deliverErr != nil {
				mu.Lock()
				errs = append(errs, deliverErr)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	d.log.Debug("Notification round finished",
		logger.Int("targets", len(targets)),
		logger.Int("records", len(records)),
		logger.Int("failed_targets", len(errs)),
	)

	return errors.Join(errs...)
}

func (d *Dispatcher) deliver(ctx context.Context, target Target, records []record.Record) error {
	key := target.Key()

	err := d.breakerFor(target).Execute(ctx, func(ctx context.Context) error {
		var errs []error
		for _, r := range records {
			if ctxErr := ctx.Err(); ctxErr != nil {
				errs = append(errs, ctxErr)
				break
			}
			if sendErr := d.sender.Send(ctx, target, r); sendErr != nil {
				d.metrics.RecordDelivery(metrics.DeliveryFailed)
				errs = append(errs, fmt.Errorf("record %s: %w", r.Hash(), sendErr))
				continue
			}
			d.metrics.RecordDelivery(metrics.DeliverySent)
		}
		return errors.Join(errs...)
	})

	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		for range records {
			d.metrics.RecordDelivery(metrics.DeliverySkipped)
		}
		d.log.Warn("Skipping target with open circuit",
			logger.String("target", key),
			logger.Int("records", len(records)),
		)
		return fmt.Errorf("target %s: %w", key, err)
	case err != nil:
		d.log.Error("Failed to notify target", logger.String("target", key), logger.Error(err))
		return fmt.Errorf("target %s: %w", key, err)
	default:
		return nil
	}
}

func (d *Dispatcher) breakerFor(target Target) *circuitbreaker.Breaker {
	d.mu.Lock()
	defer d.mu.Unlock()

	if b, ok := d.breakers[target]; ok {
		return b
	}

	key := target.Key()

	b := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: d.config.BreakerFailures,
		SuccessThreshold: 1,
		Timeout:          d.config.BreakerTimeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			d.metrics.SetCircuitBreakerState(key, int(to))
			d.log.Info("Target circuit state changed",
				logger.String("target", key),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	}).WithClock(d.now)
	d.breakers[target] = b

	return b
}

// BreakerState returns the circuit state for target.
func (d *Dispatcher) BreakerState(target Target) circuitbreaker.State {
	d.mu.Lock()
	b, ok := d.breakers[target]
	d.mu.Unlock()

	if !ok {
		return circuitbreaker.StateClosed
	}
	return b.State()
}

func uniqueTargets(targets []Target) []Target {
	seen := make(map[Target]struct{}, len(targets))
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
