package indexer

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/adam-vessey/Alpaca/internal/config"
	"github.com/adam-vessey/Alpaca/internal/models"
)

// Resolution is the terminal state of one message. Acked and Skipped
// both acknowledge the message; FatallyFailed rejects it without
// requeue. Interrupted means the process is shutting down before the
// message reached a real verdict: the consumer leaves it unacked so
// the broker redelivers it after the channel closes. Ordering matters:
// higher values are worse, and a fanned-out message resolves to the
// worst of its branches.
type Resolution int

const (
	Acked Resolution = iota
	Skipped
	FatallyFailed
	Interrupted
)

func (r Resolution) String() string {
	switch r {
	case Acked:
		return "acked"
	case Skipped:
		return "skipped"
	case FatallyFailed:
		return "fatally_failed"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// AttemptRecorder receives one audit row per outbound attempt.
type AttemptRecorder interface {
	Record(attempt *models.DispatchAttempt)
}

// Pipeline processes every message of one route: parse the envelope,
// extract addressing data, build the downstream request(s), dispatch
// with retry, and classify each outcome. Pipelines hold no mutable
// state of their own, so one instance serves all workers of a queue.
type Pipeline struct {
	route    Route
	cfg      *config.IndexerConfig
	client   *Client
	recorder AttemptRecorder
	logger   *zap.Logger
	tracer   trace.Tracer
	backoff  func(attempt int) time.Duration
}

// NewPipeline builds the pipeline for one route. recorder may be nil
// when the audit log is disabled.
func NewPipeline(route Route, cfg *config.IndexerConfig, client *Client, recorder AttemptRecorder, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		route:    route,
		cfg:      cfg,
		client:   client,
		recorder: recorder,
		logger:   logger.With(zap.String("route", route.Name)),
		tracer:   otel.Tracer("alpaca/indexer"),
		backoff:  BackoffDelay,
	}
}

// Name identifies the pipeline's route in consumer logs.
func (p *Pipeline) Name() string {
	return p.route.Name
}

// Queue is the queue this pipeline's route drains.
func (p *Pipeline) Queue() string {
	return p.route.Queue
}

// Process takes one raw message body to a terminal resolution. All
// failures are handled here; nothing propagates to the consumer
// beyond the resolution itself.
func (p *Pipeline) Process(ctx context.Context, body []byte) Resolution {
	ctx, span := p.tracer.Start(ctx, p.route.Name)
	defer span.End()

	event, err := models.ParseEvent(body)
	if err != nil {
		// A malformed payload will not become valid on redelivery.
		_, level := Classify(err, p.route.Method)
		p.logger.Log(level, "Failed to parse event envelope, not redelivering",
			zap.Error(err),
		)
		span.RecordError(err)
		return FatallyFailed
	}

	addr, err := p.route.Extract(event)
	if err != nil {
		disposition, level := Classify(err, p.route.Method)
		p.logger.Log(level, "Could not extract addressing data from event",
			zap.String("object_id", event.Object.ID),
			zap.String("disposition", disposition.String()),
			zap.Error(err),
		)
		if disposition == Skip {
			return Skipped
		}
		span.RecordError(err)
		return FatallyFailed
	}

	span.SetAttributes(
		attribute.String("alpaca.resource", addr.Resource()),
		attribute.String("alpaca.fedora_base_url", addr.FedoraBaseURL),
	)

	headers := map[string]string{
		p.cfg.FedoraHeader: addr.FedoraBaseURL,
	}
	if addr.ResourceURL != "" {
		headers["Content-Location"] = addr.ResourceURL
	}

	p.logger.Debug("Dispatching event",
		zap.String("resource", addr.Resource()),
		zap.String("fedora_base_url", addr.FedoraBaseURL),
		zap.Bool("is_new_version", addr.NewVersion),
	)

	primaryURL := p.route.PrimaryURL(p.cfg.MillinerBaseURL, addr)

	if p.route.VersionURL == nil {
		return p.dispatch(ctx, "primary", primaryURL, headers, addr)
	}

	// Fan out. The current-state call and the version call address
	// two distinct downstream resources, so each branch carries its
	// own retry budget and classification; one branch failing never
	// invalidates the other's success.
	var wg sync.WaitGroup
	primaryRes := Acked
	versionRes := Acked

	wg.Add(1)
	go func() {
		defer wg.Done()
		primaryRes = p.dispatch(ctx, "primary", primaryURL, headers, addr)
	}()

	if addr.NewVersion {
		versionURL := p.route.VersionURL(p.cfg.MillinerBaseURL, addr)
		wg.Add(1)
		go func() {
			defer wg.Done()
			versionRes = p.dispatch(ctx, "version", versionURL, headers, addr)
		}()
	} else {
		// Routing decision, not a failure: nothing to record.
		p.logger.Debug("Not a new version, version branch not dispatched",
			zap.String("resource", addr.Resource()),
		)
	}

	wg.Wait()

	if versionRes > primaryRes {
		return versionRes
	}
	return primaryRes
}

// dispatch issues one branch's call, retrying transient failures up
// to the configured redelivery limit. The retry loop and counter are
// local to this branch; no state is shared with other messages.
func (p *Pipeline) dispatch(ctx context.Context, branch, url string, headers map[string]string, addr *Address) Resolution {
	maxAttempts := p.cfg.MaxRedeliveries + 1
	logger := p.logger.With(
		zap.String("branch", branch),
		zap.String("method", p.route.Method),
		zap.String("url", url),
		zap.String("resource", addr.Resource()),
	)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Shutdown is not a downstream verdict. Stop here and leave
		// the message unacked so the broker redelivers it.
		if ctx.Err() != nil {
			logger.Info("Shutdown in progress, leaving message for redelivery",
				zap.Int("attempt", attempt),
			)
			return Interrupted
		}
		if attempt > 1 {
			timer := time.NewTimer(p.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				logger.Info("Shutdown during retry backoff, leaving message for redelivery",
					zap.Int("attempt", attempt),
				)
				return Interrupted
			case <-timer.C:
			}
		}

		startedAt := time.Now()
		result := p.client.Call(ctx, p.route.Method, url, headers)
		disposition, level := Classify(result.Err, p.route.Method)
		p.record(addr, url, attempt, startedAt, result, disposition)

		switch disposition {
		case Success:
			logger.Debug("Dispatched successfully",
				zap.Int("attempt", attempt),
				zap.Int("latency_ms", result.LatencyMs),
			)
			return Acked
		case Skip:
			logger.Log(level, "Skipping dispatch",
				zap.Int("attempt", attempt),
				zap.Error(result.Err),
			)
			return Skipped
		case Fatal:
			logger.Log(level, "Dispatch failed terminally, not retrying",
				zap.Int("attempt", attempt),
				zap.Error(result.Err),
			)
			return FatallyFailed
		default:
			if ctx.Err() != nil {
				logger.Info("Call aborted by shutdown, leaving message for redelivery",
					zap.Int("attempt", attempt),
				)
				return Interrupted
			}
			lastErr = result.Err
			logger.Log(level, "Dispatch failed, will retry",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(result.Err),
			)
		}
	}

	exhausted := &RetriesExhaustedError{Attempts: maxAttempts, Last: lastErr}
	logger.Error("Redelivery budget exhausted, giving up on dispatch",
		zap.Int("attempts", maxAttempts),
		zap.Error(exhausted),
		zap.Stack("trace"),
	)
	return FatallyFailed
}

func (p *Pipeline) record(addr *Address, url string, attempt int, startedAt time.Time, result *CallResult, disposition Disposition) {
	if p.recorder == nil {
		return
	}

	row := &models.DispatchAttempt{
		Route:       p.route.Name,
		Queue:       p.route.Queue,
		ResourceID:  addr.Resource(),
		Method:      p.route.Method,
		URL:         url,
		AttemptNo:   attempt,
		HTTPStatus:  result.HTTPStatus,
		LatencyMs:   result.LatencyMs,
		Disposition: disposition.String(),
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	}
	if result.Err != nil {
		message := result.Err.Error()
		row.LastError = &message
	}

	p.recorder.Record(row)
}
