package consumer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/adam-vessey/Alpaca/internal/indexer"
	"github.com/adam-vessey/Alpaca/internal/rabbitmq"
)

// Processor takes one message body to a terminal resolution. The
// consumer only acts on the resolution; every failure mode is already
// handled inside the processor.
type Processor interface {
	Name() string
	Queue() string
	Process(ctx context.Context, body []byte) indexer.Resolution
}

// Consumer drains one queue with a configurable number of concurrent
// workers. Messages are independent: workers share nothing but the
// read-only processor and the broker channel, and there is no ordering
// guarantee between them once concurrency exceeds one.
type Consumer struct {
	processor   Processor
	conn        *rabbitmq.Connection
	logger      *zap.Logger
	concurrency int
	prefetch    int
	ctx         context.Context
	cancel      context.CancelFunc
	consumerTag string
	started     atomic.Bool
	workers     sync.WaitGroup
}

// New creates a consumer for the processor's queue.
func New(processor Processor, conn *rabbitmq.Connection, concurrency, prefetch int, logger *zap.Logger) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Consumer{
		processor:   processor,
		conn:        conn,
		logger:      logger.With(zap.String("route", processor.Name())),
		concurrency: concurrency,
		prefetch:    prefetch,
		ctx:         ctx,
		cancel:      cancel,
		consumerTag: fmt.Sprintf("alpaca-%s-%d", processor.Name(), time.Now().Unix()),
	}
}

// Start registers the consumer and launches the workers.
func (c *Consumer) Start() error {
	if c.processor.Queue() == "" {
		return fmt.Errorf("queue is required for route %s", c.processor.Name())
	}

	if err := c.startConsuming(); err != nil {
		return err
	}

	c.started.Store(true)
	c.logger.Info("Consumer started",
		zap.String("queue", c.processor.Queue()),
		zap.String("consumer_tag", c.consumerTag),
		zap.Int("concurrency", c.concurrency),
	)
	return nil
}

func (c *Consumer) startConsuming() error {
	if err := c.conn.SetQoS(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	messages, err := c.conn.ConsumeMessages(
		c.processor.Queue(),
		c.consumerTag,
		false, // autoAck (we ack/nack per resolution)
		false, // exclusive
		false, // noLocal
		false, // noWait
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming from queue %s: %w", c.processor.Queue(), err)
	}

	deliveries := make(chan amqp.Delivery)
	go c.forward(messages, deliveries)
	c.workers.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go c.work(deliveries)
	}

	return nil
}

// Stop drains the consumer gracefully: cancel the broker-side
// registration so no new deliveries arrive, let in-flight messages
// reach a terminal resolution, and only then cancel the context. An
// in-flight message must never observe cancellation mid-dispatch.
func (c *Consumer) Stop() error {
	c.logger.Info("Stopping consumer",
		zap.String("consumer_tag", c.consumerTag),
	)
	c.started.Store(false)

	drained := false
	if ch := c.conn.GetChannel(); ch != nil {
		if err := ch.Cancel(c.consumerTag, false); err != nil {
			c.logger.Error("Failed to cancel consumer",
				zap.String("consumer_tag", c.consumerTag),
				zap.Error(err),
			)
		} else {
			drained = true
		}
	}
	if !drained {
		// No channel to drain through; in-flight handlers resolve
		// interrupted and their messages get redelivered.
		c.cancel()
	}

	c.workers.Wait()
	c.cancel()

	c.logger.Info("Consumer stopped")
	return nil
}

// forward fans the broker deliveries out to the workers. When the
// broker channel closes it shuts the workers down and attempts to
// re-register once the connection has recovered.
func (c *Consumer) forward(messages <-chan amqp.Delivery, deliveries chan<- amqp.Delivery) {
	for {
		select {
		case <-c.ctx.Done():
			close(deliveries)
			return
		case msg, ok := <-messages:
			if !ok {
				close(deliveries)
				if !c.started.Load() {
					// Broker-side cancellation during Stop.
					return
				}
				c.logger.Warn("Message channel closed, attempting to restart consumer...",
					zap.String("queue", c.processor.Queue()),
				)
				c.restart()
				return
			}
			select {
			case deliveries <- msg:
			case <-c.ctx.Done():
				// Unacked delivery; the broker requeues it
				// once the channel goes away.
				close(deliveries)
				return
			}
		}
	}
}

// restart keeps retrying until a fresh consumer is registered or the
// consumer is stopped.
func (c *Consumer) restart() {
	for c.started.Load() {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		time.Sleep(2 * time.Second)

		if !c.conn.IsHealthy() {
			c.logger.Debug("Connection not healthy yet, waiting...",
				zap.String("queue", c.processor.Queue()),
			)
			continue
		}

		if err := c.startConsuming(); err != nil {
			c.logger.Error("Failed to restart consuming after channel close, will retry",
				zap.String("queue", c.processor.Queue()),
				zap.Error(err),
			)
			time.Sleep(5 * time.Second)
			continue
		}

		c.logger.Info("Successfully restarted consumer after channel close",
			zap.String("queue", c.processor.Queue()),
		)
		return
	}
}

func (c *Consumer) work(deliveries <-chan amqp.Delivery) {
	defer c.workers.Done()
	for msg := range deliveries {
		c.handle(msg)
	}
}

// handle resolves one message. Acked and Skipped both acknowledge;
// FatallyFailed rejects without requeue so the broker can dead-letter
// it; Interrupted leaves the message unacked so the broker redelivers
// it after the channel closes. A single message's terminal failure
// never affects the worker.
func (c *Consumer) handle(msg amqp.Delivery) {
	logger := c.logger.With(
		zap.String("queue", c.processor.Queue()),
		zap.Uint64("delivery_tag", msg.DeliveryTag),
	)
	logger.Debug("Received message from queue")

	resolution := c.processor.Process(c.ctx, msg.Body)

	switch resolution {
	case indexer.FatallyFailed:
		if err := msg.Nack(false, false); err != nil {
			logger.Error("Failed to nack message", zap.Error(err))
			return
		}
	case indexer.Interrupted:
		logger.Info("Shutdown before resolution, message left for redelivery")
		return
	default:
		if err := msg.Ack(false); err != nil {
			logger.Error("Failed to ack message", zap.Error(err))
			return
		}
	}

	logger.Info("Message resolved",
		zap.String("resolution", resolution.String()),
	)
}
