package kafka

import (
	"context"
	"hash/fnv"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler must return nil only if processing succeeded and the offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
	logger  *slog.Logger
}

// NewConsumer joins group and reads every topic in topics.
func NewConsumer(brokers []string, group string, topics []string, workers int, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{r: r, workers: workers, logger: logger}
}

// Start dispatches each partition to a single worker, so a partition's
// messages are handled and committed in offset order.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	queues := make([]chan kafka.Message, c.workers)
	errs := make(chan error, c.workers)
	var wg sync.WaitGroup

	for i := range queues {
		queues[i] = make(chan kafka.Message, 1024/c.workers+1)
		wg.Add(1)
		go func(jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				if err := c.handle(ctx, h, m); err != nil {
					select {
					case errs <- err:
					default:
					}
					continue
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			}
		}(queues[i])
	}
	stop := func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case queues[workerFor(m.Topic, m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}

		// non-blocking drain so workers never stall on errs
		select {
		case e := <-errs:
			c.logger.Warn("consumer worker error", "error", e)
			time.Sleep(200 * time.Millisecond)
		default:
		}
	}
}

// workerFor maps a topic partition onto one of n workers.
func workerFor(topic string, partition, n int) int {
	f := fnv.New32a()
	_, _ = f.Write([]byte(topic))
	_, _ = f.Write([]byte(strconv.Itoa(partition)))
	return int(f.Sum32() % uint32(n))
}

// maxAttempts bounds retries of one message. A message that still fails is
// left uncommitted and is skipped once the next offset of its partition commits.
const maxAttempts = 3

func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = h(ctx, m); err == nil {
			return nil
		}
		c.logger.Warn("handler failed", "topic", m.Topic, "offset", m.Offset, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
	return err
}
