package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/mmdatafocus/storefront_insights/insights"
	"github.com/sirupsen/logrus"
)

const EventInsightsGenerated = "insights.generated"

// PublishFunc publishes obj as JSON to topic and returns the server message id.
type PublishFunc func(ctx context.Context, topic string, obj any, attributes map[string]string) (string, error)

// InsightsMessage is the payload published for every fresh generation.
type InsightsMessage struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	OccurredAt time.Time               `json:"occurred_at"`
	Event      insights.GeneratedEvent `json:"event"`
}

type pendingMessage struct {
	msg           InsightsMessage
	attempts      int
	nextAttemptAt time.Time
}

// InsightsNotifier queues generation events in memory and publishes them from Run.
// Failed publishes are retried with exponential backoff until MaxAttempts; nothing survives a restart.
type InsightsNotifier struct {
	Topic      string
	Logger     *logrus.Logger
	NotifierID string
	Publish    PublishFunc

	MaxAttempts    int
	PollInterval   time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	queue chan InsightsMessage

	mu        sync.Mutex
	retry     []pendingMessage
	published int
	dead      int
	dropped   int
}

func NewInsightsNotifier(topic string, logger *logrus.Logger) *InsightsNotifier {
	return &InsightsNotifier{
		Topic:          topic,
		Logger:         logger,
		NotifierID:     uuid.NewString(),
		Publish:        config.PublishJSON,
		MaxAttempts:    8,
		PollInterval:   500 * time.Millisecond,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     5 * time.Minute,
		queue:          make(chan InsightsMessage, 64),
	}
}

// InsightsGenerated enqueues the event without blocking. A full queue drops it.
func (n *InsightsNotifier) InsightsGenerated(ctx context.Context, event insights.GeneratedEvent) {
	if n == nil || n.Topic == "" {
		return
	}
	msg := InsightsMessage{
		ID:         uuid.NewString(),
		Type:       EventInsightsGenerated,
		OccurredAt: time.Now().UTC(),
		Event:      event,
	}
	select {
	case n.queue <- msg:
	default:
		n.mu.Lock()
		n.dropped++
		n.mu.Unlock()
		n.log().WithFields(logrus.Fields{
			"field":       "InsightsNotifier",
			"fingerprint": event.Fingerprint,
		}).Warn("notifier queue full; dropping insights event")
	}
}

func (n *InsightsNotifier) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.queue:
			n.publishOne(ctx, pendingMessage{msg: msg})
		case <-time.After(n.PollInterval):
		}
		n.dispatchRetries(ctx)
	}
}

// Stats reports how many messages were published, given up on, or dropped, and how many wait for a retry.
func (n *InsightsNotifier) Stats() (published, dead, dropped, pending int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.published, n.dead, n.dropped, len(n.retry)
}

func (n *InsightsNotifier) dispatchRetries(ctx context.Context) {
	now := time.Now()
	n.mu.Lock()
	var due []pendingMessage
	keep := n.retry[:0]
	for _, p := range n.retry {
		if !p.nextAttemptAt.After(now) {
			due = append(due, p)
		} else {
			keep = append(keep, p)
		}
	}
	n.retry = keep
	n.mu.Unlock()

	for _, p := range due {
		n.publishOne(ctx, p)
	}
}

func (n *InsightsNotifier) publishOne(ctx context.Context, p pendingMessage) {
	p.attempts++
	attributes := map[string]string{
		"event":       p.msg.Type,
		"source":      string(p.msg.Event.Source),
		"fingerprint": p.msg.Event.Fingerprint,
		"notifier_id": n.NotifierID,
	}
	pubID, err := n.Publish(ctx, n.Topic, p.msg, attributes)
	if err == nil {
		n.mu.Lock()
		n.published++
		n.mu.Unlock()
		n.log().WithFields(logrus.Fields{
			"field":        "InsightsNotifier",
			"message_id":   p.msg.ID,
			"pubsub_id":    pubID,
			"attempt":      p.attempts,
			"event_source": p.msg.Event.Source,
		}).Info("insights event published")
		return
	}

	// Terminal after MaxAttempts.
	if n.MaxAttempts > 0 && p.attempts >= n.MaxAttempts {
		n.mu.Lock()
		n.dead++
		n.mu.Unlock()
		n.log().WithFields(logrus.Fields{
			"field":      "InsightsNotifier",
			"message_id": p.msg.ID,
			"attempt":    p.attempts,
		}).Error("insights event dropped after max attempts: " + fmt.Sprintf("%v", err))
		return
	}

	backoff := n.InitialBackoff
	for i := 1; i < p.attempts; i++ {
		backoff *= 2
		if n.MaxBackoff > 0 && backoff > n.MaxBackoff {
			backoff = n.MaxBackoff
			break
		}
	}
	p.nextAttemptAt = time.Now().Add(backoff)
	n.mu.Lock()
	n.retry = append(n.retry, p)
	n.mu.Unlock()

	n.log().WithFields(logrus.Fields{
		"field":           "InsightsNotifier",
		"message_id":      p.msg.ID,
		"attempt":         p.attempts,
		"next_attempt_at": p.nextAttemptAt.UTC().Format(time.RFC3339Nano),
	}).Warn("insights event publish failed: " + fmt.Sprintf("%v", err))
}

func (n *InsightsNotifier) log() *logrus.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return config.GetLogger()
}
