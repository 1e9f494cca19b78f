package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/storefront_insights/insights"
)

type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	topics   []string
	attrs    []map[string]string
}

func (p *flakyPublisher) publish(ctx context.Context, topic string, obj any, attributes map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.topics = append(p.topics, topic)
	p.attrs = append(p.attrs, attributes)
	if p.calls <= p.failures {
		return "", errors.New("unavailable")
	}
	return "pub-1", nil
}

func newTestNotifier(pub *flakyPublisher, maxAttempts int) *InsightsNotifier {
	n := NewInsightsNotifier("insights-events", nil)
	n.Publish = pub.publish
	n.MaxAttempts = maxAttempts
	n.PollInterval = time.Millisecond
	n.InitialBackoff = time.Millisecond
	n.MaxBackoff = 4 * time.Millisecond
	return n
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInsightsNotifier_RetriesUntilPublished(t *testing.T) {
	pub := &flakyPublisher{failures: 2}
	n := newTestNotifier(pub, 5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.InsightsGenerated(ctx, insights.GeneratedEvent{Fingerprint: "abc", Source: insights.OriginGenerated})

	waitFor(t, func() bool {
		published, _, _, _ := n.Stats()
		return published == 1
	})
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.calls != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", pub.calls)
	}
	if pub.topics[0] != "insights-events" || pub.attrs[0]["fingerprint"] != "abc" || pub.attrs[0]["source"] != "ai" {
		t.Fatalf("unexpected publish call: %v %v", pub.topics[0], pub.attrs[0])
	}
}

func TestInsightsNotifier_GivesUpAfterMaxAttempts(t *testing.T) {
	pub := &flakyPublisher{failures: 100}
	n := newTestNotifier(pub, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	n.InsightsGenerated(ctx, insights.GeneratedEvent{Fingerprint: "abc"})

	waitFor(t, func() bool {
		_, dead, _, _ := n.Stats()
		return dead == 1
	})
	published, _, _, pending := n.Stats()
	if published != 0 || pending != 0 {
		t.Fatalf("expected nothing published or pending, got %d/%d", published, pending)
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.calls != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", pub.calls)
	}
}

func TestInsightsNotifier_DropsWhenQueueFull(t *testing.T) {
	n := NewInsightsNotifier("insights-events", nil)
	n.queue = make(chan InsightsMessage, 1)

	n.InsightsGenerated(context.Background(), insights.GeneratedEvent{Fingerprint: "a"})
	n.InsightsGenerated(context.Background(), insights.GeneratedEvent{Fingerprint: "b"})

	if _, _, dropped, _ := n.Stats(); dropped != 1 {
		t.Fatalf("expected 1 dropped event, got %d", dropped)
	}
}

func TestInsightsNotifier_NoTopicIsNoop(t *testing.T) {
	n := NewInsightsNotifier("", nil)
	n.InsightsGenerated(context.Background(), insights.GeneratedEvent{Fingerprint: "a"})
	if len(n.queue) != 0 {
		t.Fatalf("expected nothing queued without a topic")
	}
}
