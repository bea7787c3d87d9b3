package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	mqcontracts "weddingtimeline/contracts/mq"
	"weddingtimeline/internal/timeline"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	msgs []any
	err  error
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	p.msgs = append(p.msgs, payload)
	return nil
}

func TestDispatcher_Notify(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, nil, zap.NewNop())

	if err := d.Notify(context.Background(), "client-1", "11-months-out-set-the-overall-wedding-budget", ChannelPush); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(pub.keys) != 1 || pub.keys[0] != mqcontracts.RoutingNotificationRequested {
		t.Fatalf("published keys = %v", pub.keys)
	}
	p, ok := pub.msgs[0].(mqcontracts.NotificationRequestedPayload)
	if !ok {
		t.Fatalf("payload type = %T", pub.msgs[0])
	}
	if p.ClientID != "client-1" || p.Channel != ChannelPush {
		t.Fatalf("payload = %+v", p)
	}
}

func TestDispatcher_FailureIsDependencyError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Hour, HalfOpenMaxRequests: 1})
	d := NewDispatcher(pub, cb, zap.NewNop())

	for i := 0; i < 3; i++ {
		err := d.Notify(context.Background(), "client-1", "k", ChannelPush)
		if !errors.Is(err, timeline.ErrDependency) {
			t.Fatalf("attempt %d: err = %v, want ErrDependency", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("breaker should be open after repeated failures")
	}
}

func TestEventPublisher_Celebrated(t *testing.T) {
	pub := &recordingPublisher{}
	ep := NewEventPublisher(pub, zap.NewNop())
	task := &timeline.TaskInstance{ID: "t1", ClientID: "c1", Title: "Hold the ceremony rehearsal"}
	tpl := timeline.TaskTemplate{Key: "final-two-months-hold-the-ceremony-rehearsal", Milestone: true, Confetti: true}

	if err := ep.PublishCelebrated(context.Background(), task, tpl, "planner-1"); err != nil {
		t.Fatalf("PublishCelebrated: %v", err)
	}
	if pub.keys[0] != mqcontracts.RoutingTaskCelebrated {
		t.Fatalf("routing key = %q", pub.keys[0])
	}
	p := pub.msgs[0].(mqcontracts.TaskCelebratedPayload)
	if p.TaskID != "t1" || !p.Milestone || p.ActorID != "planner-1" {
		t.Fatalf("payload = %+v", p)
	}
}
