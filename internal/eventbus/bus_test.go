package eventbus

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	sub := SubscribeTo(bus, Entities.State)
	defer sub.Close()

	Publish(context.Background(), bus, Entities.State, SourceChannel, EntityStateEvent{
		EntityID: "light-1",
		State:    json.RawMessage(`{"on":true}`),
	})

	select {
	case env := <-sub.C():
		if env.Payload.EntityID != "light-1" {
			t.Errorf("EntityID = %q", env.Payload.EntityID)
		}
		if env.Source != SourceChannel {
			t.Errorf("Source = %q", env.Source)
		}
		if env.Timestamp.IsZero() {
			t.Error("Timestamp not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNilBusIsNoOp(t *testing.T) {
	var bus *Bus

	// Publish must not panic.
	Publish(context.Background(), bus, Channel.Status, SourceChannel, ChannelStatusEvent{State: ChannelConnected})

	sub := SubscribeTo(bus, Channel.Status)
	if _, ok := <-sub.C(); ok {
		t.Error("nil-bus subscription channel should be closed")
	}
	sub.Close() // must not panic
}

func TestDropOldestWhenFull(t *testing.T) {
	bus := New(WithTopicBuffer(TopicChannelStatus, 1))
	defer bus.Shutdown()

	raw := bus.Subscribe(TopicChannelStatus)
	defer raw.Close()

	ctx := context.Background()
	Publish(ctx, bus, Channel.Status, SourceChannel, ChannelStatusEvent{Attempt: 1})
	Publish(ctx, bus, Channel.Status, SourceChannel, ChannelStatusEvent{Attempt: 2})

	select {
	case env := <-raw.C():
		evt, ok := env.Payload.(ChannelStatusEvent)
		if !ok {
			t.Fatalf("payload type %T", env.Payload)
		}
		if evt.Attempt != 2 {
			t.Errorf("kept Attempt = %d, want newest (2)", evt.Attempt)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	if raw.dropped.Load() != 1 {
		t.Errorf("dropped = %d, want 1", raw.dropped.Load())
	}
}

func TestTypedSubscriptionSkipsMismatched(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	sub := Subscribe[ChannelStatusEvent](bus, TopicChannelStatus)
	defer sub.Close()

	// Wrong payload type on the same topic is skipped by the bridge.
	bus.publish(context.Background(), Envelope{Topic: TopicChannelStatus, Payload: "bogus"})
	Publish(context.Background(), bus, Channel.Status, SourceChannel, ChannelStatusEvent{State: ChannelConnected})

	select {
	case env := <-sub.C():
		if env.Payload.State != ChannelConnected {
			t.Errorf("State = %q", env.Payload.State)
		}
	case <-time.After(time.Second):
		t.Fatal("typed event not delivered")
	}
}

func TestContextBoundSubscription(t *testing.T) {
	bus := New()
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub := bus.Subscribe(TopicEntityState, WithContext(ctx))
	cancel()

	select {
	case <-sub.done:
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
}
