package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestBrokerFanout(t *testing.T) {
	broker := NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	one := broker.Subscribe(7)
	two := broker.Subscribe(7)
	other := broker.Subscribe(8)
	defer broker.Unsubscribe(7, one)
	defer broker.Unsubscribe(7, two)
	defer broker.Unsubscribe(8, other)

	broker.Publish(context.Background(), 7, Event{Type: "task_completed", TeamID: 7, TaskNumber: 2})

	for _, ch := range []chan []byte{one, two} {
		select {
		case data := <-ch:
			var event Event
			if err := json.Unmarshal(data, &event); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if event.TaskNumber != 2 {
				t.Errorf("expected task number 2, got %d", event.TaskNumber)
			}
		case <-time.After(time.Second):
			t.Fatal("expected both team subscribers to receive the event")
		}
	}

	select {
	case <-other:
		t.Error("expected other team's subscriber to receive nothing")
	default:
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	broker := NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	ch := broker.Subscribe(1)
	broker.Unsubscribe(1, ch)
	broker.Publish(context.Background(), 1, Event{Type: "task_completed"})

	select {
	case <-ch:
		t.Error("expected no delivery after unsubscribe")
	default:
	}
}
