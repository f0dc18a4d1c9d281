package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"paghetta/internal/core"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	body, err := wrap(MessageTypeSync, RecordSyncMessage{ID: 12345})
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}

	env, err := EnvelopeFromJSON(body)
	if err != nil {
		t.Fatalf("EnvelopeFromJSON: %v", err)
	}
	if env.Type != MessageTypeSync {
		t.Errorf("Type = %q, want %q", env.Type, MessageTypeSync)
	}
	if env.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(env.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestDispatch(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	ctx := context.Background()

	t.Run("sync message reaches sync handler", func(t *testing.T) {
		body, err := wrap(MessageTypeSync, RecordSyncMessage{ID: 7})
		if err != nil {
			t.Fatalf("wrap: %v", err)
		}

		var got int64
		err = client.dispatch(ctx, body, Handlers{
			Sync: func(_ context.Context, msg *RecordSyncMessage) error {
				got = msg.ID
				return nil
			},
		})
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if got != 7 {
			t.Errorf("handler saw id %d, want 7", got)
		}
	})

	t.Run("delete message carries the full row", func(t *testing.T) {
		rec := core.Record{
			ID:       9,
			Date:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			Amount:   core.Money{Cents: -350},
			Note:     "sweets",
			Category: "Snacks",
		}
		body, err := wrap(MessageTypeDelete, RecordDeleteMessage{
			ID:         rec.ID,
			Date:       rec.Date,
			AmountCent: rec.Amount.Cents,
			Note:       rec.Note,
			Category:   rec.Category,
		})
		if err != nil {
			t.Fatalf("wrap: %v", err)
		}

		var got *RecordDeleteMessage
		err = client.dispatch(ctx, body, Handlers{
			Delete: func(_ context.Context, msg *RecordDeleteMessage) error {
				got = msg
				return nil
			},
		})
		if err != nil {
			t.Fatalf("dispatch: %v", err)
		}
		if got.ID != 9 || got.AmountCent != -350 || got.Note != "sweets" || got.Category != "Snacks" {
			t.Errorf("delete payload = %+v", got)
		}
		if !got.Date.Equal(rec.Date) {
			t.Errorf("Date = %v, want %v", got.Date, rec.Date)
		}
	})

	t.Run("handler failure propagates for requeue", func(t *testing.T) {
		body, err := wrap(MessageTypeSync, RecordSyncMessage{ID: 1})
		if err != nil {
			t.Fatalf("wrap: %v", err)
		}

		boom := errors.New("sheets unavailable")
		err = client.dispatch(ctx, body, Handlers{
			Sync: func(context.Context, *RecordSyncMessage) error { return boom },
		})
		if !errors.Is(err, boom) {
			t.Errorf("dispatch = %v, want handler error", err)
		}
		if errors.Is(err, errBadMessage) {
			t.Error("handler failures must not be classified as bad messages")
		}
	})

	t.Run("garbage body is a bad message", func(t *testing.T) {
		err := client.dispatch(ctx, []byte("not json"), Handlers{})
		if !errors.Is(err, errBadMessage) {
			t.Errorf("dispatch = %v, want errBadMessage", err)
		}
	})

	t.Run("unknown type is a bad message", func(t *testing.T) {
		body, err := wrap("record.unknown", RecordSyncMessage{ID: 1})
		if err != nil {
			t.Fatalf("wrap: %v", err)
		}
		err = client.dispatch(ctx, body, Handlers{})
		if !errors.Is(err, errBadMessage) {
			t.Errorf("dispatch = %v, want errBadMessage", err)
		}
	})
}
