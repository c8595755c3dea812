package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/valkey-io/valkey-go"
)

func TestStreamPublishesTurn(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{mr.Addr()},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		t.Fatalf("valkey client create failed: %v", err)
	}
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := NewStream(client, logger, StreamConfig{Stream: "dominion:turns", MaxLen: 100})

	ctx := context.Background()
	if err := pub.TurnCommitted(ctx, "g1", 7); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := pub.TurnCommitted(ctx, "g1", 8); err != nil {
		t.Fatalf("publish: %v", err)
	}

	entries, err := mr.Stream("dominion:turns")
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	values := entries[1].Values
	if len(values) != 4 || values[0] != "game_id" || values[1] != "g1" || values[2] != "turn" || values[3] != "8" {
		t.Fatalf("unexpected entry %v", values)
	}
}

func TestNopNeverFails(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.TurnCommitted(context.Background(), "g", 1); err != nil {
		t.Fatalf("nop publisher failed: %v", err)
	}
}
