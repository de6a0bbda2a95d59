package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/ridewire/voicebooking/booking"
)

func TestSummarizeEvent_ToolSync(t *testing.T) {
	s := SummarizeEvent(booking.ToolSync{TurnID: "t1", Pickup: "12 Baker Street"})
	if s.Kind != "ToolSync" {
		t.Fatalf("unexpected kind %q", s.Kind)
	}
	if s.Data["pickup"] != "12 Baker Street" {
		t.Fatalf("unexpected data: %+v", s.Data)
	}
}

func TestSummarizeAction_Variants(t *testing.T) {
	cases := []struct {
		name string
		in   booking.Action
		kind string
	}{
		{"ask", booking.Ask{Text: "hi"}, "Ask"},
		{"geocode pickup", booking.GeocodePickup{Raw: "addr"}, "GeocodePickup"},
		{"transfer", booking.TransferToHuman{Reason: "caller upset"}, "TransferToHuman"},
		{"hangup", booking.Hangup{Text: "bye"}, "Hangup"},
		{"none", booking.None{Reason: "duplicate turn"}, "None"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := SummarizeAction(tc.in)
			if s.Kind != tc.kind {
				t.Fatalf("expected kind %q, got %q", tc.kind, s.Kind)
			}
		})
	}
}

func TestMemStore_AppendAndList(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []Entry{
		NewEntry("call-1", 1, now.Add(time.Second), booking.ToolSync{TurnID: "t2"}, booking.None{Reason: "ignored"}),
		NewEntry("call-1", 0, now, booking.ToolSync{TurnID: "t1"}, booking.Ask{Text: "Where from?"}),
	}
	for _, e := range entries {
		if err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := store.List(ctx, "call-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Seq != 0 || got[1].Seq != 1 {
		t.Fatalf("expected entries sorted by seq, got %+v", got)
	}
}

func TestMemStore_ListUnknownCall(t *testing.T) {
	store := NewMemStore()
	if _, err := store.List(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
