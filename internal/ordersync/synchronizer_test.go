package ordersync

import (
	"reflect"
	"testing"

	"github.com/moonbeamcafe/barista/internal/order"
	"github.com/moonbeamcafe/barista/internal/room"
)

func newSync() (*Synchronizer, *Store) {
	store := NewStore()
	return New(store), store
}

func agentParticipant() *room.Participant {
	return room.NewParticipant("barista-agent", false)
}

func agentWithMetadata(t *testing.T, metadata string) *room.Participant {
	t.Helper()
	p := agentParticipant()
	p.UpdateMetadata(metadata)
	return p
}

func TestAttributeUpdates(t *testing.T) {
	t.Run("sequence of partials merges with last writer winning", func(t *testing.T) {
		s, store := newSync()
		agent := agentParticipant()

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"drinkType":"Latte","size":"Small"}`}, agent)
		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"size":"Large","milk":"Oat"}`}, agent)
		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"name":"Sam"}`}, agent)

		want := order.State{DrinkType: "Latte", Size: "Large", Milk: "Oat", Extras: []string{}, Name: "Sam"}
		if got := store.State(); !reflect.DeepEqual(got, want) {
			t.Errorf("State() = %+v, want %+v", got, want)
		}
	})

	t.Run("order_final sets both state and final snapshot", func(t *testing.T) {
		s, store := newSync()

		s.HandleAttributes(map[string]string{
			AttrOrderFinal: `{"drinkType":"Latte","size":"Medium","milk":"Oat","extras":["Vanilla"],"name":"Sam"}`,
		}, agentParticipant())

		want := order.State{DrinkType: "Latte", Size: "Medium", Milk: "Oat", Extras: []string{"Vanilla"}, Name: "Sam"}
		if got := store.State(); !reflect.DeepEqual(got, want) {
			t.Errorf("State() = %+v, want %+v", got, want)
		}
		final, ok := store.Final()
		if !ok {
			t.Fatal("Expected final order to be set")
		}
		if !reflect.DeepEqual(final, want) {
			t.Errorf("Final() = %+v, want %+v", final, want)
		}
	})

	t.Run("partial extras replace instead of union", func(t *testing.T) {
		s, store := newSync()
		agent := agentParticipant()

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"extras":["Vanilla","Caramel"]}`}, agent)
		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"extras":["Ice"]}`}, agent)

		if got := store.State().Extras; !reflect.DeepEqual(got, []string{"Ice"}) {
			t.Errorf("Expected extras to be replaced, got %v", got)
		}
	})

	t.Run("extras deduped after merge", func(t *testing.T) {
		s, store := newSync()

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"extras":["Ice","Ice","Vanilla"]}`}, agentParticipant())

		if got := store.State().Extras; !reflect.DeepEqual(got, []string{"Ice", "Vanilla"}) {
			t.Errorf("Expected deduped extras, got %v", got)
		}
	})

	t.Run("malformed order_update leaves state untouched", func(t *testing.T) {
		s, store := newSync()
		agent := agentParticipant()

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"drinkType":"Latte"}`}, agent)
		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{not json`}, agent)

		if got := store.State().DrinkType; got != "Latte" {
			t.Errorf("Expected state to survive malformed payload, got drinkType %q", got)
		}
		if _, ok := store.Final(); ok {
			t.Error("Expected no final order")
		}
	})

	t.Run("self-originated events are ignored", func(t *testing.T) {
		s, store := newSync()
		local := room.NewParticipant("customer-1", true)

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"drinkType":"Latte"}`}, local)
		s.HandleAttributes(map[string]string{AttrOrderFinal: `{"drinkType":"Latte"}`}, local)

		if got := store.State(); !reflect.DeepEqual(got, order.Empty()) {
			t.Errorf("Expected empty state after self events, got %+v", got)
		}
	})

	t.Run("nil participant is ignored", func(t *testing.T) {
		s, store := newSync()

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"drinkType":"Latte"}`}, nil)

		if store.State().DrinkType != "" {
			t.Error("Expected event without participant to be dropped")
		}
	})

	t.Run("unrelated attribute keys are ignored", func(t *testing.T) {
		s, store := newSync()

		s.HandleAttributes(map[string]string{"mood": "cheerful"}, agentParticipant())

		if got := store.State(); !reflect.DeepEqual(got, order.Empty()) {
			t.Errorf("Expected state unchanged, got %+v", got)
		}
	})

	t.Run("stale final rolls back newer partials", func(t *testing.T) {
		// Documented looseness: no staleness check exists, so a final
		// arriving late overwrites fields a newer partial already set.
		s, store := newSync()
		agent := agentParticipant()

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"size":"Large"}`}, agent)
		s.HandleAttributes(map[string]string{
			AttrOrderFinal: `{"drinkType":"Latte","size":"Small","milk":"Oat","extras":[],"name":"Sam"}`,
		}, agent)

		if got := store.State().Size; got != "Small" {
			t.Errorf("Expected last arrival to win, got size %q", got)
		}
	})
}

func TestMetadataUpdates(t *testing.T) {
	t.Run("partial replaces the whole order", func(t *testing.T) {
		s, store := newSync()
		agent := agentParticipant()

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"milk":"Oat","name":"Sam"}`}, agent)
		s.HandleMetadata("", agentWithMetadata(t, `{"partial":{"drinkType":"Cappuccino"}}`))

		want := order.State{DrinkType: "Cappuccino", Extras: []string{}}
		if got := store.State(); !reflect.DeepEqual(got, want) {
			t.Errorf("Expected metadata partial to replace state, got %+v", got)
		}
	})

	t.Run("final sets snapshot and state", func(t *testing.T) {
		s, store := newSync()

		s.HandleMetadata("", agentWithMetadata(t,
			`{"final":{"drinkType":"Cappuccino","size":"Small","milk":"Whole","extras":[],"name":"Ana"}}`))

		final, ok := store.Final()
		if !ok {
			t.Fatal("Expected final order to be set")
		}
		want := order.State{DrinkType: "Cappuccino", Size: "Small", Milk: "Whole", Extras: []string{}, Name: "Ana"}
		if !reflect.DeepEqual(final, want) {
			t.Errorf("Final() = %+v, want %+v", final, want)
		}
		if got := store.State(); !reflect.DeepEqual(got, want) {
			t.Errorf("State() = %+v, want %+v", got, want)
		}
	})

	t.Run("empty metadata is skipped", func(t *testing.T) {
		s, store := newSync()

		s.HandleMetadata("previous", agentWithMetadata(t, ""))

		if got := store.State(); !reflect.DeepEqual(got, order.Empty()) {
			t.Errorf("Expected state unchanged, got %+v", got)
		}
	})

	t.Run("malformed metadata is swallowed", func(t *testing.T) {
		s, store := newSync()
		agent := agentParticipant()

		s.HandleAttributes(map[string]string{AttrOrderUpdate: `{"drinkType":"Latte"}`}, agent)
		s.HandleMetadata("", agentWithMetadata(t, `{broken`))

		if got := store.State().DrinkType; got != "Latte" {
			t.Errorf("Expected state to survive malformed metadata, got %q", got)
		}
	})

	t.Run("self metadata is ignored", func(t *testing.T) {
		s, store := newSync()
		local := room.NewParticipant("customer-1", true)
		local.UpdateMetadata(`{"partial":{"drinkType":"Latte"}}`)

		s.HandleMetadata("", local)

		if store.State().DrinkType != "" {
			t.Error("Expected self metadata to be ignored")
		}
	})
}

func TestSessionScenario(t *testing.T) {
	// Session start -> metadata partial -> metadata final, per the
	// end-to-end flow the UI drives.
	s, store := newSync()

	s.HandleMetadata("", agentWithMetadata(t, `{"partial":{"drinkType":"Cappuccino"}}`))

	got := store.State()
	if got.DrinkType != "Cappuccino" {
		t.Fatalf("Expected drinkType Cappuccino, got %q", got.DrinkType)
	}
	if got.Size != "" || got.Milk != "" || got.Name != "" {
		t.Errorf("Expected other fields absent, got %+v", got)
	}
	if store.IsComplete() {
		t.Error("Expected incomplete order")
	}

	s.HandleMetadata("", agentWithMetadata(t,
		`{"final":{"drinkType":"Cappuccino","size":"Small","milk":"Whole","extras":[],"name":"Ana"}}`))

	if _, ok := store.Final(); !ok {
		t.Fatal("Expected final order after metadata final")
	}
	if !store.IsComplete() {
		t.Error("Expected complete order after final")
	}

	// Session end resets everything.
	store.Reset()
	if got := store.State(); !reflect.DeepEqual(got, order.Empty()) {
		t.Errorf("Expected empty state after reset, got %+v", got)
	}
	if _, ok := store.Final(); ok {
		t.Error("Expected no final order after reset")
	}
}
