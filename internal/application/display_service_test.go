package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/callboard/internal/testfixtures"
)

func newDisplayService(store *memStore, clock *testfixtures.Clock) *DisplayService {
	return NewDisplayService(store, store, store, store, clock.NowFunc())
}

func TestDisplayService_Snapshot(t *testing.T) {
	t.Parallel()

	t.Run("orders calls by priority then age", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		user := seedAccount(t, store)
		base := testfixtures.ReferenceTime()

		for _, fixture := range []struct {
			number   string
			priority int
			created  time.Time
		}{
			{"A", 0, base},
			{"B", 5, base.Add(2 * time.Minute)},
			{"C", 5, base.Add(4 * time.Minute)},
		} {
			command := testfixtures.NewCommandFixture(user.ID,
				testfixtures.WithCommandNumber(fixture.number),
				testfixtures.WithCommandPriority(fixture.priority),
				testfixtures.WithCommandCreatedAt(fixture.created),
			)
			if err := store.CreateCommand(context.Background(), command); err != nil {
				t.Fatalf("CreateCommand failed: %v", err)
			}
		}

		seedCounter(t, store, user.ID, testfixtures.WithCounterActive(false))
		active := seedCounter(t, store, user.ID)

		svc := newDisplayService(store, testfixtures.NewClock(time.Time{}))
		data, err := svc.Snapshot(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}

		if data.RestaurantName != user.RestaurantName || data.BrandColor != user.BrandColor {
			t.Fatalf("unexpected branding: %+v", data)
		}

		got := make([]string, 0, len(data.CurrentCommands))
		for _, command := range data.CurrentCommands {
			got = append(got, command.Number)
		}
		want := []string{"B", "C", "A"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}

		if len(data.Counters) != 1 || data.Counters[0].ID != active.ID {
			t.Fatalf("expected only active counter %q, got %+v", active.ID, data.Counters)
		}
	})

	t.Run("hides unknown and suspended tenants", func(t *testing.T) {
		t.Parallel()

		store := newMemStore()
		suspended := seedAccount(t, store, testfixtures.WithUserActive(false))
		svc := newDisplayService(store, testfixtures.NewClock(time.Time{}))

		if _, err := svc.Snapshot(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("unknown tenant: expected ErrNotFound, got %v", err)
		}
		if _, err := svc.Snapshot(context.Background(), suspended.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("suspended tenant: expected ErrNotFound, got %v", err)
		}
	})
}

func TestDisplayService_Ping(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := seedAccount(t, store)
	clock := testfixtures.NewClock(time.Time{})
	svc := newDisplayService(store, clock)

	result, err := svc.Ping(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if result.Status != "online" {
		t.Fatalf("expected online status, got %q", result.Status)
	}
	if !result.Timestamp.Equal(clock.Now().UTC()) {
		t.Fatalf("expected timestamp %v, got %v", clock.Now().UTC(), result.Timestamp)
	}

	if _, err := svc.Ping(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDisplayService_Stats(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := seedAccount(t, store)
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	svc := newDisplayService(store, clock)

	active := testfixtures.NewCommandFixture(user.ID, testfixtures.WithCommandCreatedAt(clock.Now()))
	done := testfixtures.NewCommandFixture(user.ID,
		testfixtures.WithCommandStatus("completed"),
		testfixtures.WithCommandCreatedAt(clock.Now()),
	)
	if err := store.CreateCommand(context.Background(), active); err != nil {
		t.Fatalf("CreateCommand failed: %v", err)
	}
	if err := store.CreateCommand(context.Background(), done); err != nil {
		t.Fatalf("CreateCommand failed: %v", err)
	}

	stats, err := svc.Stats(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ActiveCommands != 1 || stats.CompletedToday != 1 || stats.CreatedToday != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !stats.LastUpdated.Equal(clock.Now().UTC()) {
		t.Fatalf("expected last updated %v, got %v", clock.Now().UTC(), stats.LastUpdated)
	}
}

func TestDisplayService_Announce(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	user := seedAccount(t, store)
	clock := testfixtures.NewClock(time.Time{})
	svc := newDisplayService(store, clock)

	command := testfixtures.NewCommandFixture(user.ID)
	if err := store.CreateCommand(context.Background(), command); err != nil {
		t.Fatalf("CreateCommand failed: %v", err)
	}

	if err := svc.Announce(context.Background(), user.ID, command.ID); err != nil {
		t.Fatalf("Announce failed: %v", err)
	}
	stored, err := store.GetCommand(context.Background(), user.ID, command.ID)
	if err != nil {
		t.Fatalf("GetCommand failed: %v", err)
	}
	if !stored.IsAnnounced || stored.AnnouncedAt == nil {
		t.Fatalf("expected command to be announced: %+v", stored)
	}

	finished := testfixtures.NewCommandFixture(user.ID, testfixtures.WithCommandStatus("completed"))
	if err := store.CreateCommand(context.Background(), finished); err != nil {
		t.Fatalf("CreateCommand failed: %v", err)
	}
	if err := svc.Announce(context.Background(), user.ID, finished.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-active command, got %v", err)
	}
}

func TestDisplayService_Ads(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	basic := seedAccount(t, store)
	golden := seedAccount(t, store, testfixtures.WithUserPlan("golden"))
	svc := newDisplayService(store, testfixtures.NewClock(time.Time{}))

	if _, err := svc.Ads(context.Background(), basic.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for basic plan, got %v", err)
	}

	payload, err := svc.Ads(context.Background(), golden.ID)
	if err != nil {
		t.Fatalf("Ads failed: %v", err)
	}
	if len(payload.Ads) == 0 {
		t.Fatal("expected at least one ad")
	}
	if payload.RotationInterval != 30000 || !payload.DisplayBetweenCommands {
		t.Fatalf("unexpected rotation settings: %+v", payload)
	}
}
