package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/registrar/grade"
	"github.com/xraph/registrar/id"
	"github.com/xraph/registrar/module"
	"github.com/xraph/registrar/notification"
	"github.com/xraph/registrar/store"
	"github.com/xraph/registrar/user"
)

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := user.NewProfessor("P1", "Ada", "Lovelace", user.ProfessorInfo{
		Department: "Informatique",
		Modules:    []string{"M1"},
	})
	if err := s.SaveUsers(ctx, []*user.User{p}); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy must not leak into the store.
	p.Professor.Modules[0] = "changed"

	got, err := s.LoadUsers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Professor.Modules[0] != "M1" {
		t.Fatalf("unexpected users %+v", got)
	}
}

func TestSaveReplacesCollection(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := []*module.Module{{Code: "M1", Name: "Algo"}, {Code: "M2", Name: "BD"}}
	if err := s.SaveModules(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveModules(ctx, first[:1]); err != nil {
		t.Fatal(err)
	}

	got, _ := s.LoadModules(ctx)
	if len(got) != 1 || got[0].Code != "M1" {
		t.Fatalf("expected only M1, got %+v", got)
	}
	if s.SaveCount(Modules) != 2 {
		t.Fatalf("expected 2 saves, got %d", s.SaveCount(Modules))
	}
}

func TestHasData(t *testing.T) {
	ctx := context.Background()
	s := New()

	has, err := s.HasData(ctx)
	if err != nil || has {
		t.Fatalf("expected empty store, got %v %v", has, err)
	}
	if err := s.SaveGrades(ctx, []*grade.Grade{{StudentCode: "S1", ModuleCode: "M1", Type: grade.TypeExam, Value: 12}}); err != nil {
		t.Fatal(err)
	}
	if has, _ := s.HasData(ctx); !has {
		t.Fatal("expected data after save")
	}
}

func TestFailWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("disk full")

	s.FailWrites(boom)
	if err := s.SaveUsers(ctx, nil); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if s.SaveCount(Users) != 0 {
		t.Fatal("failed save must not count")
	}

	s.FailWrites(nil)
	if err := s.SaveUsers(ctx, nil); err != nil {
		t.Fatal(err)
	}
}

func TestNotificationsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	n := &notification.Notification{
		ID:        id.NewNotificationID(),
		Recipient: "S1",
		Sender:    notification.SenderSystem,
		Type:      notification.TypeMessage,
		CreatedAt: time.Now(),
	}
	inbox := map[string][]*notification.Notification{"S1": {n}}
	if err := s.SaveNotifications(ctx, inbox); err != nil {
		t.Fatal(err)
	}
	n.Read = true

	got, err := s.LoadNotifications(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got["S1"]) != 1 || got["S1"][0].Read {
		t.Fatalf("unexpected inbox %+v", got["S1"])
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := s.SaveModules(ctx, nil); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
