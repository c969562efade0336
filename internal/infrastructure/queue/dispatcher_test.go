package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/atica/user-roster/internal/core/domain"
)

type memoryAudit struct {
	mu     sync.Mutex
	events []domain.UserEvent
	fail   bool
}

func (m *memoryAudit) InsertEvent(_ context.Context, e *domain.UserEvent) error {
	if m.fail {
		return errors.New("audit store down")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memoryAudit) byUser(userID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, e := range m.events {
		if e.UserID == userID {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func event(id string, userID int64) domain.UserEvent {
	return domain.UserEvent{ID: id, Type: domain.EventUserUpdated, UserID: userID}
}

func TestDispatcher_StoresEventsInOrderPerUser(t *testing.T) {
	repo := &memoryAudit{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 50; i++ {
		for _, user := range []int64{1, 2, 7} {
			d.Publish(context.Background(), event(fmt.Sprintf("%d-%02d", user, i), user))
		}
	}
	d.Close()

	if got := len(repo.events); got != 150 {
		t.Fatalf("expected 150 stored events, got %d", got)
	}
	for _, user := range []int64{1, 2, 7} {
		ids := repo.byUser(user)
		for i, id := range ids {
			if want := fmt.Sprintf("%d-%02d", user, i); id != want {
				t.Fatalf("user %d: event %d is %s, want %s", user, i, id, want)
			}
		}
	}
}

func TestDispatcher_DropsWhenSaturated(t *testing.T) {
	repo := &memoryAudit{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	// Nothing consumes until Start, so the buffer fills up.
	for i := 0; i < channelBuffer+10; i++ {
		d.Publish(context.Background(), event(fmt.Sprint(i), 1))
	}
	d.Start(context.Background())
	d.Close()

	if got := len(repo.events); got != channelBuffer {
		t.Fatalf("expected %d stored events, got %d", channelBuffer, got)
	}
}

func TestDispatcher_PublishAfterCloseIsDropped(t *testing.T) {
	repo := &memoryAudit{}
	d := NewDispatcher(2, repo, zerolog.Nop())
	d.Start(context.Background())
	d.Close()
	d.Close()

	d.Publish(context.Background(), event("late", 3))
	if len(repo.events) != 0 {
		t.Fatalf("expected no stored events, got %d", len(repo.events))
	}
}

func TestDispatcher_InsertFailureDoesNotStopWorker(t *testing.T) {
	repo := &memoryAudit{fail: true}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())
	d.Publish(context.Background(), event("a", 1))
	d.Publish(context.Background(), event("b", 1))
	d.Close()

	if len(repo.events) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(repo.events))
	}
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, &memoryAudit{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	if d.shardIndex(-5) != d.shardIndex(5) {
		t.Fatalf("negative ids must shard like their absolute value")
	}
}
