package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
)

// notificationLog keeps the most recent notifications in a ring.
type notificationLog struct {
	mu    sync.Mutex
	items []wsSvc.Notification
	next  int
	full  bool
	now   func() time.Time
}

func newNotificationLog(capacity int, now func() time.Time) *notificationLog {
	if capacity < 1 {
		capacity = 1
	}
	return &notificationLog{items: make([]wsSvc.Notification, capacity), now: now}
}

func (l *notificationLog) add(level wsSvc.NotificationLevel, message string, ref *models.EntityRef) wsSvc.Notification {
	n := wsSvc.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		Ref:       ref,
		CreatedAt: l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[l.next] = n
	l.next = (l.next + 1) % len(l.items)
	if l.next == 0 {
		l.full = true
	}
	return n
}

// list returns notifications oldest first
func (l *notificationLog) list() []wsSvc.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		return append([]wsSvc.Notification{}, l.items[:l.next]...)
	}
	out := make([]wsSvc.Notification, 0, len(l.items))
	out = append(out, l.items[l.next:]...)
	return append(out, l.items[:l.next]...)
}

func (l *notificationLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = make([]wsSvc.Notification, len(l.items))
	l.next = 0
	l.full = false
}
