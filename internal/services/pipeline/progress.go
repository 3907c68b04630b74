package pipeline

import "sync"

const subscriberBuffer = 16

// Broadcaster fans progress updates out to per-project subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the
// update and catches up on the next one.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string][]chan ProgressUpdate
}

// NewBroadcaster creates an empty progress broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string][]chan ProgressUpdate)}
}

// Subscribe registers a listener for one project's updates. The returned
// cancel function must be called when the listener goes away.
func (b *Broadcaster) Subscribe(projectUUID string) (<-chan ProgressUpdate, func()) {
	ch := make(chan ProgressUpdate, subscriberBuffer)

	b.mu.Lock()
	b.subs[projectUUID] = append(b.subs[projectUUID], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		channels := b.subs[projectUUID]
		for i, c := range channels {
			if c == ch {
				b.subs[projectUUID] = append(channels[:i], channels[i+1:]...)
				break
			}
		}
		if len(b.subs[projectUUID]) == 0 {
			delete(b.subs, projectUUID)
		}
	}

	return ch, cancel
}

// Publish delivers an update to all current subscribers of the project
func (b *Broadcaster) Publish(update ProgressUpdate) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[update.ProjectUUID] {
		select {
		case ch <- update:
		default:
			// Subscriber is not keeping up; drop this update
		}
	}
}

// SubscriberCount returns how many listeners a project currently has
func (b *Broadcaster) SubscriberCount(projectUUID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[projectUUID])
}
