package docstore

import (
	"sync"

	"github.com/google/uuid"
)

// Notifier fans document-change events out to subscribers. The address cache
// is the one internal consumer; external collaborators (a full-text index,
// say) subscribe the same way. Coordination is strictly one-directional:
// subscribers cannot reach back into the store from a callback.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]func(path string)
}

func newNotifier() *Notifier {
	return &Notifier{subs: make(map[string]func(string))}
}

// Subscribe registers fn to run on every document change and returns a handle
// for Unsubscribe.
func (n *Notifier) Subscribe(fn func(path string)) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := uuid.New().String()
	n.subs[id] = fn
	return id
}

// Unsubscribe removes a subscriber. Unknown handles are a no-op.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// Notify invokes every subscriber with the changed path. Callbacks run
// outside the registry lock so a subscriber may Subscribe/Unsubscribe freely.
func (n *Notifier) Notify(path string) {
	n.mu.Lock()
	fns := make([]func(string), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(path)
	}
}
