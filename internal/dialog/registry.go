package dialog

import (
	"log/slog"
	"sync"
)

// Registry keeps the active creation dialog of every chat.
type Registry struct {
	mu    sync.Mutex
	log   *slog.Logger
	opts  []Option
	flows map[int64]*Flow
}

// NewRegistry returns an empty registry. opts are applied to every flow it starts.
func NewRegistry(log *slog.Logger, opts ...Option) *Registry {
	return &Registry{log: log, opts: opts, flows: make(map[int64]*Flow)}
}

// Start opens a new dialog for the chat, replacing a previous one unless it has a request in flight.
func (r *Registry) Start(chatID int64, employees Employees, notifier Notifier, opts ...Option) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.flows[chatID]; ok && current.View().Submitting {
		return nil, ErrBusy
	}

	all := make([]Option, 0, len(r.opts)+len(opts))
	all = append(all, r.opts...)
	all = append(all, opts...)

	flow := NewFlow(r.log.With("chat", chatID), employees, notifier, all...)
	r.flows[chatID] = flow
	return flow, nil
}

// Get returns the dialog of the chat, if any.
func (r *Registry) Get(chatID int64) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[chatID]
	return flow, ok
}

// Discard forgets the dialog of the chat.
func (r *Registry) Discard(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flows, chatID)
}
