package registry

import (
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ChangeHandler is invoked when a tracked entity's state record changes.
//
// oldRecord is nil the first time an entity is seen. Both records are
// deep copies; handlers may retain or modify them freely.
//
// Handlers run synchronously on the goroutine that called Set, so they
// should not block for extended periods.
type ChangeHandler func(oldRecord, newRecord *StateRecord)

// Subscription is a handle for a registered ChangeHandler.
//
// Cancel removes the handler; it is safe to call more than once.
type Subscription struct {
	registry *Registry
	entityID string
	id       uint64

	once sync.Once
}

// Cancel removes the subscription from the registry.
//
// After Cancel returns, the handler will not be invoked for new state
// changes. Idempotent.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.registry.unsubscribe(s.entityID, s.id)
	})
}

// Registry is an in-memory cache of host entity states with change
// notification.
//
// The statestream feed keeps it current; consumers read the latest
// record with Get and track specific entities with Subscribe. All
// stored and returned records are deep copies, so neither the feed
// nor consumers can mutate cached state.
//
// All public methods are thread-safe.
type Registry struct {
	cache   map[string]*StateRecord
	cacheMu sync.RWMutex

	subscribers map[string]map[uint64]ChangeHandler
	nextSubID   uint64
	subMu       sync.RWMutex

	logger Logger
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		cache:       make(map[string]*StateRecord),
		subscribers: make(map[string]map[uint64]ChangeHandler),
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Set stores a new state record for an entity and notifies subscribers.
//
// The record is deep-copied before caching. If UpdatedAt is zero it is
// set to the current time. Subscribers receive the previous record
// (nil on first sight) and the new one.
func (r *Registry) Set(record StateRecord) {
	if record.EntityID == "" {
		r.logger.Warn("registry: dropping record with empty entity id")
		return
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	stored := record.DeepCopy()

	r.cacheMu.Lock()
	old := r.cache[record.EntityID]
	r.cache[record.EntityID] = stored
	r.cacheMu.Unlock()

	r.logger.Debug("entity state updated",
		"entity_id", record.EntityID,
		"state", record.State,
	)

	r.notify(record.EntityID, old, stored)
}

// Get retrieves the last known record for an entity.
//
// Returns false if the entity has never been seen. The returned record
// is a deep copy; callers can safely modify it.
func (r *Registry) Get(entityID string) (*StateRecord, bool) {
	r.cacheMu.RLock()
	record, ok := r.cache[entityID]
	r.cacheMu.RUnlock()

	if !ok {
		return nil, false
	}
	return record.DeepCopy(), true
}

// Entities returns the IDs of all entities currently cached.
func (r *Registry) Entities() []string {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of cached entities.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Subscribe registers a handler for state changes of one entity.
//
// The handler fires on every Set for that entity, including updates
// where the state string is unchanged (attributes may differ). Use the
// returned Subscription's Cancel to stop tracking.
func (r *Registry) Subscribe(entityID string, handler ChangeHandler) *Subscription {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	r.nextSubID++
	id := r.nextSubID

	if r.subscribers[entityID] == nil {
		r.subscribers[entityID] = make(map[uint64]ChangeHandler)
	}
	r.subscribers[entityID][id] = handler

	return &Subscription{
		registry: r,
		entityID: entityID,
		id:       id,
	}
}

// SubscriberCount returns the number of active subscriptions for an
// entity. Useful for verifying listener cleanup.
func (r *Registry) SubscriberCount(entityID string) int {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	return len(r.subscribers[entityID])
}

// unsubscribe removes a handler registration.
func (r *Registry) unsubscribe(entityID string, id uint64) {
	r.subMu.Lock()
	defer r.subMu.Unlock()

	handlers, ok := r.subscribers[entityID]
	if !ok {
		return
	}
	delete(handlers, id)
	if len(handlers) == 0 {
		delete(r.subscribers, entityID)
	}
}

// notify invokes all handlers registered for an entity.
//
// Handlers are collected under the read lock but invoked outside it,
// so a handler may call back into the registry without deadlocking.
// Each handler receives its own deep copies.
func (r *Registry) notify(entityID string, old, current *StateRecord) {
	r.subMu.RLock()
	handlers := make([]ChangeHandler, 0, len(r.subscribers[entityID]))
	for _, h := range r.subscribers[entityID] {
		handlers = append(handlers, h)
	}
	r.subMu.RUnlock()

	for _, handler := range handlers {
		handler(old.DeepCopy(), current.DeepCopy())
	}
}
