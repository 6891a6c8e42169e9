package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// AllEvents subscribes a function handler to every event type
const AllEvents = "*"

type funcHandler struct {
	id string
	fn EventHandler
}

// EventBus delivers events synchronously on the publishing goroutine, so
// handlers run inside the caller's critical section and must not block.
// Handlers may subscribe or unsubscribe while an event is being delivered;
// the change applies from the next Publish.
type EventBus struct {
	mu           sync.RWMutex
	subscribers  map[string]Subscriber
	funcHandlers map[string][]funcHandler
	nextID       int
	published    atomic.Int64
	logger       zerolog.Logger
}

// NewEventBus creates an empty bus
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		subscribers:  make(map[string]Subscriber),
		funcHandlers: make(map[string][]funcHandler),
		logger:       logger.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe adds s, replacing any subscriber with the same ID
func (eb *EventBus) Subscribe(s Subscriber) {
	eb.mu.Lock()
	eb.subscribers[s.ID()] = s
	eb.mu.Unlock()
	eb.logger.Debug().Str("subscriber_id", s.ID()).Msg("Subscriber added to event bus")
}

// Unsubscribe removes a subscriber by ID
func (eb *EventBus) Unsubscribe(subscriberID string) {
	eb.mu.Lock()
	delete(eb.subscribers, subscriberID)
	eb.mu.Unlock()
	eb.logger.Debug().Str("subscriber_id", subscriberID).Msg("Subscriber removed from event bus")
}

// SubscribeFunc registers fn for one event type, or for all of them with
// AllEvents. The returned ID can be passed to UnsubscribeFunc.
func (eb *EventBus) SubscribeFunc(eventType string, fn EventHandler) string {
	eb.mu.Lock()
	eb.nextID++
	id := fmt.Sprintf("%s#%d", eventType, eb.nextID)
	eb.funcHandlers[eventType] = append(eb.funcHandlers[eventType], funcHandler{id: id, fn: fn})
	eb.mu.Unlock()

	eb.logger.Debug().Str("event_type", eventType).Str("handler_id", id).Msg("Function handler added to event bus")
	return id
}

// UnsubscribeFunc removes a handler registered with SubscribeFunc
func (eb *EventBus) UnsubscribeFunc(handlerID string) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for typ, hs := range eb.funcHandlers {
		for i, h := range hs {
			if h.id != handlerID {
				continue
			}
			rest := append(hs[:i:i], hs[i+1:]...)
			if len(rest) == 0 {
				delete(eb.funcHandlers, typ)
			} else {
				eb.funcHandlers[typ] = rest
			}
			return true
		}
	}
	return false
}

// Publish delivers event to every interested subscriber, then to the type's
// function handlers, then to AllEvents handlers. A panicking handler is
// logged and skipped.
func (eb *EventBus) Publish(event Event) {
	eventType := event.Type()

	eb.mu.RLock()
	subs := make([]Subscriber, 0, len(eb.subscribers))
	for _, s := range eb.subscribers {
		if s.InterestedIn(eventType) {
			subs = append(subs, s)
		}
	}
	handlers := make([]funcHandler, 0, len(eb.funcHandlers[eventType])+len(eb.funcHandlers[AllEvents]))
	handlers = append(handlers, eb.funcHandlers[eventType]...)
	if eventType != AllEvents {
		handlers = append(handlers, eb.funcHandlers[AllEvents]...)
	}
	eb.mu.RUnlock()

	eb.published.Add(1)
	for _, s := range subs {
		eb.invoke(s.ID(), event, s.HandleEvent)
	}
	for _, h := range handlers {
		eb.invoke(h.id, event, h.fn)
	}
}

func (eb *EventBus) invoke(handlerID string, event Event, fn EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("handler_id", handlerID).
				Str("event_type", event.Type()).
				Str("match_id", event.MatchID()).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	fn(event)
}

// SubscriberCount is the number of Subscribe registrations
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// HandlerCount is the number of function handlers for eventType
func (eb *EventBus) HandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.funcHandlers[eventType])
}

// Published counts events delivered since the bus was created
func (eb *EventBus) Published() int64 { return eb.published.Load() }
