package events

import (
	"context"
	"log"
	"sync"
)

// Handler consumes one event. Handlers run on bus workers and must not
// assume they run before the publishing request returns.
type Handler func(ctx context.Context, evt Event)

// Publisher is what lifecycle code needs from the bus.
type Publisher interface {
	Publish(evt Event)
}

// Bus is an in-process asynchronous event bus backed by a worker pool.
// Publish never blocks: events wait in an unbounded pending list that a
// pump goroutine feeds into the worker queue, so handlers may publish too.
type Bus struct {
	handlersMu sync.RWMutex
	handlers   map[string][]Handler

	mu          sync.Mutex
	cond        *sync.Cond
	pending     []Event
	outstanding int // accepted and not yet handled
	closing     bool
	stopped     bool

	queue chan Event
	wg    sync.WaitGroup
}

// NewBus starts workers goroutines draining a queue of queueSize events.
func NewBus(workers, queueSize int) *Bus {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	b := &Bus{
		handlers: make(map[string][]Handler),
		queue:    make(chan Event, queueSize),
	}
	b.cond = sync.NewCond(&b.mu)

	b.wg.Add(1)
	go b.pump()
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.work()
	}
	log.Printf("[EVENT-BUS] started with %d workers, queue size %d", workers, queueSize)
	return b
}

// Subscribe registers h for events with the given name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.handlersMu.Lock()
	defer b.handlersMu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish hands evt to the bus and returns immediately. Events published
// once the bus has stopped are dropped.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		log.Printf("[EVENT-BUS] bus stopped, dropping %s event %s", evt.Name(), evt.EventID())
		return
	}
	b.pending = append(b.pending, evt)
	b.outstanding++
	b.cond.Broadcast()
}

// Close waits until every accepted event, including events published by
// handlers while draining, has been handled, then stops the workers.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		b.wg.Wait()
		return
	}
	b.closing = true
	b.cond.Broadcast()
	b.mu.Unlock()

	b.wg.Wait()
	log.Println("[EVENT-BUS] stopped")
}

// pump moves pending events into the worker queue. It is the only sender
// on the queue and closes it once the bus is closing and fully drained.
func (b *Bus) pump() {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		for len(b.pending) == 0 && !(b.closing && b.outstanding == 0) {
			b.cond.Wait()
		}
		if len(b.pending) == 0 {
			b.stopped = true
			b.mu.Unlock()
			close(b.queue)
			return
		}
		batch := b.pending
		b.pending = nil
		b.mu.Unlock()

		for _, evt := range batch {
			b.queue <- evt
		}
	}
}

func (b *Bus) work() {
	defer b.wg.Done()
	for evt := range b.queue {
		for _, h := range b.handlersFor(evt.Name()) {
			b.dispatch(h, evt)
		}

		b.mu.Lock()
		b.outstanding--
		if b.outstanding == 0 {
			b.cond.Broadcast()
		}
		b.mu.Unlock()
	}
}

func (b *Bus) handlersFor(name string) []Handler {
	b.handlersMu.RLock()
	defer b.handlersMu.RUnlock()
	return append([]Handler(nil), b.handlers[name]...)
}

func (b *Bus) dispatch(h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[EVENT-BUS] handler panic on %s event %s: %v", evt.Name(), evt.EventID(), r)
		}
	}()
	h(context.Background(), evt)
}
