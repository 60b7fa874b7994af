package mqtt

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"
)

// subscription is a registered filter and the handler it feeds.
type subscription struct {
	filter  string
	qos     int
	handler MessageHandler
}

// delivery is one message bound for one handler.
type delivery struct {
	handler MessageHandler
	topic   string
	payload []byte
}

// router keeps the registered subscriptions and fans incoming messages out to them.
// Handlers run off the reader loop on a fixed set of lanes. A topic always maps to the
// same lane, so messages on one topic are handled in arrival order while different
// topics proceed in parallel. The number of lanes bounds concurrent handlers.
type router struct {
	mu   sync.RWMutex
	subs map[string]subscription

	timeout time.Duration

	laneMu  sync.RWMutex
	lanes   []chan delivery
	stopped bool
	wg      sync.WaitGroup
}

const laneDepth = 32

func newRouter(timeout time.Duration, lanes int) *router {
	if lanes <= 0 {
		lanes = 1
	}
	r := &router{
		subs:    make(map[string]subscription),
		timeout: timeout,
		lanes:   make([]chan delivery, lanes),
	}
	for i := range r.lanes {
		r.lanes[i] = make(chan delivery, laneDepth)
		r.wg.Add(1)
		go r.run(r.lanes[i])
	}
	return r
}

func (r *router) run(lane <-chan delivery) {
	defer r.wg.Done()
	for d := range lane {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		d.handler(ctx, d.topic, d.payload)
		cancel()
	}
}

func (r *router) add(s subscription) {
	r.mu.Lock()
	r.subs[s.filter] = s
	r.mu.Unlock()
}

func (r *router) remove(filter string) {
	r.mu.Lock()
	delete(r.subs, filter)
	r.mu.Unlock()
}

// all returns the subscriptions ordered by filter.
func (r *router) all() []subscription {
	r.mu.RLock()
	out := make([]subscription, 0, len(r.subs))
	for _, s := range r.subs {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].filter < out[j].filter })
	return out
}

// match returns the handlers whose filter covers topic, ordered by filter.
func (r *router) match(topic string) []MessageHandler {
	var handlers []MessageHandler
	for _, s := range r.all() {
		if topicsMatch(topicFilter(s.filter), topic) {
			handlers = append(handlers, s.handler)
		}
	}
	return handlers
}

// route queues the message for every matching handler and reports how many there were.
// It blocks while the topic's lane is full, which pushes back on the broker.
func (r *router) route(topic string, payload []byte) int {
	handlers := r.match(topic)
	if len(handlers) == 0 {
		return 0
	}

	r.laneMu.RLock()
	defer r.laneMu.RUnlock()
	if r.stopped {
		return 0
	}

	lane := r.lanes[laneFor(topic, len(r.lanes))]
	for _, h := range handlers {
		lane <- delivery{handler: h, topic: topic, payload: payload}
	}
	return len(handlers)
}

// stop lets queued messages finish and stops the lanes. Later messages are ignored.
func (r *router) stop() {
	r.laneMu.Lock()
	if !r.stopped {
		r.stopped = true
		for _, lane := range r.lanes {
			close(lane)
		}
	}
	r.laneMu.Unlock()
	r.wg.Wait()
}

func laneFor(topic string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	return int(h.Sum32() % uint32(n))
}

// topicsMatch checks if a topic matches a filter (supports wildcards + and #).
func topicsMatch(filter, topic string) bool {
	if filter == topic {
		return true
	}
	if !strings.ContainsAny(filter, "+#") {
		return false
	}

	filterParts := strings.Split(filter, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range filterParts {
		if part == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}

	return len(filterParts) == len(topicParts)
}

// topicFilter strips the shared subscription prefix from filter.
// Format: $share/<group>/<filter>
func topicFilter(filter string) string {
	if rest, ok := strings.CutPrefix(filter, "$share/"); ok {
		if _, f, ok := strings.Cut(rest, "/"); ok {
			return f
		}
	}
	return filter
}
