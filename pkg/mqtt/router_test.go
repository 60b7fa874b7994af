package mqtt

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"mc/mission/M1/telemetry", "mc/mission/M1/telemetry", true},
		{"mc/mission/+/telemetry", "mc/mission/M1/telemetry", true},
		{"mc/mission/+/telemetry", "mc/mission/M1/command", false},
		{"mc/mission/+/telemetry", "mc/mission/M1/telemetry/raw", false},
		{"mc/mission/#", "mc/mission/M1/events", true},
		{"mc/#", "mc", true},
		{"mc/mission/M1", "mc/mission/M2", false},
	}
	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestTopicFilter(t *testing.T) {
	tests := map[string]string{
		"$share/orchestrators/mc/mission/+/command": "mc/mission/+/command",
		"mc/mission/+/command":                      "mc/mission/+/command",
		"$share/broken":                             "$share/broken",
	}
	for in, want := range tests {
		if got := topicFilter(in); got != want {
			t.Errorf("topicFilter(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRouterSubscriptions(t *testing.T) {
	r := newRouter(time.Second, 4)
	noop := func(context.Context, string, []byte) {}

	r.add(subscription{filter: "mc/mission/+/telemetry", qos: 1, handler: noop})
	r.add(subscription{filter: "$share/g/mc/mission/+/command", qos: 1, handler: noop})
	r.add(subscription{filter: "mc/mission/+/telemetry", qos: 0, handler: noop})

	subs := r.all()
	if len(subs) != 2 {
		t.Fatalf("all() returned %d subscriptions, want 2", len(subs))
	}
	if subs[0].filter != "$share/g/mc/mission/+/command" || subs[1].qos != 0 {
		t.Errorf("unexpected subscriptions: %+v", subs)
	}

	if n := len(r.match("mc/mission/M1/command")); n != 1 {
		t.Errorf("shared filter matched %d handlers, want 1", n)
	}

	r.remove("mc/mission/+/telemetry")
	if n := len(r.match("mc/mission/M1/telemetry")); n != 0 {
		t.Errorf("removed filter still matched %d handlers", n)
	}
}

func TestRouterRoute(t *testing.T) {
	r := newRouter(time.Second, 2)

	var (
		wg    sync.WaitGroup
		calls atomic.Int32
	)
	handler := func(ctx context.Context, topic string, payload []byte) {
		defer wg.Done()
		if _, ok := ctx.Deadline(); !ok {
			t.Error("handler context has no deadline")
		}
		if topic != "mc/mission/M1/telemetry" || string(payload) != "{}" {
			t.Errorf("unexpected message %s %s", topic, payload)
		}
		calls.Add(1)
	}
	r.add(subscription{filter: "mc/mission/+/telemetry", handler: handler})
	r.add(subscription{filter: "mc/#", handler: handler})

	wg.Add(2)
	if n := r.route("mc/mission/M1/telemetry", []byte("{}")); n != 2 {
		t.Fatalf("route() = %d, want 2", n)
	}
	wg.Wait()

	if calls.Load() != 2 {
		t.Errorf("handlers ran %d times, want 2", calls.Load())
	}
	if n := r.route("other/topic", nil); n != 0 {
		t.Errorf("route() on unmatched topic = %d, want 0", n)
	}
}

func TestRouterKeepsTopicOrder(t *testing.T) {
	r := newRouter(time.Second, 4)
	defer r.stop()

	const rounds = 200
	var (
		mu  sync.Mutex
		got = map[string][]string{}
	)
	r.add(subscription{filter: "mc/mission/+/telemetry", handler: func(_ context.Context, topic string, payload []byte) {
		// Give later messages a chance to overtake if ordering were not enforced.
		if string(payload) == "1" {
			time.Sleep(10 * time.Microsecond)
		}
		mu.Lock()
		got[topic] = append(got[topic], string(payload))
		mu.Unlock()
	}})

	topics := []string{"mc/mission/M1/telemetry", "mc/mission/M2/telemetry", "mc/mission/M3/telemetry"}
	for i := 0; i < rounds; i++ {
		for _, topic := range topics {
			for _, p := range []string{"1", "2", "3"} {
				if n := r.route(topic, []byte(p)); n != 1 {
					t.Fatalf("route() = %d, want 1", n)
				}
			}
		}
	}
	r.stop()

	for _, topic := range topics {
		seq := got[topic]
		if len(seq) != rounds*3 {
			t.Fatalf("%s: got %d messages, want %d", topic, len(seq), rounds*3)
		}
		for i, p := range seq {
			if want := []string{"1", "2", "3"}[i%3]; p != want {
				t.Fatalf("%s: message %d = %s, want %s", topic, i, p, want)
			}
		}
	}
}

func TestRouterBoundsConcurrentHandlers(t *testing.T) {
	const lanes = 2
	r := newRouter(time.Second, lanes)
	defer r.stop()

	var running, peak atomic.Int32
	r.add(subscription{filter: "#", handler: func(context.Context, string, []byte) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
	}})

	for i := 0; i < 50; i++ {
		r.route("mc/mission/M"+string(rune('A'+i%26))+"/telemetry", nil)
	}
	r.stop()

	if p := peak.Load(); p > lanes {
		t.Errorf("peak concurrent handlers = %d, want at most %d", p, lanes)
	}
}

func TestRouterStop(t *testing.T) {
	r := newRouter(time.Second, 1)
	r.add(subscription{filter: "#", handler: func(context.Context, string, []byte) {}})
	r.stop()
	r.stop()

	if n := r.route("a/b", nil); n != 0 {
		t.Errorf("route() after stop = %d, want 0", n)
	}
}
