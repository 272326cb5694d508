package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/tripfootprint/internal/adapters/nats"
	"github.com/samirrijal/tripfootprint/internal/core/usecases"
	"github.com/samirrijal/tripfootprint/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Source string `json:"source"` // source filter (optional, "" = all)
}

// feedSubject maps a source filter to the NATS subject carrying its footprints.
func feedSubject(source string) string {
	if source == "" {
		return natsadapter.SubjectEstimatedAll
	}
	return natsadapter.EstimatedSubject(usecases.NormalizeSource(source))
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// newly recorded footprints to connected clients.
// Clients send JSON: {"action":"subscribe","source":"web"}
// An empty source means all sources, which is also the initial subscription.
// Subscribing to one source replaces the all-sources feed and vice versa.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "live feed unavailable"})
			return
		}

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		feeds := newFeedSet(func(subject string) (unsubscriber, error) {
			sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				return nil, err
			}
			return sub, nil
		})
		defer feeds.close()

		if _, err := feeds.add(natsadapter.SubjectEstimatedAll); err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject := feedSubject(m.Source)
			switch m.Action {
			case "subscribe":
				dropped, err := feeds.add(subject)
				switch {
				case errors.Is(err, errAlreadySubscribed):
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				case err != nil:
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]any{"status": "subscribed", "subject": subject, "replaced": dropped})

			case "unsubscribe":
				if feeds.remove(subject) {
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		log.Info("ws client disconnected")
	}
}

var errAlreadySubscribed = errors.New("already subscribed")

type unsubscriber interface {
	Unsubscribe() error
}

// feedSet tracks the subjects one client listens on. The all-sources subject
// and per-source subjects are never held together, so no event is relayed
// twice.
type feedSet struct {
	subscribe func(subject string) (unsubscriber, error)
	subs      map[string]unsubscriber
}

func newFeedSet(subscribe func(subject string) (unsubscriber, error)) *feedSet {
	return &feedSet{subscribe: subscribe, subs: make(map[string]unsubscriber)}
}

// add subscribes to subject and drops the subjects it overlaps with. It
// returns the dropped subjects.
func (f *feedSet) add(subject string) ([]string, error) {
	if _, ok := f.subs[subject]; ok {
		return nil, errAlreadySubscribed
	}
	s, err := f.subscribe(subject)
	if err != nil {
		return nil, err
	}

	dropped := []string{}
	for existing, old := range f.subs {
		if subject == natsadapter.SubjectEstimatedAll || existing == natsadapter.SubjectEstimatedAll {
			_ = old.Unsubscribe()
			delete(f.subs, existing)
			dropped = append(dropped, existing)
		}
	}
	sort.Strings(dropped)
	f.subs[subject] = s
	return dropped, nil
}

func (f *feedSet) remove(subject string) bool {
	s, ok := f.subs[subject]
	if !ok {
		return false
	}
	_ = s.Unsubscribe()
	delete(f.subs, subject)
	return true
}

func (f *feedSet) subjects() []string {
	out := make([]string, 0, len(f.subs))
	for subject := range f.subs {
		out = append(out, subject)
	}
	sort.Strings(out)
	return out
}

func (f *feedSet) close() {
	for subject, s := range f.subs {
		_ = s.Unsubscribe()
		delete(f.subs, subject)
	}
}
