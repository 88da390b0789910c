// Package live pushes accepted check-ins to dashboard readers. The write
// path only publishes; subscribers (SSE streams, the worker's rollup cache)
// see events in per-session commit order within a few seconds.
package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Update is one accepted check-in pushed to dashboards.
type Update struct {
	SessionID  string    `json:"session_id"`
	StudentID  string    `json:"student_id"`
	RollNumber int       `json:"roll_number"`
	Name       string    `json:"name"`
	Timestamp  time.Time `json:"timestamp"`
}

// Feed is the abstraction over different backends.
type Feed interface {
	// Publish pushes an update to everyone watching its session.
	Publish(ctx context.Context, update Update) error
	// Subscribe streams updates for one session until ctx is done.
	Subscribe(ctx context.Context, sessionID string) (<-chan Update, error)
	// SubscribeAll streams updates across every session.
	SubscribeAll(ctx context.Context) (<-chan Update, error)
}

// InMemoryFeed is a channel-backed feed for dev and single-process setups.
type InMemoryFeed struct {
	mu   sync.RWMutex
	subs map[string][]chan Update // sessionID -> subscribers, "" = all
}

// NewInMemoryFeed creates an in-memory feed.
func NewInMemoryFeed() *InMemoryFeed {
	return &InMemoryFeed{subs: make(map[string][]chan Update)}
}

// Publish fans the update out to session and wildcard subscribers. Slow
// subscribers drop updates rather than block the check-in path.
func (f *InMemoryFeed) Publish(ctx context.Context, update Update) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	deliver := func(chs []chan Update) {
		for _, ch := range chs {
			select {
			case ch <- update:
			default:
			}
		}
	}
	deliver(f.subs[update.SessionID])
	if update.SessionID != "" {
		deliver(f.subs[""])
	}
	return nil
}

// Subscribe registers a session watcher.
func (f *InMemoryFeed) Subscribe(ctx context.Context, sessionID string) (<-chan Update, error) {
	return f.subscribe(ctx, sessionID), nil
}

// SubscribeAll registers a wildcard watcher.
func (f *InMemoryFeed) SubscribeAll(ctx context.Context) (<-chan Update, error) {
	return f.subscribe(ctx, ""), nil
}

func (f *InMemoryFeed) subscribe(ctx context.Context, key string) <-chan Update {
	ch := make(chan Update, 16)
	f.mu.Lock()
	f.subs[key] = append(f.subs[key], ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subs[key]
		for i, c := range subs {
			if c == ch {
				f.subs[key] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch
}

// RedisFeed carries updates over Redis pub/sub so multiple api/worker
// processes share one live view.
type RedisFeed struct {
	client *redis.Client
	prefix string
}

// NewRedisFeed builds a feed publishing to "<prefix>:<sessionID>" channels.
func NewRedisFeed(client *redis.Client, prefix string) *RedisFeed {
	if prefix == "" {
		prefix = "rollcall:session"
	}
	return &RedisFeed{client: client, prefix: prefix}
}

// Publish sends the update as JSON on the session channel.
func (f *RedisFeed) Publish(ctx context.Context, update Update) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, f.prefix+":"+update.SessionID, payload).Err()
}

// Subscribe streams one session's channel.
func (f *RedisFeed) Subscribe(ctx context.Context, sessionID string) (<-chan Update, error) {
	sub := f.client.Subscribe(ctx, f.prefix+":"+sessionID)
	return f.pump(ctx, sub), nil
}

// SubscribeAll pattern-subscribes across all session channels.
func (f *RedisFeed) SubscribeAll(ctx context.Context) (<-chan Update, error) {
	sub := f.client.PSubscribe(ctx, f.prefix+":*")
	return f.pump(ctx, sub), nil
}

func (f *RedisFeed) pump(ctx context.Context, sub *redis.PubSub) <-chan Update {
	out := make(chan Update, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var update Update
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					continue
				}
				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
