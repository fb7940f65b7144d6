// Package transport is the host side of the logger's cloud link: a bounded
// publish queue that journals every event and fans it out to websocket
// subscribers, plus the connectivity flag the control loop polls.
package transport

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"coldchain_logger/internal/logger"
	"coldchain_logger/internal/models"
	"coldchain_logger/internal/repository"

	"github.com/google/uuid"
)

const (
	journalTimeout = 5 * time.Second
	flushTimeout   = 2 * time.Second
)

// Cloud implements the control loop's transport. Publish only enqueues; Run
// delivers in order, holding the queue while the link is down.
type Cloud struct {
	journal repository.EventRepo
	hub     *Hub
	queue   chan models.Event
	clock   func() time.Time
	log     *logger.Logger

	mu        sync.Mutex
	connected bool
	changed   chan struct{} // closed and replaced on every link change

	keepAlive atomic.Int64
	pings     atomic.Uint64
	dropped   atomic.Uint64
	lastSync  atomic.Int64
}

func NewCloud(journal repository.EventRepo, hub *Hub, queueSize int, log *logger.Logger) *Cloud {
	if log == nil {
		log = logger.NewNop()
	}
	return &Cloud{
		journal: journal,
		hub:     hub,
		queue:   make(chan models.Event, queueSize),
		clock:   time.Now,
		log:     log,
		changed: make(chan struct{}),
	}
}

// Publish queues an event. It never blocks: a full queue drops the event.
func (c *Cloud) Publish(name, payload string, private bool) {
	e := models.Event{
		EventID:    uuid.NewString(),
		OccurredAt: c.clock().UTC(),
		Name:       name,
		Payload:    payload,
		Private:    private,
	}
	select {
	case c.queue <- e:
	default:
		c.dropped.Add(1)
		c.log.Warnw("publish_dropped", "name", name, "queue", cap(c.queue))
	}
}

func (c *Cloud) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SetConnected raises or drops the link.
func (c *Cloud) SetConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected == v {
		return
	}
	c.connected = v
	close(c.changed)
	c.changed = make(chan struct{})
	c.log.Infow("link_changed", "connected", v)
}

// WaitConnected blocks until the link is up or ctx ends.
func (c *Cloud) WaitConnected(ctx context.Context) error {
	for {
		c.mu.Lock()
		up, changed := c.connected, c.changed
		c.mu.Unlock()
		if up {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for link: %w", ctx.Err())
		case <-changed:
		}
	}
}

func (c *Cloud) SetKeepAlive(d time.Duration) {
	c.keepAlive.Store(int64(d))
	c.log.Infow("keepalive_applied", "period", d)
}

func (c *Cloud) KeepAlive() time.Duration { return time.Duration(c.keepAlive.Load()) }

// Ping keeps the session warm. Subscribers get a control ping.
func (c *Cloud) Ping() {
	c.pings.Add(1)
	if c.hub != nil {
		c.hub.Ping()
	}
}

func (c *Cloud) Pings() uint64 { return c.pings.Load() }

// SyncTime records a time sync. The host clock is already disciplined, so
// nothing is adjusted.
func (c *Cloud) SyncTime() {
	now := c.clock().UTC()
	c.lastSync.Store(now.Unix())
	c.log.Infow("time_synced", "at", now.Format(time.RFC3339))
}

// LastSync returns when SyncTime last ran, zero if never.
func (c *Cloud) LastSync() time.Time {
	sec := c.lastSync.Load()
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Dropped counts events lost to a full queue.
func (c *Cloud) Dropped() uint64 { return c.dropped.Load() }

// Run brings the link up and delivers queued events until ctx is cancelled.
// Whatever is still queued at shutdown is journaled but not broadcast.
func (c *Cloud) Run(ctx context.Context) {
	c.SetConnected(true)
	defer c.flush()

	for {
		select {
		case <-ctx.Done():
			c.SetConnected(false)
			return
		case e := <-c.queue:
			if err := c.WaitConnected(ctx); err != nil {
				c.record(e)
				c.SetConnected(false)
				return
			}
			c.deliver(ctx, e)
		}
	}
}

func (c *Cloud) deliver(ctx context.Context, e models.Event) {
	jctx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()
	if err := c.journal.Append(jctx, e); err != nil {
		c.log.Errorw("journal_append_failed", "name", e.Name, "err", err)
	}
	if c.hub != nil {
		c.hub.Broadcast("event", e)
	}
	c.log.Debugw("published", "name", e.Name, "payload", e.Payload)
}

// record journals an event that will never be broadcast.
func (c *Cloud) record(e models.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := c.journal.Append(ctx, e); err != nil {
		c.log.Errorw("journal_append_failed", "name", e.Name, "err", err)
	}
}

func (c *Cloud) flush() {
	for {
		select {
		case e := <-c.queue:
			c.record(e)
		default:
			return
		}
	}
}
