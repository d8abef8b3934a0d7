// Package network owns the UDP receive path: one socket, the
// decode/dispatch pipeline, the subscription registry and the liveness
// watchdog. The sim's feed is fire-and-forget; lost or malformed datagrams
// are steady-state traffic here, not errors.
package network

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gridline-data/apex.report/internal/monitoring"
	"github.com/gridline-data/apex.report/internal/telemetry"
	"github.com/gridline-data/apex.report/internal/telemetry/parse"
)

const (
	// DefaultTimeout is the liveness window: the connection is flagged lost
	// when no datagram arrives for this long.
	DefaultTimeout = 500 * time.Millisecond

	// packetChanBuf absorbs short consumer stalls; a send to a full
	// subscriber channel is dropped rather than blocking the receive loop.
	packetChanBuf = 16
	statusChanBuf = 4

	// readBufSize fits the largest catalog entry with margin.
	readBufSize = 2048
)

// Config contains construction options for Listen.
type Config struct {
	// Port is the local UDP port to bind; it must match the destination
	// port configured in the sim. Port 0 binds an ephemeral port.
	Port int

	// EnabledPackets selects which packet types are decoded and delivered.
	// nil enables every tag the catalog knows. The set is fixed for the
	// lifetime of the client.
	EnabledPackets []telemetry.PacketTag

	// Timeout is the liveness watchdog window. Zero means DefaultTimeout.
	Timeout time.Duration

	// RcvBuf sets the socket receive buffer size in bytes when non-zero.
	RcvBuf int

	// Stats receives receive-path counters. nil installs a no-op collector.
	Stats PacketStatsInterface

	// LogInterval controls periodic stats logging; zero disables it.
	LogInterval time.Duration
}

// Client receives the sim's telemetry broadcast on one UDP socket, decodes
// recognised packets and fans them out to subscribers. It starts listening
// immediately on construction and is torn down with Close.
type Client struct {
	conn    *net.UDPConn
	catalog *parse.Catalog
	enabled map[telemetry.PacketTag]bool
	timeout time.Duration
	stats   PacketStatsInterface

	subscriberMu sync.Mutex
	packetSubs   map[telemetry.PacketTag]map[string]chan telemetry.Packet
	statusSubs   map[string]chan bool

	// stateMu guards the connection state cell. Both the receive goroutine
	// and the watchdog goroutine transition it; decode work never runs with
	// this lock held.
	stateMu   sync.Mutex
	connected bool
	closed    bool

	// lastRx is the UnixNano arrival time of the most recent datagram of
	// any type, including filtered and malformed ones.
	lastRx atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Listen binds the configured UDP port and starts the receive loop and the
// liveness watchdog. The client starts in the connected state.
func Listen(cfg Config) (*Client, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP port %d: %w", cfg.Port, err)
	}

	if cfg.RcvBuf > 0 {
		if err := conn.SetReadBuffer(cfg.RcvBuf); err != nil {
			monitoring.Logf("Warning: failed to set UDP receive buffer to %d: %v", cfg.RcvBuf, err)
		}
	}

	stats := cfg.Stats
	if stats == nil {
		stats = noopStats{}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	catalog := parse.NewCatalog()
	enabled := make(map[telemetry.PacketTag]bool)
	if cfg.EnabledPackets == nil {
		for _, tag := range catalog.Tags() {
			enabled[tag] = true
		}
	} else {
		for _, tag := range cfg.EnabledPackets {
			enabled[tag] = true
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:       conn,
		catalog:    catalog,
		enabled:    enabled,
		timeout:    timeout,
		stats:      stats,
		packetSubs: make(map[telemetry.PacketTag]map[string]chan telemetry.Packet),
		statusSubs: make(map[string]chan bool),
		connected:  true,
		cancel:     cancel,
	}
	c.lastRx.Store(time.Now().UnixNano())

	c.wg.Add(2)
	go c.receiveLoop()
	go c.watchdog(ctx)

	if cfg.LogInterval > 0 {
		c.wg.Add(1)
		go c.statsLoop(ctx, cfg.LogInterval)
	}

	monitoring.Logf("telemetry listener started on %s (timeout %v)", conn.LocalAddr(), timeout)
	return c, nil
}

// LocalAddr returns the bound socket address.
func (c *Client) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// Enabled reports whether the given tag is in the enabled set.
func (c *Client) Enabled(tag telemetry.PacketTag) bool { return c.enabled[tag] }

// EnabledTags returns the enabled tags in catalog order.
func (c *Client) EnabledTags() []telemetry.PacketTag {
	var tags []telemetry.PacketTag
	for _, tag := range c.catalog.Tags() {
		if c.enabled[tag] {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Connected reports the current liveness state.
func (c *Client) Connected() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.connected
}

// LastPacket returns the arrival time of the most recent datagram.
func (c *Client) LastPacket() time.Time {
	return time.Unix(0, c.lastRx.Load())
}

// randomID generates a subscription handle (8 random bytes, hex encoded).
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe registers a channel for decoded packets of the given tag. Every
// subscriber of a tag receives every decoded packet of that tag exactly once,
// in arrival order; a subscriber that falls more than packetChanBuf packets
// behind misses the overflow. The returned id is used to Unsubscribe.
func (c *Client) Subscribe(tag telemetry.PacketTag) (string, <-chan telemetry.Packet) {
	id := randomID()
	ch := make(chan telemetry.Packet, packetChanBuf)
	c.subscriberMu.Lock()
	defer c.subscriberMu.Unlock()
	if c.packetSubs[tag] == nil {
		c.packetSubs[tag] = make(map[string]chan telemetry.Packet)
	}
	c.packetSubs[tag][id] = ch
	return id, ch
}

// SubscribeStatus registers a channel for connection liveness transitions.
// The new boolean state is delivered on every transition, including the
// final false fired by Close.
func (c *Client) SubscribeStatus() (string, <-chan bool) {
	id := randomID()
	ch := make(chan bool, statusChanBuf)
	c.subscriberMu.Lock()
	defer c.subscriberMu.Unlock()
	c.statusSubs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription by id and closes its channel.
func (c *Client) Unsubscribe(id string) {
	c.subscriberMu.Lock()
	defer c.subscriberMu.Unlock()
	for _, subs := range c.packetSubs {
		if ch, ok := subs[id]; ok {
			close(ch)
			delete(subs, id)
			return
		}
	}
	if ch, ok := c.statusSubs[id]; ok {
		close(ch)
		delete(c.statusSubs, id)
	}
}

// receiveLoop is the single blocking wait of the client: await a datagram,
// hand it to dispatch, re-arm. Only a closed socket stops it.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, readBufSize)
	for {
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || c.isClosed() {
				return
			}
			monitoring.Logf("UDP read error: %v", err)
			continue
		}

		// Any datagram counts as traffic for liveness, whatever its type
		// and whether or not it decodes.
		c.lastRx.Store(time.Now().UnixNano())
		c.markLive()
		c.stats.AddPacket(n)

		c.dispatch(buf[:n])
	}
}

// dispatch routes one datagram: header decode, catalog lookup, enabled-set
// filter, payload decode, delivery. Every discard path is silent apart from
// the stats counters.
func (c *Client) dispatch(data []byte) {
	hdr, err := telemetry.DecodeHeader(data)
	if err != nil {
		c.stats.AddDropped()
		return
	}

	tag := hdr.Tag()
	entry, ok := c.catalog.Lookup(tag)
	if !ok || !c.enabled[tag] {
		c.stats.AddSkipped()
		return
	}

	pkt, err := entry.Decode(data)
	if err != nil {
		c.stats.AddDropped()
		return
	}
	c.stats.AddDecoded()

	c.subscriberMu.Lock()
	for _, ch := range c.packetSubs[tag] {
		select {
		case ch <- pkt:
		default:
			// subscriber is saturated; dropping beats blocking the receive loop
		}
	}
	c.subscriberMu.Unlock()
}

// watchdog flags the connection lost when the liveness window elapses with
// no traffic. It runs on its own timer, independent of the receive path, and
// never blocks on decode work.
func (c *Client) watchdog(ctx context.Context) {
	defer c.wg.Done()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			idle := time.Since(time.Unix(0, c.lastRx.Load()))
			if idle >= c.timeout {
				c.markTimedOut()
				timer.Reset(c.timeout)
			} else {
				// traffic arrived during the window; re-arm for the remainder
				timer.Reset(c.timeout - idle)
			}
		}
	}
}

func (c *Client) statsLoop(ctx context.Context, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.stats.LogStats()
		}
	}
}

func (c *Client) isClosed() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.closed
}

// markLive transitions TIMED_OUT -> LIVE on resumed traffic.
func (c *Client) markLive() {
	c.stateMu.Lock()
	if c.closed || c.connected {
		c.stateMu.Unlock()
		return
	}
	c.connected = true
	c.stateMu.Unlock()

	monitoring.Logf("telemetry connection restored")
	c.notifyStatus(true)
}

// markTimedOut transitions LIVE -> TIMED_OUT when the window elapses.
func (c *Client) markTimedOut() {
	c.stateMu.Lock()
	if c.closed || !c.connected {
		c.stateMu.Unlock()
		return
	}
	c.connected = false
	c.stateMu.Unlock()

	monitoring.Logf("telemetry connection lost: no datagram within %v", c.timeout)
	c.notifyStatus(false)
}

// notifyStatus delivers a liveness transition to every status subscriber.
func (c *Client) notifyStatus(connected bool) {
	c.subscriberMu.Lock()
	defer c.subscriberMu.Unlock()
	for _, ch := range c.statusSubs {
		select {
		case ch <- connected:
		default:
		}
	}
}

// Close stops the client: it transitions the connection state to
// disconnected and notifies status subscribers, then closes the socket
// (ending the receive loop without re-arming), stops the watchdog, and
// closes every subscriber channel. Close is idempotent.
func (c *Client) Close() error {
	c.stateMu.Lock()
	if c.closed {
		c.stateMu.Unlock()
		return nil
	}
	c.closed = true
	wasConnected := c.connected
	c.connected = false
	c.stateMu.Unlock()

	if wasConnected {
		c.notifyStatus(false)
	}

	c.cancel()
	err := c.conn.Close()
	c.wg.Wait()

	c.subscriberMu.Lock()
	defer c.subscriberMu.Unlock()
	for tag, subs := range c.packetSubs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(c.packetSubs, tag)
	}
	for id, ch := range c.statusSubs {
		close(ch)
		delete(c.statusSubs, id)
	}
	return err
}
