package signer

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Connection tracks the currently connected owner signer and notifies listeners when it goes away.
type Connection struct {
	mu        sync.Mutex
	current   Signer
	listeners map[int]func(Signer)
	nextID    int
}

// NewConnection creates a Connection with no signer connected.
func NewConnection() *Connection {
	return &Connection{
		listeners: make(map[int]func(Signer)),
	}
}

// Connect makes `s` the current signer. A different signer that was connected before is disconnected first.
func (c *Connection) Connect(s Signer) {
	c.mu.Lock()
	old := c.current
	if old == s {
		c.mu.Unlock()
		return
	}
	c.current = s
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	if old != nil {
		c.notify(old, listeners)
	}

	log.Infof("签名者 %v 已连接", s.Address())
}

// Disconnect removes the current signer, if any, and notifies the listeners.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	old := c.current
	c.current = nil
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	if old != nil {
		c.notify(old, listeners)
	}
}

// Current returns the connected signer.
func (c *Connection) Current() (Signer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.current != nil
}

// CurrentFor returns the connected signer only if it signs for `address`.
func (c *Connection) CurrentFor(address string) (Signer, bool) {
	s, ok := c.Current()
	if !ok || s.Address() != address {
		return nil, false
	}

	return s, true
}

// OnDisconnect registers `fn` to be called with the old signer whenever a signer is disconnected.
// Listeners run synchronously on the disconnecting goroutine without the connection lock held.
func (c *Connection) OnDisconnect(fn func(old Signer)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Connection) snapshotListeners() []func(Signer) {
	ret := make([]func(Signer), 0, len(c.listeners))
	for _, fn := range c.listeners {
		ret = append(ret, fn)
	}
	return ret
}

func (c *Connection) notify(old Signer, listeners []func(Signer)) {
	log.Infof("签名者 %v 已断开", old.Address())
	for _, fn := range listeners {
		fn(old)
	}
}
