package emulator

import "sync"

// mailbox is an unbounded FIFO of commands.
// Push never blocks, pop waits for a command or the close.
type mailbox struct {
	mu     sync.Mutex
	items  []Command
	notify chan struct{}
	closed bool
}

func newMailbox() *mailbox { return &mailbox{notify: make(chan struct{}, 1)} }

// push returns false when the mailbox is closed.
func (m *mailbox) push(c Command) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, c)
	// notify is closed under the same lock
	select {
	case m.notify <- struct{}{}:
	default:
	}
	m.mu.Unlock()
	return true
}

func (m *mailbox) pop() (Command, bool) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			c := m.items[0]
			m.items[0] = nil
			m.items = m.items[1:]
			m.mu.Unlock()
			return c, true
		}
		if m.closed {
			m.mu.Unlock()
			return nil, false
		}
		m.mu.Unlock()
		<-m.notify
	}
}

// close stops accepting commands, the queued ones can still be popped.
func (m *mailbox) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.notify)
	}
}

// drain takes all the queued commands out.
func (m *mailbox) drain() []Command {
	m.mu.Lock()
	rest := m.items
	m.items = nil
	m.mu.Unlock()
	return rest
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
