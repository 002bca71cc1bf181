package audio

import (
	"sync"

	"github.com/gofrs/uuid"
)

// ConsumerID identifies a registered audio consumer.
type ConsumerID = uuid.UUID

// Distributor copies every produced sample into the queue of
// each registered consumer.
type Distributor struct {
	mu       sync.Mutex
	queues   map[ConsumerID]Samples
	maxQueue int
}

type Option func(*Distributor)

// WithMaxQueue caps every consumer queue at n samples,
// the oldest samples are dropped first. Zero means no limit.
func WithMaxQueue(n int) Option {
	return func(d *Distributor) {
		if n > 0 {
			d.maxQueue = n
		}
	}
}

func NewDistributor(opts ...Option) *Distributor {
	d := &Distributor{queues: make(map[ConsumerID]Samples)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds a new consumer with an empty queue.
func (d *Distributor) Register() ConsumerID {
	id := uuid.Must(uuid.NewV4())
	size := SampleRate * queueSeconds
	if d.maxQueue > 0 && d.maxQueue < size {
		size = d.maxQueue
	}
	d.mu.Lock()
	d.queues[id] = make(Samples, 0, size)
	n := len(d.queues)
	d.mu.Unlock()
	consumers.Set(float64(n))
	return id
}

// Unregister drops a consumer queue.
// It is used by the internal consumers when they are done,
// remote consumers are never removed.
func (d *Distributor) Unregister(id ConsumerID) {
	d.mu.Lock()
	delete(d.queues, id)
	n := len(d.queues)
	d.mu.Unlock()
	consumers.Set(float64(n))
}

// Push appends the sample to all the queues.
func (d *Distributor) Push(s Sample) {
	d.mu.Lock()
	for id, q := range d.queues {
		if d.maxQueue > 0 && len(q) >= d.maxQueue {
			q = d.trim(q)
			dropped.Inc()
		}
		d.queues[id] = append(q, s)
	}
	d.mu.Unlock()
	pushed.Inc()
}

// trim removes the oldest eighth of a full queue in place
// so that dropping is not paid on every push.
func (d *Distributor) trim(q Samples) Samples {
	cut := d.maxQueue / 8
	if cut < 1 {
		cut = 1
	}
	if cut > len(q) {
		cut = len(q)
	}
	n := copy(q, q[cut:])
	return q[:n]
}

// Drain removes and returns all the queued samples of the consumer in
// the order of their production. The second value is false for unknown ids.
func (d *Distributor) Drain(id ConsumerID) (Samples, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	q, ok := d.queues[id]
	if !ok {
		return nil, false
	}
	out := make(Samples, len(q))
	copy(out, q)
	d.queues[id] = q[:0]
	return out, true
}

// Len returns the number of queued samples for the consumer.
func (d *Distributor) Len(id ConsumerID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues[id])
}

// Consumers returns the number of registered consumers.
func (d *Distributor) Consumers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}
