package mqtt

import "log"

// queuedMsg is a serialized message waiting for the broker.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while disconnected. When full, the oldest
// message is discarded. Not safe for concurrent use; RealPublisher holds its
// mutex around every call.
type outbox struct {
	slots   []queuedMsg
	first   int // index of the oldest message
	size    int
	dropped int // discarded since the last takeAll
}

func newOutbox(capacity int) *outbox {
	return &outbox{slots: make([]queuedMsg, capacity)}
}

func (o *outbox) add(msg queuedMsg) {
	n := len(o.slots)
	if o.size < n {
		o.slots[(o.first+o.size)%n] = msg
		o.size++
		return
	}
	if o.dropped == 0 {
		log.Printf("mqtt: outbox full (%d messages), discarding oldest", n)
	}
	o.dropped++
	o.slots[o.first] = msg
	o.first = (o.first + 1) % n
}

// takeAll empties the outbox, returning its messages oldest first and how
// many were discarded to make room for them.
func (o *outbox) takeAll() ([]queuedMsg, int) {
	dropped := o.dropped
	o.dropped = 0
	if o.size == 0 {
		return nil, dropped
	}
	n := len(o.slots)
	out := make([]queuedMsg, o.size)
	for i := range out {
		out[i] = o.slots[(o.first+i)%n]
		o.slots[(o.first+i)%n] = queuedMsg{}
	}
	o.first = 0
	o.size = 0
	return out, dropped
}

func (o *outbox) len() int {
	return o.size
}
