// Package livestream broadcasts per-frame verification events to attached
// websocket observers as the simulation progresses, with at-least-once,
// no-gap delivery across reconnects.
package livestream

import (
	"errors"
	"sort"
	"sync"
)

// FrameEvent is the plain JSON-marshaled replacement for the teacher's
// protobuf-backed envelope: one per-frame comparison result.
type FrameEvent struct {
	Sequence uint64    `json:"sequence"`
	Frame    int       `json:"frame"`
	Desync   bool      `json:"desync"`
	Field    string    `json:"field,omitempty"`
	Got      [4]uint32 `json:"got,omitempty"`
	Want     [4]uint32 `json:"want,omitempty"`
}

const defaultRetention = 512

// ErrOutOfOrderAck signals that a subscriber attempted to acknowledge an
// event other than the next one pending for it.
var ErrOutOfOrderAck = errors.New("livestream: ack sequence must match the next pending event")

// Stream coordinates ordered FrameEvent delivery with at-least-once
// semantics per subscriber, replaying unacked events on reconnect.
type Stream struct {
	mu          sync.Mutex
	nextSeq     uint64
	retention   int
	logOrder    []uint64
	logPayloads map[uint64]FrameEvent
	subscribers map[string]*subscriberState
}

type subscriberState struct {
	pending []uint64
	lastAck uint64
	ch      chan FrameEvent
	active  bool
}

// Subscription exposes a subscriber's delivery channel and ack handle.
type Subscription struct {
	id     string
	stream *Stream
	events <-chan FrameEvent
	once   sync.Once
}

// NewStream constructs a stream retaining the last `retain` events (or a
// built-in default when retain <= 0).
func NewStream(retain int) *Stream {
	if retain <= 0 {
		retain = defaultRetention
	}
	return &Stream{
		retention:   retain,
		logPayloads: make(map[uint64]FrameEvent),
		subscribers: make(map[string]*subscriberState),
	}
}

// Subscribe attaches subscriberID to the stream, replaying every event
// published since its last Ack before live events resume.
func (s *Stream) Subscribe(subscriberID string, buffer int) (*Subscription, error) {
	if s == nil {
		return nil, errors.New("livestream: nil stream")
	}
	if subscriberID == "" {
		return nil, errors.New("livestream: subscriber id must be provided")
	}
	if buffer <= 0 {
		buffer = 32
	}

	s.mu.Lock()
	state, ok := s.subscribers[subscriberID]
	if !ok {
		state = &subscriberState{}
		s.subscribers[subscriberID] = state
	}
	replay := s.collectReplayLocked(state)
	ch := make(chan FrameEvent, buffer)
	state.ch = ch
	state.active = true
	state.pending = append([]uint64(nil), replay...)
	deliveries := make([]FrameEvent, 0, len(replay))
	for _, seq := range replay {
		if payload, ok := s.logPayloads[seq]; ok {
			deliveries = append(deliveries, payload)
		}
	}
	s.mu.Unlock()

	go func() {
		for _, ev := range deliveries {
			ch <- ev
		}
	}()

	return &Subscription{id: subscriberID, stream: s, events: ch}, nil
}

// Events exposes the ordered delivery channel for the subscriber.
func (sub *Subscription) Events() <-chan FrameEvent {
	if sub == nil {
		return nil
	}
	return sub.events
}

// Ack informs the stream the subscriber has processed sequence.
func (sub *Subscription) Ack(sequence uint64) error {
	if sub == nil || sub.stream == nil {
		return errors.New("livestream: subscription closed")
	}
	return sub.stream.ack(sub.id, sequence)
}

// Close marks the subscription inactive; acknowledgement state survives
// so a later Subscribe with the same id resumes from where it left off.
func (sub *Subscription) Close() {
	if sub == nil || sub.stream == nil {
		return
	}
	sub.once.Do(func() {
		sub.stream.deactivateSubscriber(sub.id)
	})
}

func (s *Stream) collectReplayLocked(state *subscriberState) []uint64 {
	replay := make([]uint64, 0, len(s.logOrder))
	for _, seq := range s.logOrder {
		if seq > state.lastAck {
			replay = append(replay, seq)
		}
	}
	return replay
}

// Publish appends event to the stream log (assigning it the next
// sequence number) and delivers it to every active subscriber.
func (s *Stream) Publish(event FrameEvent) uint64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	s.nextSeq++
	event.Sequence = s.nextSeq
	s.logPayloads[event.Sequence] = event
	s.logOrder = append(s.logOrder, event.Sequence)

	type delivery struct {
		ch      chan FrameEvent
		payload FrameEvent
	}
	deliveries := make([]delivery, 0, len(s.subscribers))
	for _, state := range s.subscribers {
		state.pending = append(state.pending, event.Sequence)
		if state.active && state.ch != nil {
			deliveries = append(deliveries, delivery{ch: state.ch, payload: event})
		}
	}
	s.enforceRetentionLocked()
	s.mu.Unlock()

	for _, d := range deliveries {
		select {
		case d.ch <- d.payload:
		default:
		}
	}
	return event.Sequence
}

func (s *Stream) enforceRetentionLocked() {
	if len(s.logOrder) <= s.retention {
		return
	}
	minAck := s.nextSeq
	for _, state := range s.subscribers {
		if state.lastAck < minAck {
			minAck = state.lastAck
		}
	}
	cutoff := s.logOrder[len(s.logOrder)-s.retention]
	pruneBefore := minAck
	if cutoff < pruneBefore {
		pruneBefore = cutoff
	}
	if pruneBefore == 0 {
		return
	}
	idx := sort.Search(len(s.logOrder), func(i int) bool { return s.logOrder[i] > pruneBefore })
	for _, seq := range s.logOrder[:idx] {
		delete(s.logPayloads, seq)
	}
	s.logOrder = append([]uint64(nil), s.logOrder[idx:]...)
}

func (s *Stream) ack(subscriberID string, sequence uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.subscribers[subscriberID]
	if !ok {
		return errors.New("livestream: unknown subscriber")
	}
	if len(state.pending) == 0 {
		if sequence <= state.lastAck {
			return nil
		}
		return ErrOutOfOrderAck
	}
	if sequence != state.pending[0] {
		return ErrOutOfOrderAck
	}
	state.pending = state.pending[1:]
	state.lastAck = sequence
	s.enforceRetentionLocked()
	return nil
}

func (s *Stream) deactivateSubscriber(subscriberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.subscribers[subscriberID]
	if !ok {
		return
	}
	state.active = false
	if state.ch != nil {
		close(state.ch)
		state.ch = nil
	}
}
