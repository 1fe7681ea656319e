package tasks

import (
	"context"

	"github.com/desertthunder/pullsense/internal/live"
	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/query"
)

const defaultUpdateBuffer = 16

// UpdateKind distinguishes [Update] payloads.
type UpdateKind int

const (
	StateChanged UpdateKind = iota
	MessageReceived
	Invalidated
)

func (k UpdateKind) String() string {
	switch k {
	case StateChanged:
		return "state"
	case MessageReceived:
		return "message"
	case Invalidated:
		return "invalidated"
	default:
		return ""
	}
}

// Update is one event for a view.
type Update struct {
	Kind    UpdateKind
	State   live.State         // StateChanged
	Message models.PushMessage // MessageReceived
	Keys    []query.Key        // Invalidated
}

// Touches reports whether an Invalidated update covers key.
func (u Update) Touches(key query.Key) bool {
	for _, k := range u.Keys {
		if key.HasPrefix(k) {
			return true
		}
	}
	return false
}

// LiveSync connects a [live.Channel] to a cache and fans its events into one update stream.
type LiveSync struct {
	channel     *live.Channel
	updates     chan Update
	unsubscribe func()
}

// NewLiveSync creates the channel described by opts, writing invalidations to cache.
//
// opts.OnState and opts.OnMessage are still called before the update is queued.
func NewLiveSync(cache *query.Cache, opts live.Options, buffer int) *LiveSync {
	if buffer <= 0 {
		buffer = defaultUpdateBuffer
	}
	s := &LiveSync{updates: make(chan Update, buffer)}

	onState, onMessage := opts.OnState, opts.OnMessage
	opts.Cache = cache
	opts.OnState = func(state live.State) {
		if onState != nil {
			onState(state)
		}
		s.sendUpdate(Update{Kind: StateChanged, State: state})
	}
	opts.OnMessage = func(msg models.PushMessage) {
		if onMessage != nil {
			onMessage(msg)
		}
		s.sendUpdate(Update{Kind: MessageReceived, Message: msg})
	}

	s.channel = live.NewChannel(opts)
	s.unsubscribe = cache.Subscribe(func(keys []query.Key) {
		s.sendUpdate(Update{Kind: Invalidated, Keys: keys})
	})
	return s
}

// Start connects the channel. Cancelling ctx closes it.
func (s *LiveSync) Start(ctx context.Context) { s.channel.Start(ctx) }

// Updates returns the update stream. It is never closed.
func (s *LiveSync) Updates() <-chan Update { return s.updates }

// Channel returns the owned push channel.
func (s *LiveSync) Channel() *live.Channel { return s.channel }

// IsConnected reports whether the push socket is open.
func (s *LiveSync) IsConnected() bool { return s.channel.IsConnected() }

// Close stops forwarding invalidations and closes the channel.
func (s *LiveSync) Close() error {
	s.unsubscribe()
	return s.channel.Close()
}

// sendUpdate sends an update through the channel without blocking.
//
// A dropped StateChanged is recovered by readers calling [LiveSync.IsConnected]
// when they drain the buffered updates.
func (s *LiveSync) sendUpdate(update Update) {
	select {
	case s.updates <- update:
	default:
		// Channel full, skip this update
	}
}
