package live

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/query"
	"github.com/desertthunder/pullsense/internal/shared"
)

// DefaultReconnectDelay is the fixed wait between a drop and the next dial.
const DefaultReconnectDelay = 3 * time.Second

// State is the connection state of a [Channel].
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Invalidator is the part of [query.Cache] the channel writes to.
type Invalidator interface {
	Invalidate(keys ...query.Key)
}

// Options configures a [Channel]. URL and Cache are required.
type Options struct {
	URL            string
	Cache          Invalidator
	Dialer         Dialer
	ReconnectDelay time.Duration
	AfterFunc      AfterFunc
	Logger         *log.Logger

	// OnState is called after every state change.
	OnState func(State)
	// OnMessage is called for every recognized message after its invalidations.
	OnMessage func(models.PushMessage)
}

// Channel owns the push socket and its reconnect timer.
type Channel struct {
	url       string
	cache     Invalidator
	dialer    Dialer
	delay     time.Duration
	afterFunc AfterFunc
	logger    *log.Logger
	onState   func(State)
	onMessage func(models.PushMessage)

	emitMu    sync.Mutex
	mu        sync.Mutex
	state     State
	conn      Conn
	timer     Timer
	started   bool
	closed    bool
	ctx       context.Context
	cancel    context.CancelFunc
	stopWatch func() bool
}

// NewChannel creates a Channel in the Disconnected state. Nothing is dialed until [Channel.Start].
func NewChannel(opts Options) *Channel {
	c := &Channel{
		url:       opts.URL,
		cache:     opts.Cache,
		dialer:    opts.Dialer,
		delay:     opts.ReconnectDelay,
		afterFunc: opts.AfterFunc,
		logger:    opts.Logger,
		onState:   opts.OnState,
		onMessage: opts.OnMessage,
	}
	if c.dialer == nil {
		c.dialer = WebsocketDialer{}
	}
	if c.delay <= 0 {
		c.delay = DefaultReconnectDelay
	}
	if c.afterFunc == nil {
		c.afterFunc = RealAfterFunc
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(io.Discard)
	}
	return c
}

// Start begins connecting in the background. Cancelling ctx closes the channel.
//
// Calls after the first, or after Close, do nothing.
func (c *Channel) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.stopWatch = context.AfterFunc(ctx, func() { c.Close() })
	c.mu.Unlock()

	go c.connect()
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the socket is open.
func (c *Channel) IsConnected() bool {
	return c.State() == Connected
}

// Close cancels any pending reconnect and closes the socket. It is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopTimer()

	conn := c.conn
	c.conn = nil
	prev := c.state
	c.state = Disconnected
	cancel, stopWatch := c.cancel, c.stopWatch
	c.mu.Unlock()

	if stopWatch != nil {
		stopWatch()
	}
	if cancel != nil {
		cancel()
	}

	var err error
	if conn != nil {
		err = conn.Close()
	}
	if prev != Disconnected {
		c.emit(Disconnected)
	}
	c.logger.Debug("live updates closed", "url", c.url)
	return err
}

func (c *Channel) connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimer()
	c.state = Connecting
	ctx := c.ctx
	c.mu.Unlock()
	c.emit(Connecting)

	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		c.dropped(err)
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.state = Connected
	c.stopTimer()
	c.mu.Unlock()

	c.logger.Info("live updates connected", "url", c.url)
	c.emit(Connected)
	c.read(conn)
}

// read processes frames in arrival order until the socket fails.
func (c *Channel) read(conn Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			c.dropped(err)
			return
		}
		c.handle(frame)
	}
}

// dropped moves to Disconnected and schedules the single reconnect.
func (c *Channel) dropped(err error) {
	c.mu.Lock()
	c.conn = nil
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state = Disconnected
	c.stopTimer()
	c.timer = c.afterFunc(c.delay, c.connect)
	c.mu.Unlock()

	c.logger.Warn("live updates disconnected", "err", &shared.SocketDropped{URL: c.url, Err: err}, "retry_in", c.delay)
	c.emit(Disconnected)
}

// stopTimer clears the pending reconnect. Callers hold c.mu.
func (c *Channel) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Channel) handle(frame []byte) {
	msg, err := models.DecodePushMessage(frame)
	if err != nil {
		c.logger.Warn("dropping push message", "err", err)
		return
	}

	switch msg.Type {
	case models.MessagePRCreated:
		c.invalidate(query.DashboardKey())
	case models.MessageAnalysisComplete:
		id, err := msg.PRID()
		if err != nil {
			c.logger.Warn("dropping push message", "type", msg.Type, "err", err)
			return
		}
		c.invalidate(query.DashboardKey(), query.AnalysisKey(id))
	default:
		c.logger.Info("ignoring push message", "type", msg.Type)
		return
	}

	c.logger.Debug("push message", "type", msg.Type)
	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

func (c *Channel) invalidate(keys ...query.Key) {
	if c.cache != nil {
		c.cache.Invalidate(keys...)
	}
}

// emit reports s to OnState unless a later transition already replaced it,
// so observers always finish on the current state.
func (c *Channel) emit(s State) {
	if c.onState == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if c.State() != s {
		return
	}
	c.onState(s)
}
