// Package notify posts deploy announcements to a chat room. Announcements
// are best-effort: nothing here can fail a deploy.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/commoncode/vhdeploy/internal/config"
	"github.com/commoncode/vhdeploy/internal/logger"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// DefaultTimeout bounds the dial and each write so a dead chat server can't
// stall a deploy.
const DefaultTimeout = 5 * time.Second

// Notifier receives deploy announcements. Announce never fails.
type Notifier interface {
	Announce(ctx context.Context, msg string)
	Close() error
}

// New returns a Chat sink for cfg, or Noop when no URL is configured.
func New(cfg config.NotifyConfig, log logger.Logger) Notifier {
	if cfg.URL == "" {
		return Noop{}
	}
	return NewChat(cfg, log)
}

// Noop drops every announcement.
type Noop struct{}

func (Noop) Announce(context.Context, string) {}
func (Noop) Close() error                     { return nil }

// Frame is one JSON message on the chat socket.
type Frame struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Body string `json:"body,omitempty"`
}

const (
	FrameJoin  = "join"
	FrameSpeak = "speak"
)

// Chat announces over a websocket. The connection is opened on the first
// Announce; if that dial or the room join fails the sink disables itself
// and later announcements are dropped.
type Chat struct {
	url     string
	room    string
	token   string
	timeout time.Duration
	log     logger.Logger

	once     sync.Once
	mu       sync.Mutex
	conn     *websocket.Conn
	disabled bool
}

// NewChat builds a Chat sink. Nothing is dialed until the first Announce.
func NewChat(cfg config.NotifyConfig, log logger.Logger) *Chat {
	if log == nil {
		log = logger.Noop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Chat{
		url:     cfg.URL,
		room:    cfg.Room,
		token:   cfg.Token,
		timeout: timeout,
		log:     log,
	}
}

// Announce speaks msg in the configured room.
func (c *Chat) Announce(ctx context.Context, msg string) {
	c.once.Do(func() { c.light(ctx) })

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disabled || c.conn == nil {
		c.log.Debug("notify: dropped %q", msg)
		return
	}

	if err := c.write(ctx, Frame{Type: FrameSpeak, Room: c.room, Body: msg}); err != nil {
		c.log.Warn("notify: couldn't post to %s, disabling announcements: %v", c.room, err)
		c.disable()
	}
}

// Disabled reports whether the sink has given up.
func (c *Chat) Disabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled
}

// Close says goodbye to the server if a connection is open.
func (c *Chat) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "deploy finished")
	c.conn = nil
	return err
}

// light dials and joins the room.
func (c *Chat) light(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := &websocket.DialOptions{}
	if c.token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + c.token}}
	}

	conn, _, err := websocket.Dial(dialCtx, c.url, opts)
	if err != nil {
		c.log.Warn("notify: couldn't reach chat at %s, continuing without announcements: %v", c.url, err)
		c.disabled = true
		return
	}
	c.conn = conn

	if err := c.write(ctx, Frame{Type: FrameJoin, Room: c.room}); err != nil {
		c.log.Warn("notify: couldn't join %s, continuing without announcements: %v", c.room, err)
		c.disable()
		return
	}
	c.log.Debug("notify: joined %s", c.room)
}

func (c *Chat) write(ctx context.Context, f Frame) error {
	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return wsjson.Write(wctx, c.conn, f)
}

// disable must be called with mu held.
func (c *Chat) disable() {
	c.disabled = true
	if c.conn != nil {
		c.conn.CloseNow()
		c.conn = nil
	}
}

// Deploying is the announcement sent before a host is touched.
func Deploying(user, refspec, summary, role string) string {
	return fmt.Sprintf("%s deploying %s (%s) to [%s]", user, refspec, summary, role)
}

// Deployed is the announcement sent after a host finishes.
func Deployed(user, refspec, summary, role string) string {
	return fmt.Sprintf("%s deployed %s (%s) to [%s]", user, refspec, summary, role)
}
