package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/okvist/wordrack/pkg/gamedto"
)

// conn is one accepted player transport. Events pass through a
// buffered queue so a stalled socket never blocks the goroutine that
// produced the event.
type conn struct {
	id   string
	sock *websocket.Conn

	queue    chan gamedto.Event
	stopCh   chan struct{}
	stopOnce sync.Once

	writeTimeout time.Duration
	logger       *zap.Logger
}

func newConn(id string, sock *websocket.Conn, queueSize int, writeTimeout time.Duration, logger *zap.Logger) *conn {
	return &conn{
		id:           id,
		sock:         sock,
		queue:        make(chan gamedto.Event, queueSize),
		stopCh:       make(chan struct{}),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// enqueue never blocks: a client too slow to drain its queue is cut
// off rather than allowed to stall a room.
func (c *conn) enqueue(evt gamedto.Event) {
	select {
	case <-c.stopCh:
	case c.queue <- evt:
	default:
		c.logger.Warn("ws_queue_full",
			zap.String("conn_id", c.id),
			zap.String("event", evt.Type))
		c.stop()
	}
}

func (c *conn) stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *conn) stopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// writeLoop drains the queue until the connection stops. Every write
// carries its own deadline.
func (c *conn) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case evt := <-c.queue:
			wctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
			err := wsjson.Write(wctx, c.sock, evt)
			cancel()
			if err != nil {
				if !c.stopped() {
					c.logger.Debug("ws_write_failed",
						zap.String("conn_id", c.id),
						zap.Error(err))
				}
				c.stop()
				return
			}
		}
	}
}
