package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// LogStreamConfig configures the logs-subscription client.
type LogStreamConfig struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	// Buffer is the event channel capacity; bursts beyond it block the
	// reader rather than dropping events.
	Buffer int
}

// DefaultLogStreamConfig returns the default stream configuration.
func DefaultLogStreamConfig() LogStreamConfig {
	return LogStreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            4096,
	}
}

// LogStream maintains a logsSubscribe subscription for a single program
// over a reconnecting WebSocket and delivers notifications on a channel.
type LogStream struct {
	endpoint string
	program  string
	cfg      LogStreamConfig
	log      zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	events chan LogEvent
	subID  atomic.Int64
	reqID  atomic.Uint64

	closed       atomic.Bool
	reconnecting atomic.Bool
	done         chan struct{}
	wg           sync.WaitGroup
}

// NewLogStream connects, subscribes to logs mentioning program, and
// starts the reader and ping loops.
func NewLogStream(ctx context.Context, endpoint, program string, cfg *LogStreamConfig, log zerolog.Logger) (*LogStream, error) {
	c := DefaultLogStreamConfig()
	if cfg != nil {
		c = *cfg
	}

	s := &LogStream{
		endpoint: endpoint,
		program:  program,
		cfg:      c,
		log:      log.With().Str("component", "logstream").Logger(),
		events:   make(chan LogEvent, c.Buffer),
		done:     make(chan struct{}),
	}

	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.subscribe(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	// Publish the connection only after the subscription handshake so
	// the read loop never competes with subscribe for frames.
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()

	return s, nil
}

// Events returns the notification channel. Closed on Close.
func (s *LogStream) Events() <-chan LogEvent { return s.events }

// Close terminates the subscription and the connection.
func (s *LogStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.events)
	return nil
}

func (s *LogStream) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", s.endpoint, err)
	}
	return conn, nil
}

// subscribe sends logsSubscribe on conn and waits for the subscription
// id. Called before conn is visible to the read loop.
func (s *LogStream) subscribe(ctx context.Context, conn *websocket.Conn) error {
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      s.reqID.Add(1),
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": []string{s.program}},
			map[string]string{"commitment": "confirmed"},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	deadline := time.Now().Add(30 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn.SetReadDeadline(deadline)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read subscribe response: %w", err)
		}

		var resp wsSubscribeResponse
		if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 && resp.ID == req.ID {
			s.subID.Store(resp.Result)
			return nil
		}
		// Anything else (an early notification, an unrelated frame)
		// is handled by the read loop once subscription completes.
	}
}

func (s *LogStream) readLoop() {
	defer s.wg.Done()

	delay := s.cfg.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}

			s.connMu.Lock()
			if s.conn == conn {
				conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()

			if !s.reconnecting.Swap(true) {
				go s.reconnect(delay)
			}
			delay *= 2
			if delay > s.cfg.MaxReconnectDelay {
				delay = s.cfg.MaxReconnectDelay
			}

			select {
			case <-s.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		delay = s.cfg.ReconnectDelay
		s.handleMessage(message)
	}
}

func (s *LogStream) reconnect(wait time.Duration) {
	defer s.reconnecting.Store(false)

	if s.closed.Load() {
		return
	}

	select {
	case <-s.done:
		return
	case <-time.After(wait):
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := s.connect(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("reconnect failed, will retry on next read error")
		return
	}
	if err := s.subscribe(ctx, conn); err != nil {
		conn.Close()
		s.log.Warn().Err(err).Msg("resubscribe failed")
		return
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	s.log.Info().Msg("reconnected and resubscribed")
}

func (s *LogStream) handleMessage(message []byte) {
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "logsNotification" {
		return
	}
	if notif.Params == nil || notif.Params.Subscription != s.subID.Load() {
		return
	}

	value := notif.Params.Result.Value
	event := LogEvent{
		Signature: value.Signature,
		Logs:      value.Logs,
		Err:       value.Err,
	}
	if notif.Params.Result.Context != nil {
		event.Slot = notif.Params.Result.Context.Slot
	}

	select {
	case s.events <- event:
	case <-s.done:
	}
}

func (s *LogStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				// A failed ping surfaces as a read error; the read
				// loop owns reconnection.
				s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

// WebSocket wire types.

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
