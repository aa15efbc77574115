package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/config"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/domain"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
)

// Session owns one WebSocket connection to a chat channel.
//
// Inbound frames are decoded in arrival order and delivered on Messages.
// Outbound messages are written in Send order by a single writer.
// Transport and decode failures are delivered on Errors. Close is the only
// way to cancel a session; once it returns no further event is delivered
// and both event channels are closed.
type Session struct {
	target   domain.ChannelTarget
	identity string
	cfg      config.WebSocketConfig
	dialer   Dialer
	now      func() time.Time
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   domain.State
	conn    *websocket.Conn
	lastErr error
	closing bool // Close was called

	send     chan []byte
	messages chan domain.ChatMessage
	errs     chan error

	opened   chan struct{}
	done     chan struct{} // closed on the first terminal transition
	finished chan struct{} // closed once every goroutine has exited

	readers sync.WaitGroup // connect + read pump
	writers sync.WaitGroup // write pump
}

// Open starts connecting to target as identity and returns immediately in
// the Connecting state. Opened is closed once the handshake succeeds.
// ctx supplies the logger; cancelling it does not close the session.
func Open(ctx context.Context, target domain.ChannelTarget, identity string, opts ...Option) *Session {
	s := &Session{
		target:   target,
		identity: identity,
		cfg:      DefaultConfig(),
		now:      time.Now,
		state:    domain.StateConnecting,
		opened:   make(chan struct{}),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		messages: make(chan domain.ChatMessage),
		errs:     make(chan error, errorBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg = withDefaults(s.cfg)
	if s.dialer == nil {
		s.dialer = newDialer(s.cfg)
	}
	s.send = make(chan []byte, s.cfg.SendBuffer)

	l := log.Ctx(ctx)
	s.logger = l.With().
		Str(log.FieldAddress, target.Address).
		Str(log.FieldIdentity, identity).
		Logger()
	s.ctx, s.cancel = context.WithCancel(log.WithLogger(context.WithoutCancel(ctx), s.logger))

	s.readers.Add(1)
	go s.connect()
	go s.supervise()

	s.logger.Debug().Msg("session connecting")
	return s
}

// Target returns the channel this session is bound to.
func (s *Session) Target() domain.ChannelTarget {
	return s.target
}

// Identity returns the local display name.
func (s *Session) Identity() string {
	return s.identity
}

// State returns the current lifecycle state.
func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the most recent recorded error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Opened is closed when the session reaches Open.
func (s *Session) Opened() <-chan struct{} {
	return s.opened
}

// Done is closed after the session reached Closed or Failed and released
// its transport.
func (s *Session) Done() <-chan struct{} {
	return s.finished
}

// Messages yields decoded inbound messages in wire order.
func (s *Session) Messages() <-chan domain.ChatMessage {
	return s.messages
}

// Errors yields *domain.TransportError and *domain.FrameDecodeError values.
func (s *Session) Errors() <-chan error {
	return s.errs
}

// IsSelf reports whether msg was authored under this session's identity.
func (s *Session) IsSelf(msg domain.ChatMessage) bool {
	return msg.AuthoredBy(s.identity)
}

// Say sends body as a new message stamped with the current time.
func (s *Session) Say(body string) error {
	return s.Send(domain.NewChatMessage(s.identity, body, s.now()))
}

// Send hands msg to the writer. The sender is always replaced by the
// session identity and a zero SentAt is stamped with the current time.
// A session that is not Open drops the message and returns ErrNotOpen;
// after Close it returns ErrSessionClosed. A frame larger than
// MaxMessageSize is never queued and returns ErrMessageTooLarge.
func (s *Session) Send(msg domain.ChatMessage) error {
	msg.Sender = s.identity
	if msg.SentAt == 0 {
		msg.SentAt = s.now().UnixMilli()
	}

	data, err := domain.EncodeFrame(msg)
	if err != nil {
		return err
	}
	if int64(len(data)) > s.cfg.MaxMessageSize {
		s.logger.Warn().Int(log.FieldBytes, len(data)).Int64("limit", s.cfg.MaxMessageSize).Msg("message too large, not sent")
		return domain.ErrMessageTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateOpen:
	case domain.StateClosed:
		return domain.ErrSessionClosed
	default:
		s.logger.Warn().Str(log.FieldState, s.state.String()).Msg("session not open, message dropped")
		return domain.ErrNotOpen
	}

	select {
	case s.send <- data:
		return nil
	default:
		s.logger.Warn().Int("queued", len(s.send)).Msg("send queue full, message dropped")
		return domain.ErrSendQueueFull
	}
}

// Close releases the transport. It is idempotent and blocks until no
// further events can be delivered.
func (s *Session) Close() error {
	s.mu.Lock()
	if !s.state.Terminal() {
		s.closing = true
		s.setStateLocked(domain.StateClosed)
	}
	s.mu.Unlock()

	<-s.finished
	return nil
}

// setStateLocked must be called with s.mu held.
func (s *Session) setStateLocked(to domain.State) bool {
	if !domain.CanTransition(s.state, to) {
		return false
	}
	from := s.state
	s.state = to

	switch {
	case to == domain.StateOpen:
		close(s.opened)
	case to.Terminal():
		close(s.done)
	}

	s.logger.Info().Str("from", from.String()).Str(log.FieldState, to.String()).Msg("session state changed")
	return true
}

func (s *Session) connect() {
	defer s.readers.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.HandshakeTimeout)
	defer cancel()

	conn, _, err := s.dialer.DialContext(ctx, s.target.Address, nil)
	if err != nil {
		s.fail(&domain.TransportError{Op: "dial", Err: err})
		return
	}

	s.mu.Lock()
	if !s.setStateLocked(domain.StateOpen) {
		// Closed while dialing.
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.readers.Add(1)
	s.writers.Add(1)
	s.mu.Unlock()

	go s.readPump(conn)
	go s.writePump(conn)
}

// fail records err and moves the session to Failed unless it is already
// terminal. Errors raised while closing are dropped.
func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.lastErr = err
	s.setStateLocked(domain.StateFailed)
	s.mu.Unlock()

	s.logger.Error().Err(err).Msg("session transport failed")
	s.emitError(err)
}

// report records a recoverable error without changing state.
func (s *Session) report(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	s.emitError(err)
}

func (s *Session) emitError(err error) {
	select {
	case s.errs <- err:
	default:
		s.logger.Warn().Err(err).Msg("error notification dropped, no reader")
	}
}

func (s *Session) readPump(conn *websocket.Conn) {
	defer s.readers.Done()

	conn.SetReadLimit(s.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		return nil
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			s.readFailed(err)
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))

		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}

		msg, err := domain.DecodeFrame(data)
		if err != nil {
			s.logger.Warn().Err(err).Int(log.FieldBytes, len(data)).Msg("dropping undecodable frame")
			s.report(err)
			continue
		}

		select {
		case s.messages <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *Session) readFailed(err error) {
	select {
	case <-s.done:
		// Expected once Close tears the connection down.
		return
	default:
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.mu.Lock()
		s.setStateLocked(domain.StateClosed)
		s.mu.Unlock()
		s.logger.Info().Err(err).Msg("remote closed the channel")
		return
	}

	s.fail(&domain.TransportError{Op: "read", Err: err})
}

func (s *Session) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.writers.Done()
	}()

	for {
		select {
		case data := <-s.send:
			if err := s.write(conn, websocket.TextMessage, data); err != nil {
				s.fail(&domain.TransportError{Op: "write", Err: err})
				return
			}

		case <-ticker.C:
			if err := s.write(conn, websocket.PingMessage, nil); err != nil {
				s.fail(&domain.TransportError{Op: "ping", Err: err})
				return
			}

		case <-s.done:
			s.flush(conn)
			return
		}
	}
}

func (s *Session) write(conn *websocket.Conn, kind int, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
	return conn.WriteMessage(kind, data)
}

// flush writes frames already accepted by Send before an explicit Close.
func (s *Session) flush(conn *websocket.Conn) {
	if !s.closedByCaller() {
		return
	}
	for {
		select {
		case data := <-s.send:
			if err := s.write(conn, websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

// supervise tears the session down after its first terminal transition.
func (s *Session) supervise() {
	<-s.done
	s.cancel()

	s.writers.Wait()
	s.closeConn()
	s.readers.Wait()

	if s.closedByCaller() {
		s.drainErrors()
	}
	close(s.messages)
	close(s.errs)
	close(s.finished)

	s.logger.Debug().Msg("session released")
}

func (s *Session) closedByCaller() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Session) closeConn() {
	s.mu.Lock()
	conn := s.conn
	closing := s.closing
	s.mu.Unlock()

	if conn == nil {
		return
	}
	if closing {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteWait))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			s.logger.Debug().Err(err).Msg("failed to send close frame")
		}
	}
	conn.Close()
}

func (s *Session) drainErrors() {
	for {
		select {
		case <-s.errs:
		default:
			return
		}
	}
}
