package console

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/domain"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/session"
)

// StatusLoading is shown while the channel is being resolved and opened.
const StatusLoading = "Loading chat..."

// Renderer writes chat lines to a terminal. Messages authored by the local
// identity are styled as outgoing, everything else as incoming.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	outgoing color.Style
	incoming color.Style
	status   color.Style
	failure  color.Style
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		out:      out,
		outgoing: color.New(color.FgCyan, color.OpBold),
		incoming: color.New(color.FgGreen),
		status:   color.New(color.FgGray),
		failure:  color.New(color.FgRed),
	}
}

// Line formats msg as "sender - msg".
func Line(msg domain.ChatMessage) string {
	return msg.Sender + " - " + msg.Body
}

// Message writes one chat line.
func (r *Renderer) Message(msg domain.ChatMessage, self bool) {
	style := r.incoming
	if self {
		style = r.outgoing
	}
	r.println(style.Render(Line(msg)))
}

func (r *Renderer) Status(text string) {
	r.println(r.status.Render(text))
}

// Failure writes err in a form meant for the user.
func (r *Renderer) Failure(err error) {
	r.println(r.failure.Render(Describe(err)))
}

func (r *Renderer) println(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

// Follow renders everything s delivers until it is released. Decode
// failures are left to the session log.
func (r *Renderer) Follow(s *session.Session) {
	messages, errs := s.Messages(), s.Errors()
	for messages != nil || errs != nil {
		select {
		case msg, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			r.Message(msg, s.IsSelf(msg))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			var decodeErr *domain.FrameDecodeError
			if errors.As(err, &decodeErr) {
				continue
			}
			r.Failure(err)
		}
	}
}

// Describe turns an error into a one-line user-facing message.
func Describe(err error) string {
	var transportErr *domain.TransportError
	switch {
	case errors.Is(err, ErrUsernameRequired):
		return "Please enter a username."
	case errors.Is(err, ErrUsernameTooLong):
		return "That username is too long."
	case errors.Is(err, domain.ErrEndpointUnavailable):
		return "Could not reach the chat service. Please try again."
	case errors.Is(err, domain.ErrSessionClosed), errors.Is(err, domain.ErrNotOpen):
		return "Not connected to the chat."
	case errors.Is(err, domain.ErrMessageTooLarge):
		return "That message is too long to send."
	case errors.Is(err, domain.ErrSendQueueFull):
		return "Sending too fast, message dropped."
	case errors.As(err, &transportErr):
		return "Connection lost: " + transportErr.Err.Error()
	default:
		return err.Error()
	}
}
