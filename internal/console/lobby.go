package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/domain"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/session"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrUsernameTooLong  = errors.New("username is too long")
)

var validate = validator.New()

// NewLobby validates the username typed in the lobby.
func NewLobby(username string) (domain.Lobby, error) {
	lobby := domain.Lobby{Username: strings.TrimSpace(username)}
	if err := validate.Struct(&lobby); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
			return lobby, ErrUsernameTooLong
		}
		return lobby, ErrUsernameRequired
	}
	return lobby, nil
}

// ChannelResolver is satisfied by *bootstrap.Resolver.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context) (domain.ChannelTarget, error)
}

// Joiner takes a lobby username to an open session.
type Joiner struct {
	resolver ChannelResolver
	opts     []session.Option
}

func NewJoiner(resolver ChannelResolver, opts ...session.Option) *Joiner {
	return &Joiner{resolver: resolver, opts: opts}
}

// Join validates username, resolves the channel and waits for the session
// to open. Nothing is dialed unless the channel resolves.
func (j *Joiner) Join(ctx context.Context, username string) (*session.Session, error) {
	lobby, err := NewLobby(username)
	if err != nil {
		return nil, err
	}

	l := log.Ctx(ctx)
	target, err := j.resolver.ResolveChannel(ctx)
	if err != nil {
		l.Warn().Err(err).Msg("failed to resolve channel")
		return nil, err
	}

	s := session.Open(ctx, target, lobby.Username, j.opts...)
	select {
	case <-s.Opened():
		return s, nil
	case <-s.Done():
		return nil, fmt.Errorf("failed to open session: %w", s.Err())
	case <-ctx.Done():
		s.Close()
		return nil, ctx.Err()
	}
}
