package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/bootstrap"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/config"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/console"
	"github.com/AldanisVigo/tb-website-TauChat-Frontend/internal/session"
	pkglog "github.com/AldanisVigo/tb-website-TauChat-Frontend/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.LoadClient()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Logs go to stderr, the transcript to stdout.
	cfg.Log.Output = os.Stderr
	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = pkglog.WithLogger(ctx, logger)

	stdin := newSubmitStdin(os.Stdin)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "username> ",
		Stdin:           stdin,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open terminal")
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		stdin.Close()
		rl.Close()
	}()

	resolver := bootstrap.NewResolver(cfg.Endpoint.BaseURL, cfg.Client.Host, bootstrap.HostMap(cfg.HostMap()), cfg.Endpoint.Timeout)
	joiner := console.NewJoiner(resolver, session.WithConfig(cfg.WebSocket))
	renderer := console.NewRenderer(rl.Stdout())

	logger.Info().Str(pkglog.FieldEndpoint, cfg.Endpoint.BaseURL).Str("client_host", cfg.Client.Host).Msg("tauchat starting")

	for {
		s, ok := lobby(ctx, rl, joiner, renderer)
		if !ok {
			return
		}
		if !chat(rl, stdin, renderer, s) {
			return
		}
	}
}

// lobby prompts for a username until a session opens. It reports false when
// the user quits.
func lobby(ctx context.Context, rl *readline.Instance, joiner *console.Joiner, renderer *console.Renderer) (*session.Session, bool) {
	for {
		rl.SetPrompt("username> ")
		line, err := rl.Readline()
		if err != nil {
			return nil, false
		}

		renderer.Status(console.StatusLoading)
		s, err := joiner.Join(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false
			}
			renderer.Failure(err)
			continue
		}
		return s, true
	}
}

// chat runs the composer for s. It reports false when the user quits and
// true when the session ended and the lobby should be shown again.
func chat(rl *readline.Instance, stdin *submitStdin, renderer *console.Renderer, s *session.Session) bool {
	followed := make(chan struct{})
	go func() {
		renderer.Follow(s)
		close(followed)
	}()

	left := make(chan struct{})
	var watcher sync.WaitGroup
	watcher.Add(1)
	go func() {
		defer watcher.Done()
		select {
		case <-s.Done():
			stdin.Submit()
		case <-left:
		}
	}()

	defer func() {
		close(left)
		watcher.Wait()
		stdin.Discard()
		s.Close()
		<-followed
	}()

	rl.SetPrompt(s.Identity() + "> ")

	for {
		line, err := rl.Readline()
		if err != nil {
			// readline.ErrInterrupt, io.EOF, or the terminal closed on shutdown.
			return false
		}
		if ended(s) {
			return true
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := s.Say(line); err != nil {
			renderer.Failure(err)
			if s.State().Terminal() {
				return true
			}
		}
	}
}

func ended(s *session.Session) bool {
	select {
	case <-s.Done():
		return true
	default:
		return false
	}
}
