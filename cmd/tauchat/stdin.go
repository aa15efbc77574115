package main

import (
	"io"
	"sync"

	"github.com/chzyer/readline"
)

// submitStdin feeds readline from src and can end the pending line on
// demand. Submit makes a blocked Readline return what was typed so far.
type submitStdin struct {
	chunks chan []byte
	submit chan struct{}
	closed chan struct{}
	once   sync.Once
	buf    []byte
}

func newSubmitStdin(src io.Reader) *submitStdin {
	s := &submitStdin{
		chunks: make(chan []byte),
		submit: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	go s.pump(src)
	return s
}

func (s *submitStdin) pump(src io.Reader) {
	defer close(s.chunks)
	for {
		b := make([]byte, 256)
		n, err := src.Read(b)
		if n > 0 {
			select {
			case s.chunks <- b[:n]:
			case <-s.closed:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Read is called by readline's single reader goroutine.
func (s *submitStdin) Read(p []byte) (int, error) {
	if len(s.buf) > 0 {
		n := copy(p, s.buf)
		s.buf = s.buf[n:]
		return n, nil
	}

	select {
	case chunk, ok := <-s.chunks:
		if !ok {
			return 0, io.EOF
		}
		n := copy(p, chunk)
		s.buf = append(s.buf[:0], chunk[n:]...)
		return n, nil
	case <-s.submit:
		p[0] = readline.CharEnter
		return 1, nil
	case <-s.closed:
		return 0, io.EOF
	}
}

// Submit ends the pending line. Only one submit is kept until read.
func (s *submitStdin) Submit() {
	select {
	case s.submit <- struct{}{}:
	default:
	}
}

// Discard drops a submit nobody read.
func (s *submitStdin) Discard() {
	select {
	case <-s.submit:
	default:
	}
}

func (s *submitStdin) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}
