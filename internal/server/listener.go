package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
)

// Server accepts validator connections and runs one session per
// connection.  Sessions are independent goroutines; a slow validator
// never blocks the accept loop.  Stop closes the listening socket so
// pending accepts drop, while in-flight sessions finish their single
// reply before the final wait returns.
type Server struct {
	handler *SessionHandler

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// New returns a Server dispatching into the given handler.
func New(handler *SessionHandler) *Server {
	return &Server{handler: handler}
}

// Listen binds the listening socket.  Binding is separate from Serve so
// the caller can fail fast on an occupied port before starting the rest
// of the process.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	log.Printf("server: listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until the listener is closed.  Each
// accepted connection is handed to the session handler on its own
// goroutine.  Serve returns nil after Stop closes the socket.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("server: accept: %v", err)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handler.Handle(ctx, conn)
		}()
	}
}

// Stop closes the listening socket and waits for in-flight sessions to
// finish.  Safe to call more than once.
func (s *Server) Stop() {
	s.mu.Lock()
	ln := s.ln
	s.ln = nil
	s.mu.Unlock()
	if ln != nil {
		if err := ln.Close(); err != nil {
			log.Printf("server: close listener: %v", err)
		}
	}
	s.wg.Wait()
}
