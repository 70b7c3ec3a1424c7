// Package banchotest provides an in-process mock of the Bancho IRC server
// for tests. A Server implements io.ReadWriteCloser so it can stand in for a
// network connection via a client's DialFn.
package banchotest

import (
	"bufio"
	"io"
	"log"
	"strings"
	"sync"
)

// NewServer creates a new mock server. Don't forget to close.
func NewServer() *Server {
	s := &Server{}
	s.sendReader, s.sendWriter = io.Pipe()
	s.recvReader, s.recvWriter = io.Pipe()

	s.recv = make(chan []byte, 1)

	// both exit when Close is called
	go s.read()
	go s.write()
	return s
}

// Server is one end of a fake connection. The client side reads and writes
// through the io.ReadWriteCloser interface; the test side injects server
// lines with WriteString and observes client lines through Handler.
type Server struct {
	// Handler is called with each complete line the client writes, without
	// the trailing CR-LF. May be nil.
	Handler func(line string)

	mu     sync.Mutex
	closed bool
	recv   chan []byte

	recvReader *io.PipeReader
	recvWriter *io.PipeWriter

	sendReader *io.PipeReader
	sendWriter *io.PipeWriter
}

// Read is how the client reads lines from the server.
func (s *Server) Read(p []byte) (int, error) {
	return s.sendReader.Read(p)
}

// Write is how the client sends lines to the server. A client flushing its
// QUIT against an already-closed server gets an error, not a panic.
func (s *Server) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	b := make([]byte, len(p))
	copy(b, p)
	s.recv <- b
	return len(p), nil
}

func (s *Server) Close() error {
	_ = s.recvWriter.Close()
	_ = s.sendWriter.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.recv)
	}
	return nil
}

// WriteString sends a line from the server to the client. A CR-LF is
// appended when missing.
func (s *Server) WriteString(str string) {
	if !strings.HasSuffix(str, "\r\n") {
		str = str + "\r\n"
	}
	if _, err := s.sendWriter.Write([]byte(str)); err != nil {
		log.Println("mock server write error:", err)
	}
}

func (s *Server) read() {
	scanner := bufio.NewScanner(s.recvReader)
	for scanner.Scan() {
		if s.Handler != nil {
			s.Handler(scanner.Text())
		}
	}
}

func (s *Server) write() {
	for b := range s.recv {
		if _, err := s.recvWriter.Write(b); err != nil {
			log.Println("mock server write error:", err)
		}
	}
}
