// Package diagstream implements the "optional AST dump to an external sink"
// spec.md §6.3 describes: an HTTP/3 server, adapted from the teacher's
// internal/runtime/netstack.HTTP3Server wrapper (same Start()/Stop()
// ephemeral-port lifecycle), that streams a running cmd/linkjump -watch
// session's diagnostics and post-pass AST dumps to a connected IDE or
// dashboard client instead of requiring it to re-read stdout.
package diagstream

import (
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	http3 "github.com/quic-go/quic-go/http3"

	"github.com/hdlsim/vlower/internal/diagnostics"
)

// Update is one payload pushed to subscribed clients: the diagnostics from
// the most recent lowering run, and, when -dump-ast is set, the indented
// JSON AST dump alongside them.
type Update struct {
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
	ASTDump     json.RawMessage          `json:"ast_dump,omitempty"`
}

// Server is an HTTP/3 sink that keeps the latest Update in memory and serves
// it to any client polling GET /latest, matching the teacher's
// HTTP3Server wrapper shape (Start returns the bound address; Stop closes
// the listener and waits for Serve to return).
type Server struct {
	srv  *http3.Server
	pc   net.PacketConn
	addr string

	mu     sync.RWMutex
	latest Update

	close func() error
}

// New constructs a Server bound to addr (use ":0" for an ephemeral port) with
// the given TLS config, matching internal/runtime/netstack.NewHTTP3Server's
// constructor shape.
func New(addr string, tlsCfg *tls.Config) *Server {
	s := &Server{addr: addr}

	mux := http.NewServeMux()
	mux.HandleFunc("/latest", s.handleLatest)

	s.srv = &http3.Server{Addr: addr, TLSConfig: tlsCfg, Handler: mux}

	return s
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.latest)
}

// Publish replaces the latest Update served to clients. cmd/linkjump calls
// this once per -watch re-lowering.
func (s *Server) Publish(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = u
}

// Start begins serving HTTP/3 on an ephemeral UDP port if addr ends in
// ":0", returning the actual bound address.
func (s *Server) Start() (string, error) {
	var err error

	s.pc, err = net.ListenPacket("udp", s.addr)
	if err != nil {
		return "", err
	}

	realAddr := s.pc.LocalAddr().String()
	done := make(chan struct{})

	go func() {
		_ = s.srv.Serve(s.pc)
		close(done)
	}()

	s.close = func() error {
		_ = s.pc.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}

		return nil
	}

	return realAddr, nil
}

// Stop closes the server's listener and waits (briefly) for Serve to exit.
func (s *Server) Stop() error {
	if s.close != nil {
		return s.close()
	}

	return nil
}

// InsecureTLSConfig returns a permissive self-signed-friendly TLS config for
// local -diag-stream use, matching the teacher's WithInsecureMinTLS12 helper.
func InsecureTLSConfig(cert tls.Certificate) *tls.Config {
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
}
