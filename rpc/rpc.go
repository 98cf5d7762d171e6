// rpc/rpc.go
package rpc

import (
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/partyserver/logger"
	"github.com/wfunc/partyserver/room"
	"github.com/wfunc/partyserver/session"
)

// Server manages the RPC listener. Each Server carries its own rpc
// instance so services never collide across servers in one process.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server. Services are registered on it
// before Start is called.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
		rpc:      rpc.NewServer(),
	}, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Admin exposes operational queries over net/rpc.
type Admin struct {
	registry *room.Registry
	sessions *session.Manager
	started  time.Time
}

// NewAdmin creates the admin service over the live registry and session
// table.
func NewAdmin(registry *room.Registry, sessions *session.Manager) *Admin {
	return &Admin{
		registry: registry,
		sessions: sessions,
		started:  time.Now(),
	}
}

// Register publishes the service as "Admin" on the given server.
func (a *Admin) Register(srv *Server) error {
	return srv.rpc.RegisterName("Admin", a)
}

type StatsArgs struct{}

type StatsReply struct {
	Rooms         int
	CardRooms     int
	TriviaRooms   int
	Players       int
	Sessions      int
	UptimeSeconds float64
}

// Stats reports a point-in-time snapshot of rooms, players, and sessions.
// It follows the net/rpc signature: exported method, exported arguments,
// second argument is a pointer, return type is error.
func (a *Admin) Stats(args *StatsArgs, reply *StatsReply) error {
	stats := a.registry.Stats()
	reply.Rooms = stats.Rooms
	reply.CardRooms = stats.CardRooms
	reply.TriviaRooms = stats.TriviaRooms
	reply.Players = stats.Players
	reply.Sessions = a.sessions.Count()
	reply.UptimeSeconds = time.Since(a.started).Seconds()
	return nil
}
