// server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/partyserver/broadcast"
	"github.com/wfunc/partyserver/config"
	"github.com/wfunc/partyserver/game"
	"github.com/wfunc/partyserver/logger"
	"github.com/wfunc/partyserver/monitor"
	"github.com/wfunc/partyserver/network"
	"github.com/wfunc/partyserver/room"
	partyrpc "github.com/wfunc/partyserver/rpc"
	"github.com/wfunc/partyserver/session"
	"github.com/wfunc/partyserver/timer"
)

const (
	metricsNamespace  = "partyserver"
	heartbeatInterval = 30 * time.Second
)

// GameServer owns the websocket endpoint and every shared component
// behind it: the session table, the room registry, the broadcaster, the
// admin RPC listener, and the metrics monitor.
type GameServer struct {
	cfg      *config.Config
	upgrader websocket.Upgrader

	timers      *timer.TimerManager
	sessions    *session.Manager
	broadcaster *broadcast.RoomBroadcaster
	registry    *room.Registry
	monitor     *monitor.Monitor
	rpcServer   *partyrpc.Server

	httpServer *http.Server
}

func NewGameServer(cfg *config.Config, questions []game.Question) (*GameServer, error) {
	s := &GameServer{
		cfg:      cfg,
		timers:   timer.NewTimerManager(),
		sessions: session.NewManager(),
		monitor:  monitor.NewMonitor(metricsNamespace),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	opts := roomOptions(cfg, questions)
	opts.OnGameStarted = func(v room.Variant) {
		s.monitor.IncGamesStarted(string(v))
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessions)
	s.registry = room.NewRegistry(opts, s.broadcaster, s.timers)
	s.broadcaster.AttachRegistry(s.registry)
	s.registry.OnRoomReaped = func() {
		s.monitor.IncRoomsReaped()
		s.monitor.SetActiveRooms(s.registry.RoomCount())
	}

	rpcServer, err := partyrpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		return nil, fmt.Errorf("create rpc server: %w", err)
	}
	if err := partyrpc.NewAdmin(s.registry, s.sessions).Register(rpcServer); err != nil {
		rpcServer.Stop()
		return nil, fmt.Errorf("register admin service: %w", err)
	}
	s.rpcServer = rpcServer

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Addr: cfg.Server.HTTPAddress, Handler: mux}

	return s, nil
}

// roomOptions maps the game config onto room options, keeping defaults
// for anything left unset.
func roomOptions(cfg *config.Config, questions []game.Question) room.Options {
	opts := room.DefaultOptions()
	if cfg.Game.MaxCardPlayers > 0 {
		opts.MaxCardPlayers = cfg.Game.MaxCardPlayers
	}
	if cfg.Game.MaxTriviaPlayers > 0 {
		opts.MaxTriviaPlayers = cfg.Game.MaxTriviaPlayers
	}
	if cfg.Game.HandSize > 0 {
		opts.HandSize = cfg.Game.HandSize
	}
	if cfg.Game.VoteWindow > 0 {
		opts.VoteWindow = cfg.Game.VoteWindow
	}
	if cfg.Game.ResultsWindow > 0 {
		opts.ResultsWindow = cfg.Game.ResultsWindow
	}
	if cfg.Game.AnimationWindow > 0 {
		opts.AnimationWindow = cfg.Game.AnimationWindow
	}
	if len(questions) > 0 {
		opts.Questions = questions
	}
	return opts
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.monitor.StartServer(s.cfg.Server.MonitorAddress)
	s.registry.StartCleanup(s.cfg.Game.CleanupInterval, s.cfg.Game.RoomTTL)

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown closes every room, drops every connection, and stops the
// listeners. Rooms are closed before connections so clients see the
// room-closed event ahead of the socket going away.
func (s *GameServer) Shutdown(ctx context.Context) {
	logger.Log.Info("Shutting down game server")

	s.httpServer.Shutdown(ctx)
	s.registry.StopCleanup()
	s.registry.Shutdown(room.ReasonServerShutdown)

	for _, sess := range s.sessions.All() {
		sess.Close()
	}

	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)

	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessions.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.ID)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.ID)
		s.registry.HandleDisconnect(sess.ID)
		s.sessions.Remove(sess.ID)
		s.monitor.DecOnlinePlayers()
		s.monitor.SetActiveRooms(s.registry.RoomCount())
		wsConn.Close()
	}()

	for {
		env, err := wsConn.ReadEnvelope()
		if err != nil {
			// A frame that fails to decode is the client's problem; a
			// failed read means the socket is gone.
			if errors.Is(err, network.ErrMalformedEnvelope) {
				s.sendError(sess, err.Error())
				continue
			}
			return
		}
		s.handleEvent(sess, env)
	}
}

func (s *GameServer) handleEvent(sess *session.Session, env *network.Envelope) {
	start := time.Now()
	s.monitor.IncEventsReceived()
	sess.Touch()
	defer func() {
		s.monitor.ObserveEventLatency(time.Since(start))
	}()

	ev, err := network.DecodeClientEvent(env)
	if err != nil {
		logger.Log.Debugf("Rejected %q from session %s: %v", env.Event, sess.ID, err)
		s.sendError(sess, err.Error())
		return
	}

	switch ev := ev.(type) {
	case network.CreateRoomEvent:
		s.handleCreateRoom(sess, ev)
	case network.JoinRoomEvent:
		s.handleJoinRoom(sess, ev)
	case network.StartGameEvent:
		s.inRoom(sess, ev.RoomCode, func(r *room.Room) error {
			return r.HandleStartGame(sess.ID)
		})
	case network.PlayCardEvent:
		s.inRoom(sess, ev.RoomCode, func(r *room.Room) error {
			return r.HandlePlayCard(sess.ID, ev.CardIndex, ev.ChosenColor)
		})
	case network.DrawCardEvent:
		s.inRoom(sess, ev.RoomCode, func(r *room.Room) error {
			return r.HandleDrawCard(sess.ID)
		})
	case network.ChooseColorEvent:
		s.inRoom(sess, ev.RoomCode, func(r *room.Room) error {
			return r.HandleChooseColor(sess.ID, ev.Color)
		})
	case network.SubmitAnswerEvent:
		s.inRoom(sess, ev.RoomCode, func(r *room.Room) error {
			return r.HandleSubmitAnswer(sess.ID, ev.Answer)
		})
	case network.SubmitVoteEvent:
		s.inRoom(sess, ev.RoomCode, func(r *room.Room) error {
			return r.HandleSubmitVote(sess.ID, ev.Vote)
		})
	case network.RestartGameEvent:
		s.inRoom(sess, ev.RoomCode, func(r *room.Room) error {
			return r.HandleRestartGame(sess.ID)
		})
	case network.NewPlayersEvent:
		s.inRoom(sess, ev.RoomCode, func(r *room.Room) error {
			return r.HandleNewPlayers(sess.ID)
		})
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session, ev network.CreateRoomEvent) {
	r, err := s.registry.CreateRoom(sess, ev.GameType)
	if err != nil {
		s.sendError(sess, err.Error())
		return
	}

	logger.Log.Infof("Session %s created room %s (%s)", sess.ID, r.Code, r.Variant)
	s.monitor.SetActiveRooms(s.registry.RoomCount())

	s.send(sess, network.EventRoomCreated, network.RoomCreatedPayload{
		RoomCode: r.Code,
		GameType: string(r.Variant),
	})
}

// handleJoinRoom answers every join attempt with a join-result on the
// requesting connection; failures never surface as bare error events.
func (s *GameServer) handleJoinRoom(sess *session.Session, ev network.JoinRoomEvent) {
	_, res, err := s.registry.Join(sess, ev.RoomCode, ev.PlayerName)
	if err != nil {
		s.send(sess, network.EventJoinResult, network.JoinResultPayload{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	logger.Log.Infof("Session %s joined room %s as %q", sess.ID, ev.RoomCode, ev.PlayerName)
	s.send(sess, network.EventJoinResult, network.JoinResultPayload{
		Success: true,
		Player:  &res.Player,
		Room:    &res.Room,
	})
}

// inRoom resolves a room code and forwards the action, reporting any
// failure back to the acting session.
func (s *GameServer) inRoom(sess *session.Session, code string, fn func(*room.Room) error) {
	r, ok := s.registry.Lookup(code)
	if !ok {
		s.sendError(sess, room.ErrRoomNotFound.Error())
		return
	}
	if err := fn(r); err != nil {
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) send(sess *session.Session, event string, data interface{}) {
	if err := sess.SendEvent(event, data); err != nil {
		logger.Log.Debugf("Failed to send %s to session %s: %v", event, sess.ID, err)
	}
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	s.send(sess, network.EventError, network.ErrorPayload{Message: message})
}
