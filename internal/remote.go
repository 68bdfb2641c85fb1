package internal

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"net/rpc"
	"os"
	"time"
)

var errUnauthorized = errors.New("remote: unauthorized")

// RemoteArgs is an internal struct that has to be exported for RPC.
type RemoteArgs struct {
	Token   string        // HS256 JWT, required when the service has a secret
	Session string        // Session id (SessionEnd only; empty ends the current session)
	Timeout time.Duration // Shutdown only
}

// RemoteStatus is an internal struct that has to be exported for RPC.
type RemoteStatus struct {
	Mode    string // Persisted form of the current mode
	Label   string // Indicator label
	Session string // Id of the session started by SessionStart
}

// PlayerService is an internal struct that has to be exported for RPC.
// It lets another process (e.g. the VR runtime bridge) drive a running player. Every call only queues an event
// for the next render tick or reads thread-safe state: it never touches the state machine directly.
type PlayerService struct {
	compositor *Compositor
	secret     []byte
	done       chan os.Signal
}

// NewPlayerService see PlayerService. An empty secret disables authentication.
func NewPlayerService(c *Compositor, secret []byte, done chan os.Signal) *rpc.Server {
	server := rpc.NewServer()
	srv := &PlayerService{compositor: c, secret: secret, done: done}
	err := server.Register(srv)
	if err != nil {
		panic(err) // Shouldn't happen (only on bad implementation)
	}
	return server
}

// NewRemoteToken signs a short-lived token accepted by a PlayerService configured with secret.
func NewRemoteToken(secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "sbs-player-remote",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString(secret)
}

func (s *PlayerService) authorize(token string) error {
	if len(s.secret) == 0 {
		return nil
	}
	_, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return errors.Wrap(errUnauthorized, err.Error())
	}
	return nil
}

func (s *PlayerService) status(out *RemoteStatus) {
	m := s.compositor.Modes().Mode()
	out.Mode = m.String()
	out.Label = m.Label()
}

// Mode is an internal method that has to be exported for RPC.
func (s *PlayerService) Mode(args RemoteArgs, out *RemoteStatus) error {
	if err := s.authorize(args.Token); err != nil {
		return err
	}
	s.status(out)
	return nil
}

// Toggle is an internal method that has to be exported for RPC.
// Toggle queues a mode toggle; the returned status is the mode before the toggle is applied.
func (s *PlayerService) Toggle(args RemoteArgs, out *RemoteStatus) error {
	if err := s.authorize(args.Token); err != nil {
		return err
	}
	s.status(out)
	s.compositor.Events().Toggle()
	return nil
}

// SessionStart is an internal method that has to be exported for RPC.
func (s *PlayerService) SessionStart(args RemoteArgs, out *RemoteStatus) error {
	if err := s.authorize(args.Token); err != nil {
		return err
	}
	s.status(out)
	out.Session = s.compositor.Events().SessionStart().String()
	return nil
}

// SessionEnd is an internal method that has to be exported for RPC.
func (s *PlayerService) SessionEnd(args RemoteArgs, out *RemoteStatus) error {
	if err := s.authorize(args.Token); err != nil {
		return err
	}
	id := uuid.Nil
	if args.Session != "" {
		var err error
		if id, err = uuid.Parse(args.Session); err != nil {
			return errors.Wrap(err, "remote: bad session id")
		}
	}
	s.status(out)
	out.Session = args.Session
	s.compositor.Events().SessionEnd(id)
	return nil
}

// Layout is an internal method that has to be exported for RPC.
func (s *PlayerService) Layout(args RemoteArgs, out *LayoutSnapshot) error {
	if err := s.authorize(args.Token); err != nil {
		return err
	}
	*out = *s.compositor.Snapshot()
	return nil
}

// Shutdown is an internal method that has to be exported for RPC.
// Shutdown sends a signal on the configured channel (with a timeout)
func (s *PlayerService) Shutdown(args RemoteArgs, _ *int) error {
	if err := s.authorize(args.Token); err != nil {
		return err
	}
	select {
	case s.done <- os.Kill:
		return nil
	case <-time.After(args.Timeout):
		return errors.New("shutdown timeout")
	}
}
