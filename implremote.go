package player

import (
	"github.com/Yeicor/sbs-player/internal"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"log"
	"net/rpc"
	"time"
)

// RemoteClient drives a player started with OptRServe from another process (e.g. a VR runtime bridge that
// forwards session start/end), using Go's net/rpc.
type RemoteClient struct {
	cl       *rpc.Client
	secret   []byte
	tokenTTL time.Duration
}

// DialRemote connects to a player listening on addr. secret must match the player's (empty if none).
func DialRemote(addr string, secret []byte) (*RemoteClient, error) {
	cl, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "player: dial %s", addr)
	}
	return newRemoteClient(cl, secret), nil
}

// newRemoteClient see RemoteClient
func newRemoteClient(client *rpc.Client, secret []byte) *RemoteClient {
	return &RemoteClient{cl: client, secret: secret, tokenTTL: time.Minute}
}

func (d *RemoteClient) call(method string, args internal.RemoteArgs, out interface{}) error {
	if len(d.secret) > 0 {
		token, err := internal.NewRemoteToken(d.secret, d.tokenTTL)
		if err != nil {
			return errors.Wrap(err, "player: sign remote token")
		}
		args.Token = token
	}
	err := d.cl.Call("PlayerService."+method, args, out)
	if err != nil {
		log.Println("[Remote] Error on remote call (PlayerService."+method+"):", err)
	}
	return err
}

// Mode returns the remote player's current mode.
func (d *RemoteClient) Mode() (Mode, error) {
	var out internal.RemoteStatus
	if err := d.call("Mode", internal.RemoteArgs{}, &out); err != nil {
		return Normal, err
	}
	return internal.ParseMode(out.Mode)
}

// Toggle queues a mode toggle and returns the mode it toggles from.
func (d *RemoteClient) Toggle() (Mode, error) {
	var out internal.RemoteStatus
	if err := d.call("Toggle", internal.RemoteArgs{}, &out); err != nil {
		return Normal, err
	}
	return internal.ParseMode(out.Mode)
}

// SessionStart reports that the host entered a VR session.
func (d *RemoteClient) SessionStart() (uuid.UUID, error) {
	var out internal.RemoteStatus
	if err := d.call("SessionStart", internal.RemoteArgs{}, &out); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(out.Session)
}

// SessionEnd reports that the host left the VR session id (uuid.Nil: the current one).
func (d *RemoteClient) SessionEnd(id uuid.UUID) error {
	args := internal.RemoteArgs{}
	if id != uuid.Nil {
		args.Session = id.String()
	}
	var out internal.RemoteStatus
	return d.call("SessionEnd", args, &out)
}

// Layout returns the remote player's surfaces.
func (d *RemoteClient) Layout() (*LayoutSnapshot, error) {
	var out LayoutSnapshot
	if err := d.call("Layout", internal.RemoteArgs{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Shutdown asks the remote player to exit, waiting at most timeout for it to accept.
func (d *RemoteClient) Shutdown(timeout time.Duration) error {
	var out int
	return d.call("Shutdown", internal.RemoteArgs{Timeout: timeout}, &out)
}

// Close closes the connection.
func (d *RemoteClient) Close() error {
	return d.cl.Close()
}
