package internal

import (
	"github.com/google/uuid"
	"net"
	"net/rpc"
	"os"
	"strings"
	"testing"
	"time"
)

func newTestService(t *testing.T, secret []byte) (*Compositor, *rpc.Client, chan os.Signal) {
	t.Helper()
	c := NewCompositor(newFakeSource(64, 18), nil, &EventQueue{}, 1280, 720)
	done := make(chan os.Signal, 1)
	server := NewPlayerService(c, secret, done)
	serverConn, clientConn := net.Pipe()
	go server.ServeConn(serverConn)
	client := rpc.NewClient(clientConn)
	t.Cleanup(func() {
		_ = client.Close()
		c.Close()
	})
	return c, client, done
}

func TestRemoteToggleIsQueued(t *testing.T) {
	c, client, _ := newTestService(t, nil)
	var out RemoteStatus
	if err := client.Call("PlayerService.Toggle", RemoteArgs{}, &out); err != nil {
		t.Fatal(err)
	}
	if out.Mode != Normal.String() || out.Label != Normal.Label() {
		t.Fatalf("expected the mode before the toggle (%s), but got %+v", Normal, out)
	}
	if c.Modes().Mode() != Normal {
		t.Fatalf("expected the toggle to wait for the next tick, but mode is already %s", c.Modes().Mode())
	}
	if n := c.ProcessEvents(); n != 1 {
		t.Fatalf("expected 1 queued event, but got %d", n)
	}
	if c.Modes().Mode() != NonStereoVR {
		t.Fatalf("expected %s, but got %s", NonStereoVR, c.Modes().Mode())
	}
	if err := client.Call("PlayerService.Mode", RemoteArgs{}, &out); err != nil {
		t.Fatal(err)
	}
	if out.Mode != NonStereoVR.String() {
		t.Fatalf("expected %s, but got %s", NonStereoVR, out.Mode)
	}
}

func TestRemoteSession(t *testing.T) {
	c, client, _ := newTestService(t, nil)
	var out RemoteStatus
	if err := client.Call("PlayerService.SessionStart", RemoteArgs{}, &out); err != nil {
		t.Fatal(err)
	}
	id, err := uuid.Parse(out.Session)
	if err != nil {
		t.Fatalf("expected a session id, but got %q: %v", out.Session, err)
	}
	c.ProcessEvents()
	if !c.Modes().InSession() {
		t.Fatalf("expected an active session")
	}
	if err := client.Call("PlayerService.SessionEnd", RemoteArgs{Session: "not-a-uuid"}, &out); err == nil {
		t.Fatalf("expected an error for a malformed session id")
	}
	if err := client.Call("PlayerService.SessionEnd", RemoteArgs{Session: id.String()}, &out); err != nil {
		t.Fatal(err)
	}
	c.ProcessEvents()
	if c.Modes().InSession() {
		t.Fatalf("expected the session to be over")
	}
}

func TestRemoteLayout(t *testing.T) {
	c, client, _ := newTestService(t, nil)
	c.Events().Toggle()
	c.Events().Toggle()
	c.ProcessEvents()
	var snap LayoutSnapshot
	if err := client.Call("PlayerService.Layout", RemoteArgs{}, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Mode != StereoVR {
		t.Fatalf("expected %s, but got %s", StereoVR, snap.Mode)
	}
	if len(snap.Surfaces) != int(SurfaceCount) {
		t.Fatalf("expected %d surfaces, but got %d", SurfaceCount, len(snap.Surfaces))
	}
	visible := VisibleSet(StereoVR)
	for _, s := range snap.Surfaces {
		if s.Visible != visible[s.ID] {
			t.Fatalf("expected %s visible=%t, but got %t", s.ID, visible[s.ID], s.Visible)
		}
	}
}

func TestRemoteAuthorization(t *testing.T) {
	secret := []byte("correct horse battery staple")
	_, client, _ := newTestService(t, secret)
	var out RemoteStatus

	err := client.Call("PlayerService.Mode", RemoteArgs{}, &out)
	if err == nil || !strings.Contains(err.Error(), errUnauthorized.Error()) {
		t.Fatalf("expected %v without a token, but got %v", errUnauthorized, err)
	}

	bad, err := NewRemoteToken([]byte("wrong secret"), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err = client.Call("PlayerService.Mode", RemoteArgs{Token: bad}, &out); err == nil {
		t.Fatalf("expected a token signed with another secret to be rejected")
	}

	expired, err := NewRemoteToken(secret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err = client.Call("PlayerService.Mode", RemoteArgs{Token: expired}, &out); err == nil {
		t.Fatalf("expected an expired token to be rejected")
	}

	good, err := NewRemoteToken(secret, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err = client.Call("PlayerService.Mode", RemoteArgs{Token: good}, &out); err != nil {
		t.Fatalf("expected a valid token to be accepted, but got %v", err)
	}
}

func TestRemoteShutdown(t *testing.T) {
	_, client, done := newTestService(t, nil)
	var out int
	if err := client.Call("PlayerService.Shutdown", RemoteArgs{Timeout: time.Second}, &out); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-done:
		if s != os.Kill {
			t.Fatalf("expected %v, but got %v", os.Kill, s)
		}
	default:
		t.Fatalf("expected a shutdown signal")
	}
	// Nobody reads the channel now that it is full
	done <- os.Interrupt
	if err := client.Call("PlayerService.Shutdown", RemoteArgs{Timeout: 10 * time.Millisecond}, &out); err == nil {
		t.Fatalf("expected a timeout")
	}
}
