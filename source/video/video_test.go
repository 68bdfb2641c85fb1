package video

import (
	"context"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"strings"
	"testing"
	"time"
)

func TestVideoURI(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected an empty URI to be rejected")
	}
	v, err := New(Config{URI: "movie.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(v.uri, "file:///") || !strings.HasSuffix(v.uri, "/movie.mp4") {
		t.Fatalf("expected a file URI, but got %s", v.uri)
	}
	if v.cfg.MaxRetryTime != time.Minute {
		t.Fatalf("expected the default retry time, but got %s", v.cfg.MaxRetryTime)
	}
	v, _ = New(Config{URI: "rtsp://camera/stream", Width: 1920, Height: 540})
	if v.uri != "rtsp://camera/stream" || v.caps() != "video/x-raw,format=RGBA,width=1920,height=540" {
		t.Fatalf("unexpected pipeline settings: %s %s", v.uri, v.caps())
	}
	v.Reload()
	v.Reload() // Coalesced
	if len(v.restart) != 1 {
		t.Fatalf("expected one pending restart, but got %d", len(v.restart))
	}
}

// scriptedVideo replaces the pipeline with a fixed sequence of outcomes, one per run.
func scriptedVideo(t *testing.T, cfg Config, outcomes ...error) (*Video, *int) {
	t.Helper()
	cfg.URI = "file:///movie.mp4"
	v, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	plays := 0
	v.play = func(ctx context.Context) error {
		plays++
		if plays > len(outcomes) {
			t.Errorf("expected at most %d runs, but got %d", len(outcomes), plays)
			return nil
		}
		return outcomes[plays-1]
	}
	return v, &plays
}

func runUntilDone(t *testing.T, v *Video, ctx context.Context) {
	t.Helper()
	done := make(chan struct{})
	v.wg.Add(1)
	go func() {
		v.run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("expected the decoding loop to exit")
	}
}

func TestVideoRun(t *testing.T) {
	pipelineErr := errors.New("video: pipeline error: internal data stream error")
	cases := []struct {
		name     string
		cfg      Config
		outcomes []error
		plays    int
		failed   bool
	}{
		{"end of stream stops without loop", Config{}, []error{backoff.Permanent(errEndOfStream)}, 1, false},
		{"end of stream restarts with loop", Config{Loop: true},
			[]error{backoff.Permanent(errEndOfStream), backoff.Permanent(errEndOfStream), nil}, 3, false},
		{"reload restarts", Config{}, []error{backoff.Permanent(errRestart), backoff.Permanent(errEndOfStream)}, 2, false},
		{"transient error is retried", Config{}, []error{pipelineErr, backoff.Permanent(errEndOfStream)}, 2, false},
		{"persistent error gives up", Config{MaxRetryTime: time.Nanosecond}, []error{pipelineErr}, 1, true},
		{"broken pipeline gives up", Config{}, []error{backoff.Permanent(pipelineErr)}, 1, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, plays := scriptedVideo(t, c.cfg, c.outcomes...)
			runUntilDone(t, v, context.Background())
			if *plays != c.plays {
				t.Fatalf("expected %d runs, but got %d", c.plays, *plays)
			}
			if failed := v.Err() != nil; failed != c.failed {
				t.Fatalf("expected failed=%t, but got error %v", c.failed, v.Err())
			}
			if c.failed && errors.Cause(v.Err()).Error() != pipelineErr.Error() {
				t.Fatalf("expected the source error to be %v, but got %v", pipelineErr, v.Err())
			}
		})
	}
}

func TestVideoRunCancelled(t *testing.T) {
	v, err := New(Config{URI: "file:///movie.mp4"})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.play = func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return nil
	}
	runUntilDone(t, v, ctx)
	if v.Err() != nil {
		t.Fatalf("expected no source error after a shutdown, but got %v", v.Err())
	}
}
