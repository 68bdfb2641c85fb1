// Package video decodes SBS video files and streams with GStreamer.
package video

import (
	"context"
	"fmt"
	"github.com/Yeicor/sbs-player/source"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
	"log"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	errEndOfStream = errors.New("end of stream")
	errRestart     = errors.New("restart requested")
)

// Config configures a GStreamer-decoded SBS video source.
type Config struct {
	// URI or local path of the video.
	URI string
	// Width and Height force the decoded frame size when both are > 0.
	Width, Height int
	// Loop restarts playback at end of stream.
	Loop bool
	// MaxRetryTime bounds the restarts after pipeline errors before the source gives up (0: 1 minute).
	MaxRetryTime time.Duration
}

// Video decodes a video file or stream into the shared frame: uridecodebin -> videoconvert -> videoscale ->
// capsfilter(RGBA) -> appsink. Pipeline errors restart it with exponential backoff.
type Video struct {
	*source.Buffer
	cfg     Config
	uri     string
	restart chan struct{}
	cancel  func()
	wg      sync.WaitGroup
	play    func(ctx context.Context) error // One pipeline run, see playPipeline
}

// New validates cfg. Call Start to begin decoding.
func New(cfg Config) (*Video, error) {
	uri, err := toURI(cfg.URI)
	if err != nil {
		return nil, err
	}
	if cfg.MaxRetryTime == 0 {
		cfg.MaxRetryTime = time.Minute
	}
	v := &Video{Buffer: source.NewBuffer(), cfg: cfg, uri: uri, restart: make(chan struct{}, 1), cancel: func() {}}
	v.play = v.playPipeline
	return v, nil
}

func toURI(s string) (string, error) {
	if s == "" {
		return "", errors.New("video: empty video URI")
	}
	if strings.Contains(s, "://") {
		return s, nil
	}
	abs, err := filepath.Abs(s)
	if err != nil {
		return "", errors.Wrap(err, "video: video path")
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Start launches the decoding goroutine. It stops when ctx is done or Close is called.
func (v *Video) Start(ctx context.Context) {
	gst.Init(nil) // Safe to call multiple times
	ctx, v.cancel = context.WithCancel(ctx)
	v.wg.Add(1)
	go v.run(ctx)
}

// Reload restarts the pipeline from the beginning (e.g. after the file changed on disk).
func (v *Video) Reload() {
	select {
	case v.restart <- struct{}{}:
	default: // Already pending
	}
}

// Close stops decoding and waits for the pipeline to be released. The last frame stays readable.
func (v *Video) Close() {
	v.cancel()
	v.wg.Wait()
}

func (v *Video) run(ctx context.Context) {
	defer v.wg.Done()
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = v.cfg.MaxRetryTime
	for {
		err := backoff.RetryNotify(func() error {
			return v.play(ctx)
		}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
			log.Println("[FrameSource] pipeline failed, restarting in", next.Round(time.Millisecond), "-", err)
		})
		if ctx.Err() != nil {
			return
		}
		switch {
		case errors.Is(err, errRestart):
			log.Println("[FrameSource] restarting", v.uri)
		case errors.Is(err, errEndOfStream):
			if !v.cfg.Loop {
				log.Println("[FrameSource] end of stream, keeping last frame")
				return
			}
		case err != nil:
			v.Fail(err)
			log.Println("[FrameSource] giving up:", err)
			return
		default:
			return
		}
		b.Reset()
	}
}

// playPipeline runs one pipeline until it fails, ends or is interrupted. Restart and end of stream are
// permanent so that run decides what comes next.
func (v *Video) playPipeline(ctx context.Context) error {
	pipeline, err := v.pipeline()
	if err != nil {
		return backoff.Permanent(err) // Missing plugins do not fix themselves
	}
	defer func() {
		if err := pipeline.SetState(gst.StateNull); err != nil {
			log.Println("[FrameSource] ignoring:", err)
		}
	}()
	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return errors.Wrap(err, "video: start pipeline")
	}
	log.Println("[FrameSource] playing", v.uri)

	bus := pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.restart:
			return backoff.Permanent(errRestart)
		default:
		}
		msg := bus.TimedPop(50 * time.Millisecond) // Short timeout for responsive shutdown
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageEOS:
			return backoff.Permanent(errEndOfStream)
		case gst.MessageError:
			gerr := msg.ParseError()
			return errors.Errorf("video: pipeline error: %s (%s)", gerr.Error(), gerr.DebugString())
		}
	}
}

func (v *Video) pipeline() (*gst.Pipeline, error) {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, errors.Wrap(err, "video: create pipeline")
	}
	elements := map[string]*gst.Element{}
	for _, name := range []string{"uridecodebin", "videoconvert", "videoscale", "capsfilter"} {
		if elements[name], err = gst.NewElement(name); err != nil {
			return nil, errors.Wrapf(err, "video: create %s", name)
		}
	}
	decode, convert := elements["uridecodebin"], elements["videoconvert"]
	decode.SetProperty("uri", v.uri)
	elements["capsfilter"].SetProperty("caps", gst.NewCapsFromString(v.caps()))

	sink, err := app.NewAppSink()
	if err != nil {
		return nil, errors.Wrap(err, "video: create appsink")
	}
	sink.SetProperty("max-buffers", 1) // Keep only the latest frame
	sink.SetProperty("drop", true)
	sink.SetCallbacks(&app.SinkCallbacks{NewSampleFunc: v.onSample})

	if err = pipeline.AddMany(decode, convert, elements["videoscale"], elements["capsfilter"], sink.Element); err != nil {
		return nil, errors.Wrap(err, "video: add elements")
	}
	if err = gst.ElementLinkMany(convert, elements["videoscale"], elements["capsfilter"], sink.Element); err != nil {
		return nil, errors.Wrap(err, "video: link elements")
	}
	// uridecodebin pads appear once the container is parsed
	decode.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		if ret := srcPad.Link(convert.GetStaticPad("sink")); ret != gst.PadLinkOK {
			log.Println("[FrameSource] ignoring pad", srcPad.GetName(), "(", ret, ")") // Audio or already linked
		}
	})
	return pipeline, nil
}

func (v *Video) caps() string {
	if v.cfg.Width > 0 && v.cfg.Height > 0 {
		return fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d", v.cfg.Width, v.cfg.Height)
	}
	return "video/x-raw,format=RGBA"
}

func (v *Video) onSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowOK // Skip the frame, not the stream
	}
	width, height := v.cfg.Width, v.cfg.Height
	if caps := sample.GetCaps(); caps != nil && caps.GetSize() > 0 {
		st := caps.GetStructureAt(0)
		if w, err := st.GetValue("width"); err == nil {
			if w, ok := w.(int); ok {
				width = w
			}
		}
		if h, err := st.GetValue("height"); err == nil {
			if h, ok := h.(int); ok {
				height = h
			}
		}
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}
	mapInfo := buffer.Map(gst.MapRead)
	err := v.Write(width, height, mapInfo.Bytes())
	buffer.Unmap()
	if err != nil {
		log.Println("[FrameSource] skipping frame:", err)
	}
	return gst.FlowOK
}
