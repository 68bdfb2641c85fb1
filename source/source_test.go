package source

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBufferNotReady(t *testing.T) {
	b := NewBuffer()
	if b.IsReady() {
		t.Fatal("expected a new buffer not to be ready")
	}
	if _, _, ok := b.CurrentImage(context.Background()); ok {
		t.Fatal("expected no frame before the first write")
	}
}

func TestBufferWriteRead(t *testing.T) {
	b := NewBuffer()
	pix := make([]byte, 4*2*4)
	pix[0], pix[3] = 200, 255
	if err := b.Write(4, 2, pix); err != nil {
		t.Fatal(err)
	}
	if err := b.Write(4, 2, pix[:8]); err == nil {
		t.Fatal("expected a short frame to be rejected")
	}
	img, release, ok := b.CurrentImage(context.Background())
	if !ok {
		t.Fatal("expected a frame after a write")
	}
	defer release()
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 || img.RGBAAt(0, 0).R != 200 {
		t.Fatalf("expected the written frame, but got %v %v", img.Bounds(), img.RGBAAt(0, 0))
	}
	if b.Seq() != 1 {
		t.Fatalf("expected 1 frame written, but got %d", b.Seq())
	}
}

func TestBufferReadDoesNotBlockOnWriter(t *testing.T) {
	b := NewBuffer()
	b.WriteImage(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	b.lock.Lock() // Decoder in the middle of a write
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, _, ok := b.CurrentImage(ctx); ok {
		t.Fatal("expected the read to give up while the frame is being written")
	}
	if time.Since(start) > time.Second {
		t.Fatal("expected the read to give up quickly")
	}
	b.lock.Unlock()
}

func TestBufferWriterWaitsForReaders(t *testing.T) {
	b := NewBuffer()
	b.WriteImage(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	_, release, ok := b.CurrentImage(context.Background())
	if !ok {
		t.Fatal("expected a frame")
	}
	done := make(chan struct{})
	go func() {
		b.WriteImage(image.NewRGBA(image.Rect(0, 0, 3, 3)))
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("expected the write to wait for the borrowed frame")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected the write to complete after release")
	}
}

func TestBufferRecoversFromFailure(t *testing.T) {
	b := NewBuffer()
	b.Fail(os.ErrClosed)
	if b.Err() == nil {
		t.Fatal("expected the failure to be reported")
	}
	b.WriteImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if b.Err() != nil {
		t.Fatalf("expected a new frame to clear the failure, but got %v", b.Err())
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err = png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestImageSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sbs.png")
	writePNG(t, path, Pattern(32, 9, color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}))

	src, err := NewImage(ImageConfig{Path: path, Width: 64, Height: 18})
	if err != nil {
		t.Fatal(err)
	}
	img, release, ok := src.CurrentImage(context.Background())
	if !ok {
		t.Fatal("expected the image to be ready")
	}
	if img.Bounds().Size() != image.Pt(64, 18) {
		t.Fatalf("expected a rescaled 64x18 frame, but got %v", img.Bounds().Size())
	}
	if c := img.RGBAAt(2, 1); c.R < 200 || c.B > 50 {
		t.Fatalf("expected the left eye to be red, but got %v", c)
	}
	release()

	writePNG(t, path, Pattern(16, 9, color.RGBA{G: 255, A: 255}, color.RGBA{G: 255, A: 255}))
	src.Reload()
	img, release, _ = src.CurrentImage(context.Background())
	defer release()
	if c := img.RGBAAt(2, 1); c.G < 200 {
		t.Fatalf("expected the reloaded frame, but got %v", c)
	}
	if src.Seq() != 2 {
		t.Fatalf("expected 2 frames, but got %d", src.Seq())
	}
}

func TestImageSourceMissing(t *testing.T) {
	src, err := NewImage(ImageConfig{Path: filepath.Join(t.TempDir(), "missing.png")})
	if err == nil || src.Err() == nil {
		t.Fatal("expected a missing file to fail")
	}
	if src.IsReady() {
		t.Fatal("expected a failed source not to be ready")
	}
}

func TestScale(t *testing.T) {
	src := Pattern(20, 10, color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255})
	for _, interp := range []string{"nearest", "bilinear", "catmullrom", "bicubic"} {
		if got := Scale(src, 40, 15, interp).Bounds().Size(); got != image.Pt(40, 15) {
			t.Fatalf("%s: expected 40x15, but got %v", interp, got)
		}
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.mp4")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changed := make(chan string, 8)
	if err := Watch(ctx, []string{path}, 10*time.Millisecond, func(p string) { changed <- p }); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("c"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-changed:
		if filepath.Base(p) != "video.mp4" {
			t.Fatalf("expected a change of video.mp4, but got %s", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}
}
