package player

import (
	"fmt"
	"github.com/Yeicor/sbs-player/internal"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"image"
	"image/color"
)

var defaultFont font.Face = basicfont.Face7x13

const indicatorMargin, indicatorPadding = 10, 6

// onUpdateInputs handles inputs. Every action is queued and applied by the next tick.
func (p *Player) onUpdateInputs() {
	// Mode toggle: key or a click/tap on the indicator
	toggle := inpututil.IsKeyJustPressed(ebiten.KeyM)
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		cx, cy := ebiten.CursorPosition()
		toggle = toggle || image.Pt(cx, cy).In(p.indicatorRect())
	}
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		tx, ty := ebiten.TouchPosition(id)
		toggle = toggle || image.Pt(tx, ty).In(p.indicatorRect())
	}
	if toggle {
		p.events.Toggle()
	}

	// Emulated VR session (for desktop testing without a VR runtime)
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		p.uiLock.Lock()
		if p.emulatedSession == uuid.Nil {
			p.emulatedSession = p.events.SessionStart()
		} else {
			p.events.SessionEnd(p.emulatedSession)
			p.emulatedSession = uuid.Nil
		}
		p.uiLock.Unlock()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		p.uiLock.Lock()
		p.hud = !p.hud
		p.uiLock.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		p.cancel()
	}
}

// indicatorRect is the clickable area of the mode indicator (top-right corner).
func (p *Player) indicatorRect() image.Rectangle {
	p.uiLock.RLock()
	screenW := p.screenSize[0]
	p.uiLock.RUnlock()
	label := p.Mode().Label()
	bounds := text.BoundString(defaultFont, label)
	w, h := bounds.Dx()+2*indicatorPadding, bounds.Dy()+2*indicatorPadding
	return image.Rect(screenW-indicatorMargin-w, indicatorMargin, screenW-indicatorMargin, indicatorMargin+h)
}

// drawUI draws the mode indicator, the last decode warning and (optionally) the controls.
func (p *Player) drawUI(screen *ebiten.Image) {
	mode := p.Mode()
	p.uiLock.RLock()
	info, hud := p.lastTick, p.hud
	screenH := p.screenSize[1]
	p.uiLock.RUnlock()

	// Mode indicator: pressed state only in stereo VR
	r := p.indicatorRect()
	fill := color.RGBA{R: 40, G: 40, B: 40, A: 200}
	if mode == StereoVR {
		fill = color.RGBA{R: 30, G: 110, B: 200, A: 230}
	}
	vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), fill, false)
	vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), 1, color.White, false)
	text.Draw(screen, mode.Label(), defaultFont, r.Min.X+indicatorPadding, r.Max.Y-indicatorPadding-2, color.White)

	if info.Warning != nil {
		drawDefaultTextWithShadow(screen, "Playback stalled: "+info.Warning.Error(), 5, 5+12, color.RGBA{R: 255, A: 255})
	} else if info.Skipped != nil && info.Drawn == nil {
		drawDefaultTextWithShadow(screen, "Loading...", 5, 5+12, color.RGBA{R: 255, G: 200, A: 255})
	}

	if !hud {
		return
	}
	msg := p.hudMessage(info)
	boundString := text.BoundString(defaultFont, msg)
	drawDefaultTextWithShadow(screen, msg, 5, screenH-boundString.Dy()+10, color.RGBA{G: 255, A: 255})
}

// hudMessage describes the player state. Render goroutine only: sessions may come from the remote API too.
func (p *Player) hudMessage(info internal.TickInfo) string {
	return fmt.Sprintf("TPS: %0.2f/%d\nMode: %s [M / click]\nVR session: %t [V]\nSurfaces drawn: %d\nHide help [H]  Quit [Esc]",
		ebiten.ActualTPS(), ebiten.TPS(), p.Mode().Label(), p.compositor.Modes().InSession(), len(info.Drawn))
}

func drawDefaultTextWithShadow(screen *ebiten.Image, msg string, x, y int, c color.Color) {
	text.Draw(screen, msg, defaultFont, x+1, y+1, color.RGBA{A: 255})
	text.Draw(screen, msg, defaultFont, x, y, c)
}
