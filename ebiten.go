package player

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// playerEbitenGame hides the private ebiten implementation while behaving like a *Player internally
type playerEbitenGame struct {
	*Player
}

func (g playerEbitenGame) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}
	g.onUpdateInputs()
	return nil
}

func (g playerEbitenGame) Draw(screen *ebiten.Image) {
	g.canvas.screen = screen
	info := g.compositor.Tick(g.canvas)
	g.uiLock.Lock()
	g.lastTick = info
	g.uiLock.Unlock()
	g.drawUI(screen)
}

func (g playerEbitenGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.uiLock.Lock()
	newScreenSize := [2]int{outsideWidth, outsideHeight}
	changed := g.screenSize != newScreenSize
	g.screenSize = newScreenSize
	g.uiLock.Unlock()
	if changed { // Applied before the next draw
		g.events.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight // Use all available pixels, no re-scaling
}
