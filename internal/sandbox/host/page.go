package host

import (
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/dom"
)

// PageConfig sizes the simulated page.
type PageConfig struct {
	Realm          Config
	ViewportWidth  int
	ViewportHeight int
}

// DefaultPageConfig returns a 1280x800 viewport with the default realm.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Realm:          DefaultConfig(),
		ViewportWidth:  1280,
		ViewportHeight: 800,
	}
}

// Page is one simulated browser tab: an event loop, a window, a document and
// the realm that scripts run in. A page is single-threaded; drive it from one
// goroutine or through Loop.Do.
type Page struct {
	Loop     *Loop
	Window   *dom.Window
	Document *dom.Document
	Realm    *Realm
}

// NewPage creates a page.
func NewPage(cfg PageConfig, log *logging.Logger) *Page {
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		def := DefaultPageConfig()
		cfg.ViewportWidth, cfg.ViewportHeight = def.ViewportWidth, def.ViewportHeight
	}
	loop := NewLoop()
	window := dom.NewWindow(cfg.ViewportWidth, cfg.ViewportHeight)
	doc := dom.NewDocument()
	return &Page{
		Loop:     loop,
		Window:   window,
		Document: doc,
		Realm:    NewRealm(cfg.Realm, loop, window, doc, log),
	}
}

// NewTracker creates a tracker on this page's loop and window.
func (p *Page) NewTracker() *Tracker {
	return NewTracker(p.Loop, p.Window)
}

// Resize changes the viewport and dispatches the resize event.
func (p *Page) Resize(width, height int) {
	p.Window.Resize(width, height)
}
