package dom

// Event types dispatched by the window.
const (
	EventResize    = "resize"
	EventMouseMove = "mousemove"
	EventMouseDown = "mousedown"
	EventMouseUp   = "mouseup"
	EventClick     = "click"
	EventDblClick  = "dblclick"
	EventWheel     = "wheel"
	EventKeyDown   = "keydown"
	EventKeyUp     = "keyup"
	EventKeyPress  = "keypress"
)

// Event carries the payload of a window event.
type Event struct {
	Type    string
	X, Y    float64
	Button  string
	Key     string
	KeyCode int
	DeltaY  float64
}

// ListenerID identifies a registered listener.
type ListenerID uint64

// Listener handles a dispatched event.
type Listener func(Event)

type listener struct {
	id ListenerID
	fn Listener
}

// Window holds viewport dimensions and the global event listener table.
type Window struct {
	InnerWidth  int
	InnerHeight int

	listeners map[string][]listener
	nextID    ListenerID
}

// NewWindow creates a window with the given viewport size.
func NewWindow(width, height int) *Window {
	return &Window{
		InnerWidth:  width,
		InnerHeight: height,
		listeners:   make(map[string][]listener),
	}
}

// AddEventListener registers fn for events of the given type.
func (w *Window) AddEventListener(eventType string, fn Listener) ListenerID {
	w.nextID++
	w.listeners[eventType] = append(w.listeners[eventType], listener{id: w.nextID, fn: fn})
	return w.nextID
}

// RemoveEventListener unregisters a listener. It reports whether one was removed.
func (w *Window) RemoveEventListener(id ListenerID) bool {
	for typ, list := range w.listeners {
		for i, l := range list {
			if l.id == id {
				w.listeners[typ] = append(list[:i:i], list[i+1:]...)
				return true
			}
		}
	}
	return false
}

// ListenerCount returns the number of listeners registered for eventType.
func (w *Window) ListenerCount(eventType string) int {
	return len(w.listeners[eventType])
}

// Dispatch delivers ev to a snapshot of the current listeners.
func (w *Window) Dispatch(ev Event) {
	snapshot := append([]listener(nil), w.listeners[ev.Type]...)
	for _, l := range snapshot {
		if !w.registered(ev.Type, l.id) {
			continue
		}
		l.fn(ev)
	}
}

// Resize changes the viewport and dispatches a resize event.
func (w *Window) Resize(width, height int) {
	w.InnerWidth = width
	w.InnerHeight = height
	w.Dispatch(Event{Type: EventResize})
}

func (w *Window) registered(eventType string, id ListenerID) bool {
	for _, l := range w.listeners[eventType] {
		if l.id == id {
			return true
		}
	}
	return false
}
