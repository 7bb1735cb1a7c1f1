package plot

import (
	"github.com/atlasmap-sc/scatter/internal/event"
	"github.com/atlasmap-sc/scatter/internal/render"
	"github.com/atlasmap-sc/scatter/internal/viewport"
)

// Notification names.
const (
	EventSelection           = "selection"
	EventSelectionInProgress = "selection-in-progress"
	EventWindow              = "window"
	EventRender              = "render"
)

// Event is the payload of every notification; only the fields relevant to
// Name are set.
type Event[T any] struct {
	Name      string
	Selection []T
	Window    viewport.Window
	Reason    render.Reason
	Delta     viewport.Delta
	Stats     render.Stats
}

// On subscribes h to the notification name.
func (p *Plot[T]) On(name string, h func(Event[T])) event.Subscription {
	return p.bus.On(name, h)
}

// Off removes a subscription.
func (p *Plot[T]) Off(s event.Subscription) bool {
	return p.bus.Off(s)
}
