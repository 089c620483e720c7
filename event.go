package catnip

// EventID identifies one interception point or logical hook point. The set
// is closed: a new interception point adds a hook and an identifier here.
type EventID int

const (
	EventNone EventID = iota
	// overlay
	EventPresent
	EventReset
	// window procedure
	EventWindowProc
	// menu frame and input
	EventMenu
	EventPostImGuiInput
	// model rendering
	EventPreDrawModel
	EventPostDrawModel
	EventDrawProp
	EventDrawPropArray
	// client
	EventFrameStageNotify
	EventOverrideView
	// render view
	EventViewDrawFade
	// profile persistence
	EventConfigSave
	EventConfigLoad

	eventCount
)

var eventNames = [eventCount]string{
	EventNone:             "none",
	EventPresent:          "present",
	EventReset:            "reset",
	EventWindowProc:       "window_proc",
	EventMenu:             "menu",
	EventPostImGuiInput:   "post_imgui_input",
	EventPreDrawModel:     "pre_draw_model",
	EventPostDrawModel:    "post_draw_model",
	EventDrawProp:         "draw_prop",
	EventDrawPropArray:    "draw_prop_array",
	EventFrameStageNotify: "frame_stage_notify",
	EventOverrideView:     "override_view",
	EventViewDrawFade:     "view_draw_fade",
	EventConfigSave:       "config_save",
	EventConfigLoad:       "config_load",
}

func (e EventID) String() string {
	if !e.valid() {
		return "unknown"
	}
	return eventNames[e]
}

func (e EventID) valid() bool {
	return e > EventNone && e < eventCount
}

// Events returns every dispatchable identifier.
func Events() []EventID {
	out := make([]EventID, 0, eventCount-1)
	for e := EventNone + 1; e < eventCount; e++ {
		out = append(out, e)
	}
	return out
}

// Flags is the result of a dispatch. Subscriber results are OR-ed.
type Flags uint32

const (
	// NoOriginal asks the shim not to call the saved original
	NoOriginal Flags = 1 << iota
	// Skip asks whoever pushed the event to skip its own default behaviour
	Skip
)

// Has reports whether every bit of x is set.
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

// Invocation is the context of one dispatch. It lives for one shim call:
// handlers must not keep it after they return.
type Invocation struct {
	Event EventID
	// Hook is the name of the hook whose shim dispatched, empty for events
	// pushed by modules
	Hook string
	// Args are the raw machine-word arguments of the intercepted call
	Args []uintptr
	// Data is the hook-defined typed view of Args
	Data interface{}
	// Result is returned to the host when the original is suppressed; after
	// the original runs it holds the original's result
	Result uintptr
	// Flags is the aggregate of the pre-original dispatch
	Flags Flags
}

// Handler reacts to one dispatch.
type Handler func(inv *Invocation) Flags

// Priority orders subscribers of one event; lower runs first and equal
// priorities run in registration order.
type Priority int

const (
	PriorityFirst  Priority = -100
	PriorityNormal Priority = 0
	PriorityLast   Priority = 100
)
