package canvas

import (
	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/render"
)

// Client message types.
const (
	msgResize = "resize"
	msgClick  = "click"
)

// Server message types.
const (
	msgFrame     = "frame"
	msgSelection = "selection"
	msgError     = "error"
)

// clientMessage is any message a browser sends. Fields not used by Type are
// zero.
type clientMessage struct {
	Type   string  `json:"type"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
}

// serverMessage is any message sent to a browser.
type serverMessage struct {
	Type    string         `json:"type"`
	Frame   *render.Frame  `json:"frame,omitempty"`
	Hit     bool           `json:"hit,omitempty"`
	Entity  *entity.Entity `json:"entity,omitempty"`
	Message string         `json:"message,omitempty"`
}
