package client

import (
	"fmt"
	"strings"

	"github.com/luma-home/luma/internal/validate"
)

// ControlCommand is the transport-neutral form of an entity control request:
// set Attribute to Value. The two backends want different wire shapes, so the
// mapping to each is explicit rather than built from computed keys.
type ControlCommand struct {
	Attribute string
	Value     any
}

// Validate checks the command before any request is built.
func (c ControlCommand) Validate() error {
	if !validate.Ident(strings.TrimSpace(c.Attribute)) {
		return fmt.Errorf("control command attribute %q invalid", c.Attribute)
	}
	return nil
}

// LocalControlPayload is the local server's wire shape: the attribute is the
// JSON key itself ({"brightness": 40}).
type LocalControlPayload map[string]any

// CloudControlPayload is the cloud relay's wire shape: attribute and value as
// named fields ({"command": "brightness", "value": 40}).
type CloudControlPayload struct {
	Command string `json:"command"`
	Value   any    `json:"value"`
}

// EncodeLocal maps a neutral command onto the local wire shape.
func EncodeLocal(c ControlCommand) LocalControlPayload {
	return LocalControlPayload{c.Attribute: c.Value}
}

// EncodeCloud maps a neutral command onto the cloud wire shape.
func EncodeCloud(c ControlCommand) CloudControlPayload {
	return CloudControlPayload{Command: c.Attribute, Value: c.Value}
}
