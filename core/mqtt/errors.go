package mqtt

import "errors"

// ErrNotConnected is returned when publishing before the broker connection
// is established.
var ErrNotConnected = errors.New("mqtt client not connected")
