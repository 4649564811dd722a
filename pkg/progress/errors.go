package progress

import "errors"

// ErrInvalidConfiguration is returned by Start when the stage table or the
// timing options cannot produce a well-formed run. No timer is armed and no
// snapshot is emitted when Start fails.
var ErrInvalidConfiguration = errors.New("invalid progress configuration")
