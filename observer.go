package pcd

// Observer receives session events from a Device.
// Implementations must be safe for concurrent use.
type Observer interface {
	// SessionOpened is called once per Open.
	SessionOpened(device string)
	// SessionClosed is called once per successful Close.
	SessionClosed(device string)
	// Operation is called after every read, readat, write or seek with the
	// byte count and the returned error. io.EOF is passed through as is.
	Operation(device, op string, n int, err error)
}
