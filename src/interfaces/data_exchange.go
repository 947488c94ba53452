package interfaces

// -----------------------------------------------------------------------------
// IDataExchanger defines the interface for sharing data with external
// consumers (server/push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes an update to all connected listeners.
	Broadcast(payload interface{})

	// -----------------------------------------------------------------------------
	// UpdateLatest replaces the state served to newly connected listeners
	// without broadcasting.
	UpdateLatest(payload interface{})

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
