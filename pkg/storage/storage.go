package storage

// Storage defines the root interface for the entire data layer.
// Components should depend on the more granular interfaces (ApiStore,
// Sweeper, etc.) instead of this one where they can.
type Storage interface {
	ApiStore
	Sweeper
}
