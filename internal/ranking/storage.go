package ranking

// Storage is the durable backing of the Store: load-all at startup,
// write-all on persist. The persisted representation is an implementation
// detail, not a wire contract. Implementations must preserve entry order
// across a Save/Load round trip because the Store derives its tie-break from
// registration order.
type Storage interface {
	Load() ([]Entry, error)
	Save(entries []Entry) error
}
