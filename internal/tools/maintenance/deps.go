package maintenance

import (
	"github.com/louisbranch/tollgate.space/internal/services/market/storage"
)

// closableJournalStore is the sqlite surface maintenance needs, with Close
// for resource cleanup.
type closableJournalStore interface {
	storage.Journal
	storage.CheckpointStore
	Close() error
}
