package leave

import "leavedesk/internal/platform/querier"

// Store is the Postgres-backed persistence for the leave engine. Numeric
// columns travel as text and are parsed into decimals so no precision is
// lost on either side.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}
