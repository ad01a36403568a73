package player

import (
	"time"

	"github.com/google/uuid"
)

// session is one rendering of the cached buffer through the sink. The
// generation number disambiguates completion notifications: only a
// notification carrying the live session's generation is honored, so a
// session that was stopped or superseded stays silent even when the
// sink's notification was already in flight.
type session struct {
	id      uuid.UUID
	gen     uint64
	voice   Voice
	started time.Time
}
