package assetcache

import (
	"strconv"
	"time"
)

// Epoch is a point in time expressed as whole seconds since the Unix epoch, UTC.
// All staleness comparisons happen in this form so they do not depend on the
// host's timezone configuration.
type Epoch uint64

// Normalize converts a filesystem modification time (in any location) to an Epoch.
// Times before the Unix epoch clamp to zero.
func Normalize(t time.Time) Epoch {
	sec := t.UTC().Unix()
	if sec < 0 {
		return 0
	}
	return Epoch(sec)
}

// Time returns the epoch as a UTC time.Time.
func (e Epoch) Time() time.Time {
	return time.Unix(int64(e), 0).UTC()
}

// String returns the epoch in decimal form.
func (e Epoch) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// nowEpoch returns the current instant according to the cache clock.
func (c *Cache) nowEpoch() Epoch {
	return Normalize(c.now())
}
