package metrics

import (
	"time"

	"github.com/recondo/recondo/pkg/records"
)

// FilterSince keeps only records whose modification-timestamp field is
// strictly newer than the cutoff. Records at or before the cutoff on both
// sides are assumed unchanged and excluded from comparison; records without
// a usable timestamp are excluded too, since their age cannot be
// established. The second return value counts exclusions.
func FilterSince(recs []*records.Record, tsField string, cutoff time.Time) ([]*records.Record, int) {
	kept := make([]*records.Record, 0, len(recs))
	excluded := 0
	for _, rec := range recs {
		v, ok := rec.Get(tsField)
		if !ok {
			excluded++
			continue
		}
		ts, isTime := v.AsTime()
		if !isTime || !ts.After(cutoff) {
			excluded++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, excluded
}
