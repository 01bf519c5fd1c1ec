package core

// Flatten turns one raw response into an ordered batch of entity records.
//
// Groups are walked in response order and numbered from 1; every record of a
// group carries that group's entry number and info-leak note. Record ids are
// assigned sequentially from 1 as records are emitted, so a batch's ids match
// its insertion order.
//
// A response with zero groups yields an empty batch; callers distinguish that
// case via ErrNoEntities, it is not an upstream failure.
func Flatten(raw *RawResponse) []EntityRecord {
	var records []EntityRecord
	var nextID int64 = 1

	for i, group := range raw.Groups {
		entryNumber := i + 1
		for _, entry := range group.Data {
			records = append(records, EntityRecord{
				ID:          nextID,
				EntityType:  group.Name,
				EntryNumber: entryNumber,
				Fields:      entry,
				InfoLeak:    group.InfoLeak,
			})
			nextID++
		}
	}
	return records
}
