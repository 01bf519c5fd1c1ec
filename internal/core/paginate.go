package core

// DefaultPageSize is the fixed page size of the search view.
const DefaultPageSize = 5

// Paginate slices records into fixed-size pages.
//
// totalPages is ceil(len(records)/size), 0 for an empty batch. A page number
// below 1 or beyond totalPages returns empty items rather than an error; the
// caller logs and renders an empty page. Records keep their insertion order,
// they are never re-sorted.
func Paginate(records []EntityRecord, page, size int) (items []EntityRecord, totalPages int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if len(records) == 0 {
		return nil, 0
	}

	totalPages = (len(records) + size - 1) / size
	if page < 1 || page > totalPages {
		return nil, totalPages
	}

	start := (page - 1) * size
	end := start + size
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], totalPages
}
