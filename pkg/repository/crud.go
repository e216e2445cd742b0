package repository

import "go.mongodb.org/mongo-driver/bson"

// SortOrder defines the sort direction for queries.
type SortOrder string

// Sort order constants
const (
	// SortAsc sorts in ascending order
	SortAsc SortOrder = "asc"
	// SortDesc sorts in descending order
	SortDesc SortOrder = "desc"
)

// direction maps the order onto the driver's sort value. Anything other
// than SortDesc sorts ascending.
func (o SortOrder) direction() int {
	if o == SortDesc {
		return -1
	}
	return 1
}

// Pagination specifies page-based pagination parameters
type Pagination struct {
	Page     int
	PageSize int
}

// Offset calculates the number of documents to skip
func (p Pagination) Offset() int {
	if p.Page <= 0 || p.PageSize <= 0 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the page size
func (p Pagination) Limit() int {
	if p.PageSize < 0 {
		return 0
	}
	return p.PageSize
}

// FindOptions carries the cursor shaping applied by Executor.Find.
// Zero values mean no sort, no skip and no limit.
type FindOptions struct {
	Sort  bson.D
	Skip  int64
	Limit int64
}

// naturalOrder sorts by insertion order (dir 1) or its reverse (dir -1).
func naturalOrder(dir int) bson.D {
	return bson.D{{Key: "$natural", Value: dir}}
}
