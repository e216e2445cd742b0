package repository

import "time"

// Document is implemented by the pointer type of every stored type.
// The identifier is stored under _id.
type Document interface {
	GetID() string
	SetID(id string)
}

// Base carries the identifier and audit fields shared by stored types.
// Embed it inline:
//
//	type Customer struct {
//		repository.Base `bson:",inline"`
//		Name string     `bson:"name"`
//	}
type Base struct {
	ID         string     `bson:"_id" json:"id"`
	CreatedBy  string     `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedOn  time.Time  `bson:"createdOn" json:"createdOn"`
	ModifiedBy string     `bson:"modifiedBy,omitempty" json:"modifiedBy,omitempty"`
	ModifiedOn *time.Time `bson:"modifiedOn,omitempty" json:"modifiedOn,omitempty"`
}

func (b *Base) GetID() string {
	return b.ID
}

func (b *Base) SetID(id string) {
	b.ID = id
}
