// Package customer is the sample document type served by the mongorepo CLI.
package customer

import (
	"github.com/nimburion/mongorepo/pkg/builder"
	"github.com/nimburion/mongorepo/pkg/field"
	"github.com/nimburion/mongorepo/pkg/repository"
)

// Customer is stored in the collection mapped to "customer" (or "Customer" by default).
type Customer struct {
	repository.Base `bson:",inline"`
	Name            string `bson:"name" json:"name"`
}

// Label returns a display name for the customer.
func (c *Customer) Label() string {
	if c.Name == "" {
		return c.ID
	}
	return c.Name
}

// Repository is the repository view used by the CLI.
type Repository = repository.Repository[Customer, *Customer]

var (
	// IDField selects the promoted Base.ID, stored as _id.
	IDField = field.Name[Customer]("ID")
	// NameField selects Customer.Name.
	NameField = field.Ref(func(c *Customer) any { return &c.Name })
	// CreatedOnField selects the promoted Base.CreatedOn.
	CreatedOnField = field.Name[Customer]("CreatedOn")
)

// IDIs filters on the document identifier.
func IDIs(id string) builder.FilterFunc[Customer] {
	return func(b *builder.FilterBuilder[Customer]) { b.For(IDField, id) }
}

// NameIs filters customers by exact name.
func NameIs(name string) builder.FilterFunc[Customer] {
	return func(b *builder.FilterBuilder[Customer]) { b.For(NameField, name) }
}

// Rename sets the name and stamps modifiedOn.
func Rename(name string) builder.UpdateFunc[Customer] {
	return func(b *builder.UpdateBuilder[Customer]) { b.SetWithCurrentDate(NameField, name) }
}

// ByName projects the name element, for grouping.
func ByName(p *builder.ProjectionBuilder[Customer]) {
	p.Include(NameField)
}
