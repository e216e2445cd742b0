package builder

import (
	"errors"
	"testing"
	"time"

	"github.com/nimburion/mongorepo/pkg/field"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type customer struct {
	ID         string     `bson:"_id"`
	Name       string     `bson:"name"`
	Age        int        `bson:"age"`
	ModifiedOn *time.Time `bson:"modifiedOn,omitempty"`
}

type note struct {
	Text string
}

var (
	customerName = field.Name[customer]("Name")
	customerAge  = field.Ref(func(c *customer) any { return &c.Age })
	customerID   = field.Name[customer]("ID")
	noteText     = field.Name[note]("Text")
)

func TestFilterBuilder_For(t *testing.T) {
	b := NewFilter[customer]().For(customerName, "Harun")

	filter, err := b.Filter()
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "name", Value: "Harun"}}, filter)

	spec, ok := b.Spec()
	require.True(t, ok)
	require.Equal(t, FilterSpec{Field: "Name", Element: "name", Value: "Harun"}, spec)
}

func TestFilterBuilder_SecondForReplacesFirst(t *testing.T) {
	b := NewFilter[customer]().
		For(customerName, "Harun").
		For(customerAge, 42)

	filter, err := b.Filter()
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "age", Value: 42}}, filter)
}

func TestFilterBuilder_Empty(t *testing.T) {
	_, err := NewFilter[customer]().Filter()
	require.ErrorIs(t, err, ErrEmptyFilter)
	require.ErrorIs(t, err, field.ErrInvalidInput)

	_, ok := NewFilter[customer]().Spec()
	require.False(t, ok)
}

func TestFilterBuilder_ErrorIsSticky(t *testing.T) {
	b := NewFilter[customer]().
		For(field.Ref(func(*customer) any { return "constant" }), 1).
		For(customerName, "Harun")

	require.ErrorIs(t, b.Err(), field.ErrUnsupportedExpression)
	_, err := b.Filter()
	require.ErrorIs(t, err, field.ErrUnsupportedExpression)

	_, err = NewFilter[customer]().For(nil, 1).Filter()
	require.ErrorIs(t, err, field.ErrInvalidInput)
}

func TestBuildFilter(t *testing.T) {
	filter, err := BuildFilter(func(b *FilterBuilder[customer]) { b.For(customerID, "abc") })
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "_id", Value: "abc"}}, filter)

	_, err = BuildFilter[customer](nil)
	require.ErrorIs(t, err, ErrNilConfig)

	_, err = BuildFilter(func(*FilterBuilder[customer]) {})
	require.ErrorIs(t, err, ErrEmptyFilter)
}

func TestUpdateBuilder_Set(t *testing.T) {
	update, err := NewUpdate[customer]().Set(customerName, "Ada").UpdateDefinition()
	require.NoError(t, err)
	require.Equal(t, bson.D{
		{Key: "$set", Value: bson.D{{Key: "name", Value: "Ada"}}},
	}, update)
}

func TestUpdateBuilder_SetWithCurrentDate(t *testing.T) {
	b := NewUpdate[customer]().SetWithCurrentDate(customerName, "Ada")

	update, err := b.UpdateDefinition()
	require.NoError(t, err)
	require.Equal(t, bson.D{
		{Key: "$set", Value: bson.D{{Key: "name", Value: "Ada"}}},
		{Key: "$currentDate", Value: bson.D{{Key: "modifiedOn", Value: true}}},
	}, update)

	spec, ok := b.Spec()
	require.True(t, ok)
	require.True(t, spec.StampModified)
	require.Equal(t, "modifiedOn", spec.ModifiedElement)
}

func TestUpdateBuilder_SecondSetReplacesFirst(t *testing.T) {
	update, err := NewUpdate[customer]().
		SetWithCurrentDate(customerName, "Ada").
		Set(customerAge, 7).
		UpdateDefinition()
	require.NoError(t, err)
	require.Equal(t, bson.D{
		{Key: "$set", Value: bson.D{{Key: "age", Value: 7}}},
	}, update)
}

func TestUpdateBuilder_Errors(t *testing.T) {
	_, err := NewUpdate[customer]().UpdateDefinition()
	require.ErrorIs(t, err, ErrEmptyUpdate)

	_, err = NewUpdate[note]().SetWithCurrentDate(noteText, "x").UpdateDefinition()
	require.ErrorIs(t, err, ErrNoModifiedOn)
	require.ErrorIs(t, err, field.ErrInvalidInput)

	_, err = NewUpdate[customer]().Set(field.Name[customer]("Missing"), 1).UpdateDefinition()
	require.ErrorIs(t, err, field.ErrUnsupportedExpression)

	_, err = BuildUpdate[customer](nil)
	require.ErrorIs(t, err, ErrNilConfig)
}

func TestProjectionBuilder_Include(t *testing.T) {
	projection, err := NewProjection[customer]().Include(customerName).ProjectDefinition()
	require.NoError(t, err)
	require.Equal(t, bson.D{
		{Key: "name", Value: 1},
		{Key: "_id", Value: 0},
	}, projection)
}

func TestProjectionBuilder_SecondIncludeReplacesFirst(t *testing.T) {
	projection, err := NewProjection[customer]().
		Include(customerName).
		Include(customerAge).
		ProjectDefinition()
	require.NoError(t, err)
	require.Equal(t, bson.D{
		{Key: "age", Value: 1},
		{Key: "_id", Value: 0},
	}, projection)
}

func TestProjectionBuilder_IncludeIdentifier(t *testing.T) {
	projection, err := NewProjection[customer]().Include(customerID).ProjectDefinition()
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "_id", Value: 0}}, projection)
}

func TestBuildProjection(t *testing.T) {
	spec, projection, err := BuildProjection(func(b *ProjectionBuilder[customer]) { b.Include(customerName) })
	require.NoError(t, err)
	require.Equal(t, ProjectionSpec{Field: "Name", Element: "name"}, spec)
	require.Len(t, projection, 2)

	_, _, err = BuildProjection(func(*ProjectionBuilder[customer]) {})
	require.True(t, errors.Is(err, ErrEmptyProjection))

	_, _, err = BuildProjection(func(b *ProjectionBuilder[customer]) { b.Include(nil) })
	require.ErrorIs(t, err, field.ErrInvalidInput)

	_, _, err = BuildProjection[customer](nil)
	require.ErrorIs(t, err, ErrNilConfig)
}

func TestUpdateBuilder_StampingModifiedOnItselfConflicts(t *testing.T) {
	modifiedOn := field.Name[customer]("ModifiedOn")

	_, err := NewUpdate[customer]().SetWithCurrentDate(modifiedOn, time.Now()).UpdateDefinition()
	require.ErrorIs(t, err, ErrModifiedOnConflict)
	require.ErrorIs(t, err, field.ErrInvalidInput)

	update, err := NewUpdate[customer]().Set(modifiedOn, nil).UpdateDefinition()
	require.NoError(t, err)
	require.Equal(t, bson.D{{Key: "$set", Value: bson.D{{Key: "modifiedOn", Value: nil}}}}, update)
}
