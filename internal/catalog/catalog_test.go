package catalog_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/5w1tchy/library-api/internal/catalog"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/resource/shape"
	"github.com/5w1tchy/library-api/internal/resource/sortkeys"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestAuthorOrdering(t *testing.T) {
	c := catalog.New(func() time.Time { return fixedNow })

	terms, err := c.Sorts.Translate(catalog.Author, "name desc,age")
	require.NoError(t, err)
	assert.Equal(t, []sortkeys.Term{
		{Field: catalog.FieldFirstName, Desc: true},
		{Field: catalog.FieldLastName, Desc: true},
		{Field: catalog.FieldDateOfBirth, Desc: true},
	}, terms)

	assert.True(t, c.Sorts.ValidateOrderBy(catalog.Author, catalog.DefaultAuthorOrder))
	assert.True(t, c.Sorts.ValidateOrderBy(catalog.Book, catalog.DefaultBookOrder))
	assert.False(t, c.Sorts.ValidateOrderBy(catalog.Author, "title"))
}

func TestAuthorFields(t *testing.T) {
	c := catalog.New(nil)

	assert.True(t, c.Shapes.HasFields(catalog.Author, "Name, Age"))
	assert.True(t, c.Shapes.HasFields(catalog.Book, "title,authorId"))
	assert.False(t, c.Shapes.HasFields(catalog.Author, "firstName"))
}

func TestShapedAuthorJSON(t *testing.T) {
	c := catalog.New(func() time.Time { return fixedNow })
	id := uuid.MustParse("25320c5e-f58a-4b1f-b63a-8ee07a840bdf")

	dto := c.AuthorDTO(models.Author{
		ID: id, FirstName: "Stephen", LastName: "King",
		DateOfBirth: time.Date(1947, time.September, 21, 0, 0, 0, 0, time.UTC), Genre: "Horror",
	})
	rec, err := c.Authors.ProjectOne(dto, shape.FieldSet{"name", "age"})
	require.NoError(t, err)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Stephen King","age":76}`, string(b))

	got, ok := rec.Identity()
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestAuthorDTOsShareClock(t *testing.T) {
	calls := 0
	c := catalog.New(func() time.Time { calls++; return fixedNow })

	out := c.AuthorDTOs([]models.Author{{FirstName: "a"}, {FirstName: "b"}, {FirstName: "c"}})
	assert.Len(t, out, 3)
	assert.Equal(t, 1, calls)
}
