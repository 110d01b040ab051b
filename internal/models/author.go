package models

import (
	"time"

	"github.com/google/uuid"
)

type Author struct {
	ID          uuid.UUID
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	DateOfDeath *time.Time
	Genre       string
}

// AuthorDTO is the client-facing author.
type AuthorDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Age   int       `json:"age"`
	Genre string    `json:"genre"`
}

type AuthorForCreation struct {
	FirstName   string            `json:"firstName" validate:"required,max=50"`
	LastName    string            `json:"lastName" validate:"required,max=50"`
	DateOfBirth time.Time         `json:"dateOfBirth" validate:"required"`
	Genre       string            `json:"genre" validate:"required,max=50"`
	Books       []BookForCreation `json:"books" validate:"dive"`
}

// AuthorForCreationWithDateOfDeath is accepted under its own content type.
type AuthorForCreationWithDateOfDeath struct {
	AuthorForCreation
	DateOfDeath *time.Time `json:"dateOfDeath" validate:"omitempty,gtfield=DateOfBirth"`
}

// Age is the number of whole years between dob and now, or between dob and dod
// when the author has died.
func Age(dob time.Time, dod *time.Time, now time.Time) int {
	end := now
	if dod != nil {
		end = *dod
	}
	end = end.In(dob.Location())
	age := end.Year() - dob.Year()
	if end.Month() < dob.Month() || (end.Month() == dob.Month() && end.Day() < dob.Day()) {
		age--
	}
	return age
}

// ToDTO maps an author entity with its age computed at now.
func (a Author) ToDTO(now time.Time) AuthorDTO {
	return AuthorDTO{
		ID:    a.ID,
		Name:  a.FirstName + " " + a.LastName,
		Age:   Age(a.DateOfBirth, a.DateOfDeath, now),
		Genre: a.Genre,
	}
}

// Entity converts a creation payload; ids are assigned by the store.
func (c AuthorForCreation) Entity() Author {
	return Author{
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		DateOfBirth: c.DateOfBirth,
		Genre:       c.Genre,
	}
}

func (c AuthorForCreationWithDateOfDeath) Entity() Author {
	a := c.AuthorForCreation.Entity()
	a.DateOfDeath = c.DateOfDeath
	return a
}
