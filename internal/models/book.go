package models

import "github.com/google/uuid"

type Book struct {
	ID          uuid.UUID
	Title       string
	Description string
	AuthorID    uuid.UUID
}

type BookDTO struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AuthorID    uuid.UUID `json:"authorId"`
}

// BookForManipulation is the shared body of create, update and patch.
type BookForManipulation struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=500"`
}

type BookForCreation = BookForManipulation

type BookForUpdate = BookForManipulation

func (b Book) ToDTO() BookDTO {
	return BookDTO{ID: b.ID, Title: b.Title, Description: b.Description, AuthorID: b.AuthorID}
}

// ForUpdate is the patch base for an existing book.
func (b Book) ForUpdate() BookForUpdate {
	return BookForUpdate{Title: b.Title, Description: b.Description}
}

func (m BookForManipulation) Entity(authorID uuid.UUID) Book {
	return Book{Title: m.Title, Description: m.Description, AuthorID: authorID}
}
