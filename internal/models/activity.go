package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity types emitted by shelf mutations.
const (
	ActivityAddedBook    = "added_book"
	ActivityRatedBook    = "rated_book"
	ActivityMovedBook    = "moved_book"
	ActivityFinishedBook = "finished_book"
	ActivityReviewedBook = "reviewed_book"
)

// BookSnapshot is a copy of the book's identity taken at record time. Later
// edits to the shelf entry do not change historical activity.
type BookSnapshot struct {
	Key      string `bson:"key" json:"key"`
	Title    string `bson:"title" json:"title"`
	Author   string `bson:"author" json:"author"`
	CoverURL string `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
}

// Activity is an immutable append-only record of a user-visible action.
type Activity struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type             string             `bson:"type" json:"type"`
	Book             BookSnapshot       `bson:"book" json:"book"`
	LibraryName      string             `bson:"library_name,omitempty" json:"library_name,omitempty"`
	FromLibrary      string             `bson:"from_library,omitempty" json:"from_library,omitempty"`
	ToLibrary        string             `bson:"to_library,omitempty" json:"to_library,omitempty"`
	Rating           int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Review           string             `bson:"review,omitempty" json:"review,omitempty"`
	ContainsSpoilers bool               `bson:"contains_spoilers,omitempty" json:"contains_spoilers,omitempty"`
	IsPublic         bool               `bson:"is_public" json:"is_public"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// Snapshot copies the identity fields of a shelf entry.
func Snapshot(entry *BookEntry) BookSnapshot {
	return BookSnapshot{
		Key:      entry.Key,
		Title:    entry.Title,
		Author:   entry.Author,
		CoverURL: entry.CoverURL,
	}
}
