package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shelf names. Every user's library holds exactly these five shelves.
const (
	ShelfToRead           = "to-read"
	ShelfCurrentlyReading = "currently-reading"
	ShelfRead             = "read"
	ShelfPaused           = "paused"
	ShelfDNF              = "dnf"
)

// ShelfNames lists the five shelves in display order.
var ShelfNames = []string{ShelfToRead, ShelfCurrentlyReading, ShelfRead, ShelfPaused, ShelfDNF}

// IsValidShelf reports whether name is one of the five shelves.
func IsValidShelf(name string) bool {
	for _, s := range ShelfNames {
		if s == name {
			return true
		}
	}
	return false
}

// BookEntry is one book on one of a user's shelves. A given key appears on
// at most one shelf per user at any time.
type BookEntry struct {
	Key              string               `bson:"key" json:"key"`
	Title            string               `bson:"title" json:"title"`
	Author           string               `bson:"author" json:"author"`
	CoverURL         string               `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	NumberOfPages    int                  `bson:"number_of_pages,omitempty" json:"number_of_pages,omitempty"`
	Rating           int                  `bson:"rating" json:"rating"` // 0 = unrated
	Review           string               `bson:"review,omitempty" json:"review,omitempty"`
	ContainsSpoilers bool                 `bson:"contains_spoilers" json:"contains_spoilers"`
	ReviewedAt       *time.Time           `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	ReviewLikes      []primitive.ObjectID `bson:"review_likes,omitempty" json:"review_likes,omitempty"`
	ReadCount        int                  `bson:"read_count" json:"read_count"`
	CompletedAt      *time.Time           `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CurrentPage      int                  `bson:"current_page" json:"current_page"`
	AddedAt          time.Time            `bson:"added_at" json:"added_at"`
}

// Library is the singleton per-user document holding the five shelves.
// It is the one structure with read-modify-write contention; mutations are
// serialized per user in the service layer.
type Library struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID     `bson:"user_id" json:"user_id"`
	Shelves   map[string][]BookEntry `bson:"shelves" json:"shelves"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time              `bson:"updated_at" json:"updated_at"`
}

// NewLibrary returns an empty library with all five shelves present.
func NewLibrary(userID primitive.ObjectID) *Library {
	shelves := make(map[string][]BookEntry, len(ShelfNames))
	for _, name := range ShelfNames {
		shelves[name] = []BookEntry{}
	}
	now := time.Now()
	return &Library{
		UserID:    userID,
		Shelves:   shelves,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// FindEntry locates a book key across all shelves. Returns the shelf name
// and index, or ok=false when the key is absent everywhere.
func (l *Library) FindEntry(key string) (shelf string, idx int, ok bool) {
	for _, name := range ShelfNames {
		for i := range l.Shelves[name] {
			if l.Shelves[name][i].Key == key {
				return name, i, true
			}
		}
	}
	return "", 0, false
}

// Entry returns a pointer to the entry at the given shelf position.
func (l *Library) Entry(shelf string, idx int) *BookEntry {
	return &l.Shelves[shelf][idx]
}

// RemoveEntry takes the entry out of the named shelf and returns it.
func (l *Library) RemoveEntry(shelf string, idx int) BookEntry {
	entries := l.Shelves[shelf]
	entry := entries[idx]
	l.Shelves[shelf] = append(entries[:idx], entries[idx+1:]...)
	return entry
}
