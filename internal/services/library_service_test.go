package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMain(m *testing.M) {
	logger.InitLogger()
	os.Exit(m.Run())
}

// fakeLibraryStore keeps libraries in memory and can be told to fail saves.
type fakeLibraryStore struct {
	libraries map[primitive.ObjectID]*models.Library
	failSave  bool
	saves     int
}

func newFakeLibraryStore() *fakeLibraryStore {
	return &fakeLibraryStore{libraries: make(map[primitive.ObjectID]*models.Library)}
}

func (f *fakeLibraryStore) GetOrCreateLibrary(_ context.Context, userID primitive.ObjectID) (*models.Library, error) {
	if lib, ok := f.libraries[userID]; ok {
		return lib, nil
	}
	lib := models.NewLibrary(userID)
	f.libraries[userID] = lib
	return lib, nil
}

func (f *fakeLibraryStore) UpdateLibrary(_ context.Context, library *models.Library) error {
	if f.failSave {
		return errors.New("save failed")
	}
	f.saves++
	f.libraries[library.UserID] = library
	return nil
}

// fakeRecorder captures activities instead of persisting them.
type fakeRecorder struct {
	recorded  []models.Activity
	purged    []string
	failWrite bool
}

func (f *fakeRecorder) Record(_ context.Context, activity *models.Activity) error {
	if f.failWrite {
		return errors.New("activity write failed")
	}
	f.recorded = append(f.recorded, *activity)
	return nil
}

func (f *fakeRecorder) DeleteReviewActivities(_ context.Context, _ primitive.ObjectID, bookKey string) error {
	f.purged = append(f.purged, bookKey)
	return nil
}

func newLibraryService() (*LibraryService, *fakeLibraryStore, *fakeRecorder) {
	store := newFakeLibraryStore()
	recorder := &fakeRecorder{}
	return NewLibraryService(store, recorder), store, recorder
}

func dune() models.BookEntry {
	return models.BookEntry{
		Key:           "/works/OL1W",
		Title:         "Dune",
		Author:        "Frank Herbert",
		NumberOfPages: 412,
	}
}

func TestAddToShelf(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("adds to a named shelf and records activity", func(t *testing.T) {
		svc, store, recorder := newLibraryService()

		entry, err := svc.AddToShelf(ctx, userID, models.ShelfToRead, dune())
		require.NoError(t, err)
		assert.Equal(t, "/works/OL1W", entry.Key)
		assert.False(t, entry.AddedAt.IsZero())

		lib := store.libraries[userID]
		assert.Len(t, lib.Shelves[models.ShelfToRead], 1)

		require.Len(t, recorder.recorded, 1)
		assert.Equal(t, models.ActivityAddedBook, recorder.recorded[0].Type)
		assert.Equal(t, models.ShelfToRead, recorder.recorded[0].LibraryName)
	})

	t.Run("duplicate key anywhere in the library conflicts", func(t *testing.T) {
		svc, _, _ := newLibraryService()

		_, err := svc.AddToShelf(ctx, userID, models.ShelfToRead, dune())
		require.NoError(t, err)

		_, err = svc.AddToShelf(ctx, userID, models.ShelfPaused, dune())
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("adding straight to read stamps completion", func(t *testing.T) {
		svc, _, _ := newLibraryService()

		entry, err := svc.AddToShelf(ctx, userID, models.ShelfRead, dune())
		require.NoError(t, err)
		assert.Equal(t, 1, entry.ReadCount)
		require.NotNil(t, entry.CompletedAt)
	})

	t.Run("missing catalog key gets a generated custom key", func(t *testing.T) {
		svc, _, _ := newLibraryService()

		book := dune()
		book.Key = ""
		entry, err := svc.AddToShelf(ctx, userID, models.ShelfToRead, book)
		require.NoError(t, err)
		assert.Contains(t, entry.Key, "custom-")
	})

	t.Run("rejects unknown shelf and empty title", func(t *testing.T) {
		svc, _, _ := newLibraryService()

		_, err := svc.AddToShelf(ctx, userID, "favorites", dune())
		assert.True(t, apperrors.IsInvalidArgument(err))

		book := dune()
		book.Title = "  "
		_, err = svc.AddToShelf(ctx, userID, models.ShelfToRead, book)
		assert.True(t, apperrors.IsInvalidArgument(err))
	})

	t.Run("activity write failure keeps the shelf mutation", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		recorder.failWrite = true

		_, err := svc.AddToShelf(ctx, userID, models.ShelfToRead, dune())
		require.NoError(t, err)
		assert.Len(t, store.libraries[userID].Shelves[models.ShelfToRead], 1)
	})
}

func TestMoveBook(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("book lands on exactly one shelf", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfToRead, dune())
		require.NoError(t, err)

		err = svc.MoveBook(ctx, userID, models.ShelfToRead, models.ShelfCurrentlyReading, "/works/OL1W", nil)
		require.NoError(t, err)

		lib := store.libraries[userID]
		assert.Empty(t, lib.Shelves[models.ShelfToRead])
		assert.Len(t, lib.Shelves[models.ShelfCurrentlyReading], 1)

		require.Len(t, recorder.recorded, 2)
		moved := recorder.recorded[1]
		assert.Equal(t, models.ActivityMovedBook, moved.Type)
		assert.Equal(t, models.ShelfToRead, moved.FromLibrary)
		assert.Equal(t, models.ShelfCurrentlyReading, moved.ToLibrary)
	})

	t.Run("same shelf move is a no-op", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfToRead, dune())
		require.NoError(t, err)
		savesBefore := store.saves

		err = svc.MoveBook(ctx, userID, models.ShelfToRead, models.ShelfToRead, "/works/OL1W", nil)
		require.NoError(t, err)
		assert.Equal(t, savesBefore, store.saves)
		assert.Len(t, recorder.recorded, 1) // only the add
	})

	t.Run("moving to read finishes the book", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfCurrentlyReading, dune())
		require.NoError(t, err)

		err = svc.MoveBook(ctx, userID, models.ShelfCurrentlyReading, models.ShelfRead, "/works/OL1W", nil)
		require.NoError(t, err)

		entry := store.libraries[userID].Shelves[models.ShelfRead][0]
		assert.Equal(t, 1, entry.ReadCount)
		require.NotNil(t, entry.CompletedAt)

		require.Len(t, recorder.recorded, 2)
		assert.Equal(t, models.ActivityFinishedBook, recorder.recorded[1].Type)
	})

	t.Run("caller supplied completion date wins", func(t *testing.T) {
		svc, store, _ := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfCurrentlyReading, dune())
		require.NoError(t, err)

		picked := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		err = svc.MoveBook(ctx, userID, models.ShelfCurrentlyReading, models.ShelfRead, "/works/OL1W", &picked)
		require.NoError(t, err)

		entry := store.libraries[userID].Shelves[models.ShelfRead][0]
		assert.True(t, entry.CompletedAt.Equal(picked))
	})

	t.Run("re-read increments read count and re-stamps", func(t *testing.T) {
		svc, store, _ := newLibraryService()
		first := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		book := dune()
		book.ReadCount = 1
		book.CompletedAt = &first
		_, err := svc.AddToShelf(ctx, userID, models.ShelfRead, book)
		require.NoError(t, err)

		err = svc.MoveBook(ctx, userID, models.ShelfRead, models.ShelfCurrentlyReading, "/works/OL1W", nil)
		require.NoError(t, err)
		err = svc.MoveBook(ctx, userID, models.ShelfCurrentlyReading, models.ShelfRead, "/works/OL1W", nil)
		require.NoError(t, err)

		entry := store.libraries[userID].Shelves[models.ShelfRead][0]
		assert.Equal(t, 2, entry.ReadCount)
		assert.True(t, entry.CompletedAt.After(first))
	})

	t.Run("absent book is not found", func(t *testing.T) {
		svc, _, _ := newLibraryService()
		err := svc.MoveBook(ctx, userID, models.ShelfToRead, models.ShelfRead, "/works/OL404W", nil)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestRateBook(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("rating promotes to read and emits both activities", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfCurrentlyReading, dune())
		require.NoError(t, err)

		entry, err := svc.RateBook(ctx, userID, dune(), 5)
		require.NoError(t, err)
		assert.Equal(t, 5, entry.Rating)
		assert.Equal(t, 1, entry.ReadCount)
		require.NotNil(t, entry.CompletedAt)

		lib := store.libraries[userID]
		assert.Empty(t, lib.Shelves[models.ShelfCurrentlyReading])
		assert.Len(t, lib.Shelves[models.ShelfRead], 1)

		// added, then finished (promotion), then rated
		require.Len(t, recorder.recorded, 3)
		assert.Equal(t, models.ActivityFinishedBook, recorder.recorded[1].Type)
		assert.Equal(t, models.ActivityRatedBook, recorder.recorded[2].Type)
		assert.Equal(t, 5, recorder.recorded[2].Rating)
	})

	t.Run("rating an unknown book creates it on read", func(t *testing.T) {
		svc, store, recorder := newLibraryService()

		entry, err := svc.RateBook(ctx, userID, dune(), 4)
		require.NoError(t, err)
		assert.Equal(t, 1, entry.ReadCount)
		assert.Len(t, store.libraries[userID].Shelves[models.ShelfRead], 1)

		require.Len(t, recorder.recorded, 2)
		assert.Equal(t, models.ActivityAddedBook, recorder.recorded[0].Type)
		assert.Equal(t, models.ShelfRead, recorder.recorded[0].LibraryName)
	})

	t.Run("rating twice in read updates in place without re-stamping", func(t *testing.T) {
		svc, store, _ := newLibraryService()

		_, err := svc.RateBook(ctx, userID, dune(), 3)
		require.NoError(t, err)
		first := *store.libraries[userID].Shelves[models.ShelfRead][0].CompletedAt

		entry, err := svc.RateBook(ctx, userID, dune(), 5)
		require.NoError(t, err)
		assert.Equal(t, 5, entry.Rating)
		assert.Equal(t, 1, entry.ReadCount)
		assert.True(t, entry.CompletedAt.Equal(first))
		assert.Len(t, store.libraries[userID].Shelves[models.ShelfRead], 1)
	})

	t.Run("rating out of range is rejected", func(t *testing.T) {
		svc, _, _ := newLibraryService()
		for _, rating := range []int{0, 6, -1} {
			_, err := svc.RateBook(ctx, userID, dune(), rating)
			assert.True(t, apperrors.IsInvalidArgument(err))
		}
	})

	t.Run("promotion activity is not recorded when the save fails", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfToRead, dune())
		require.NoError(t, err)
		store.failSave = true

		_, err = svc.RateBook(ctx, userID, dune(), 5)
		require.Error(t, err)
		assert.Len(t, recorder.recorded, 1) // only the original add
	})
}

func TestReviewBook(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("review promotes to read like rating", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfPaused, dune())
		require.NoError(t, err)

		entry, err := svc.ReviewBook(ctx, userID, dune(), "A classic.", false)
		require.NoError(t, err)
		assert.Equal(t, "A classic.", entry.Review)
		require.NotNil(t, entry.ReviewedAt)
		assert.Len(t, store.libraries[userID].Shelves[models.ShelfRead], 1)

		require.Len(t, recorder.recorded, 3)
		reviewed := recorder.recorded[2]
		assert.Equal(t, models.ActivityReviewedBook, reviewed.Type)
		assert.Equal(t, "A classic.", reviewed.Review)
	})

	t.Run("spoiler flag is carried on entry and activity", func(t *testing.T) {
		svc, _, recorder := newLibraryService()

		entry, err := svc.ReviewBook(ctx, userID, dune(), "The ending!", true)
		require.NoError(t, err)
		assert.True(t, entry.ContainsSpoilers)
		assert.True(t, recorder.recorded[len(recorder.recorded)-1].ContainsSpoilers)
	})

	t.Run("empty review is rejected", func(t *testing.T) {
		svc, _, _ := newLibraryService()
		_, err := svc.ReviewBook(ctx, userID, dune(), "   ", false)
		assert.True(t, apperrors.IsInvalidArgument(err))
	})
}

func TestDeleteReview(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("clears review fields and purges review activities", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		_, err := svc.ReviewBook(ctx, userID, dune(), "Loved it", true)
		require.NoError(t, err)

		err = svc.DeleteReview(ctx, userID, "/works/OL1W")
		require.NoError(t, err)

		entry := store.libraries[userID].Shelves[models.ShelfRead][0]
		assert.Empty(t, entry.Review)
		assert.False(t, entry.ContainsSpoilers)
		assert.Nil(t, entry.ReviewedAt)
		// shelf placement untouched
		assert.Equal(t, 1, entry.ReadCount)

		assert.Equal(t, []string{"/works/OL1W"}, recorder.purged)
	})

	t.Run("unknown book is not found", func(t *testing.T) {
		svc, _, _ := newLibraryService()
		err := svc.DeleteReview(ctx, userID, "/works/OL404W")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestUpdateProgress(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("records current page without changing shelf", func(t *testing.T) {
		svc, store, _ := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfCurrentlyReading, dune())
		require.NoError(t, err)

		entry, err := svc.UpdateProgress(ctx, userID, "/works/OL1W", 200)
		require.NoError(t, err)
		assert.Equal(t, 200, entry.CurrentPage)
		assert.Len(t, store.libraries[userID].Shelves[models.ShelfCurrentlyReading], 1)
	})

	t.Run("negative page is rejected", func(t *testing.T) {
		svc, _, _ := newLibraryService()
		_, err := svc.UpdateProgress(ctx, userID, "/works/OL1W", -1)
		assert.True(t, apperrors.IsInvalidArgument(err))
	})
}

func TestToggleReviewLike(t *testing.T) {
	ctx := context.Background()
	owner := primitive.NewObjectID()
	liker := primitive.NewObjectID()

	t.Run("like then unlike is an involution", func(t *testing.T) {
		svc, _, _ := newLibraryService()
		_, err := svc.ReviewBook(ctx, owner, dune(), "Great", false)
		require.NoError(t, err)

		liked, likes, err := svc.ToggleReviewLike(ctx, liker, owner, "/works/OL1W")
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, likes)

		liked, likes, err = svc.ToggleReviewLike(ctx, liker, owner, "/works/OL1W")
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 0, likes)
	})

	t.Run("self like is forbidden", func(t *testing.T) {
		svc, _, _ := newLibraryService()
		_, _, err := svc.ToggleReviewLike(ctx, owner, owner, "/works/OL1W")
		assert.True(t, apperrors.IsForbidden(err))
	})
}

func TestRemoveFromShelf(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()

	t.Run("removes without emitting activity", func(t *testing.T) {
		svc, store, recorder := newLibraryService()
		_, err := svc.AddToShelf(ctx, userID, models.ShelfToRead, dune())
		require.NoError(t, err)

		err = svc.RemoveFromShelf(ctx, userID, models.ShelfToRead, "/works/OL1W")
		require.NoError(t, err)
		assert.Empty(t, store.libraries[userID].Shelves[models.ShelfToRead])
		assert.Len(t, recorder.recorded, 1) // only the add
	})

	t.Run("missing book is not found", func(t *testing.T) {
		svc, _, _ := newLibraryService()
		err := svc.RemoveFromShelf(ctx, userID, models.ShelfToRead, "/works/OL404W")
		assert.True(t, apperrors.IsNotFound(err))
	})
}
