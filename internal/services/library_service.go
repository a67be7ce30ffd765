package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/mnbarber/bookden/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityRecorder is the slice of the activity service the library needs.
// Recording failures never roll back shelf mutations.
type ActivityRecorder interface {
	Record(ctx context.Context, activity *models.Activity) error
	DeleteReviewActivities(ctx context.Context, userID primitive.ObjectID, bookKey string) error
}

// LibraryService owns authoritative shelf placement and the mutable fields
// of every book entry. All mutations for one user are serialized behind a
// per-user mutex, so two concurrent moves can never leave a book on two
// shelves or none.
type LibraryService struct {
	repo     LibraryStore
	activity ActivityRecorder

	mu        sync.Mutex
	userLocks map[primitive.ObjectID]*sync.Mutex
}

func NewLibraryService(repo LibraryStore, activity ActivityRecorder) *LibraryService {
	return &LibraryService{
		repo:      repo,
		activity:  activity,
		userLocks: make(map[primitive.ObjectID]*sync.Mutex),
	}
}

func (s *LibraryService) lockUser(userID primitive.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.userLocks[userID]
	if !ok {
		m = &sync.Mutex{}
		s.userLocks[userID] = m
	}
	return m
}

// GetLibrary returns the user's full library, creating it on first access.
func (s *LibraryService) GetLibrary(ctx context.Context, userID primitive.ObjectID) (*models.Library, error) {
	library, err := s.repo.GetOrCreateLibrary(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load library", err)
	}
	return library, nil
}

// GetShelf returns one named shelf.
func (s *LibraryService) GetShelf(ctx context.Context, userID primitive.ObjectID, shelf string) ([]models.BookEntry, error) {
	if !models.IsValidShelf(shelf) {
		return nil, apperrors.InvalidArgument("unknown shelf %q", shelf)
	}
	library, err := s.GetLibrary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return library.Shelves[shelf], nil
}

// AddToShelf places a new book on the named shelf. A key already present
// anywhere in the library is a conflict; cross-shelf duplicates exist only
// transiently inside MoveBook.
func (s *LibraryService) AddToShelf(ctx context.Context, userID primitive.ObjectID, shelf string, entry models.BookEntry) (*models.BookEntry, error) {
	if !models.IsValidShelf(shelf) {
		return nil, apperrors.InvalidArgument("unknown shelf %q", shelf)
	}
	if strings.TrimSpace(entry.Title) == "" {
		return nil, apperrors.InvalidArgument("book title is required")
	}
	if entry.Key == "" {
		// Manually added books without a catalog key get a custom one.
		entry.Key = "custom-" + uuid.NewString()
	}

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	library, err := s.GetLibrary(ctx, userID)
	if err != nil {
		return nil, err
	}

	if existing, _, ok := library.FindEntry(entry.Key); ok {
		return nil, apperrors.Conflict("book already on shelf %q", existing)
	}

	entry.AddedAt = time.Now()
	if shelf == models.ShelfRead {
		if entry.ReadCount == 0 {
			entry.ReadCount = 1
		}
		if entry.CompletedAt == nil {
			now := time.Now()
			entry.CompletedAt = &now
		}
	}

	library.Shelves[shelf] = append(library.Shelves[shelf], entry)
	if err := s.repo.UpdateLibrary(ctx, library); err != nil {
		return nil, apperrors.Internal("failed to save library", err)
	}

	s.recordActivity(ctx, &models.Activity{
		UserID:      userID,
		Type:        models.ActivityAddedBook,
		Book:        models.Snapshot(&entry),
		LibraryName: shelf,
	})

	return &entry, nil
}

// MoveBook atomically relocates a book between shelves. Moving onto the
// same shelf is a no-op. Entering "read" increments the read count and
// stamps a completion date; a caller-supplied completedAt wins, modeling
// the pick-a-date flow.
func (s *LibraryService) MoveBook(ctx context.Context, userID primitive.ObjectID, fromShelf, toShelf, bookKey string, completedAt *time.Time) error {
	if !models.IsValidShelf(fromShelf) {
		return apperrors.InvalidArgument("unknown shelf %q", fromShelf)
	}
	if !models.IsValidShelf(toShelf) {
		return apperrors.InvalidArgument("unknown shelf %q", toShelf)
	}
	if fromShelf == toShelf {
		return nil
	}

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	library, err := s.GetLibrary(ctx, userID)
	if err != nil {
		return err
	}

	idx := indexOnShelf(library, fromShelf, bookKey)
	if idx < 0 {
		return apperrors.NotFound("book %q not found on shelf %q", bookKey, fromShelf)
	}

	entry := library.RemoveEntry(fromShelf, idx)
	if toShelf == models.ShelfRead {
		entry.ReadCount++
		if completedAt != nil {
			entry.CompletedAt = completedAt
		} else {
			now := time.Now()
			entry.CompletedAt = &now
		}
	}
	library.Shelves[toShelf] = append(library.Shelves[toShelf], entry)

	if err := s.repo.UpdateLibrary(ctx, library); err != nil {
		return apperrors.Internal("failed to save library", err)
	}

	if toShelf == models.ShelfRead {
		s.recordActivity(ctx, &models.Activity{
			UserID: userID,
			Type:   models.ActivityFinishedBook,
			Book:   models.Snapshot(&entry),
		})
	} else {
		s.recordActivity(ctx, &models.Activity{
			UserID:      userID,
			Type:        models.ActivityMovedBook,
			Book:        models.Snapshot(&entry),
			FromLibrary: fromShelf,
			ToLibrary:   toShelf,
		})
	}
	return nil
}

// RateBook applies a rating. Rating a book is defined to imply finishing
// it: a book on any other shelf is promoted to "read", and an unknown book
// is created there. Rating a book already in "read" updates in place and
// does not re-stamp the completion date, so back-dated completions survive.
func (s *LibraryService) RateBook(ctx context.Context, userID primitive.ObjectID, book models.BookEntry, rating int) (*models.BookEntry, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.InvalidArgument("rating must be between 1 and 5")
	}
	if book.Key == "" {
		return nil, apperrors.InvalidArgument("book key is required")
	}

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	library, err := s.GetLibrary(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry, settled := settleOnReadShelf(userID, library, book)
	entry.Rating = rating

	if err := s.repo.UpdateLibrary(ctx, library); err != nil {
		return nil, apperrors.Internal("failed to save library", err)
	}

	if settled != nil {
		s.recordActivity(ctx, settled)
	}
	s.recordActivity(ctx, &models.Activity{
		UserID: userID,
		Type:   models.ActivityRatedBook,
		Book:   models.Snapshot(entry),
		Rating: rating,
	})

	result := *entry
	return &result, nil
}

// ReviewBook attaches a review, following the same promotion-to-read
// policy as RateBook.
func (s *LibraryService) ReviewBook(ctx context.Context, userID primitive.ObjectID, book models.BookEntry, review string, containsSpoilers bool) (*models.BookEntry, error) {
	if strings.TrimSpace(review) == "" {
		return nil, apperrors.InvalidArgument("review text must not be empty")
	}
	if book.Key == "" {
		return nil, apperrors.InvalidArgument("book key is required")
	}

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	library, err := s.GetLibrary(ctx, userID)
	if err != nil {
		return nil, err
	}

	entry, settled := settleOnReadShelf(userID, library, book)
	now := time.Now()
	entry.Review = review
	entry.ContainsSpoilers = containsSpoilers
	entry.ReviewedAt = &now

	if err := s.repo.UpdateLibrary(ctx, library); err != nil {
		return nil, apperrors.Internal("failed to save library", err)
	}

	if settled != nil {
		s.recordActivity(ctx, settled)
	}
	s.recordActivity(ctx, &models.Activity{
		UserID:           userID,
		Type:             models.ActivityReviewedBook,
		Book:             models.Snapshot(entry),
		Review:           review,
		ContainsSpoilers: containsSpoilers,
	})

	result := *entry
	return &result, nil
}

// settleOnReadShelf is the shared promotion policy behind rating and
// reviewing: the entry ends up on "read" whatever shelf it started on.
// Returns the settled entry plus the finished_book/added_book activity the
// promotion produced, nil when the book was already on "read". The caller
// must hold the user lock, persist the library, then record the activity.
func settleOnReadShelf(userID primitive.ObjectID, library *models.Library, book models.BookEntry) (*models.BookEntry, *models.Activity) {
	shelf, idx, ok := library.FindEntry(book.Key)
	var pending *models.Activity

	switch {
	case ok && shelf == models.ShelfRead:
		return library.Entry(shelf, idx), nil

	case ok:
		entry := library.RemoveEntry(shelf, idx)
		entry.ReadCount++
		if entry.CompletedAt == nil {
			now := time.Now()
			entry.CompletedAt = &now
		}
		library.Shelves[models.ShelfRead] = append(library.Shelves[models.ShelfRead], entry)
		pending = &models.Activity{
			UserID: userID,
			Type:   models.ActivityFinishedBook,
			Book:   models.Snapshot(&entry),
		}

	default:
		entry := book
		entry.AddedAt = time.Now()
		entry.ReadCount = 1
		if entry.CompletedAt == nil {
			now := time.Now()
			entry.CompletedAt = &now
		}
		library.Shelves[models.ShelfRead] = append(library.Shelves[models.ShelfRead], entry)
		pending = &models.Activity{
			UserID:      userID,
			Type:        models.ActivityAddedBook,
			Book:        models.Snapshot(&entry),
			LibraryName: models.ShelfRead,
		}
	}

	readShelf := library.Shelves[models.ShelfRead]
	return &readShelf[len(readShelf)-1], pending
}

// DeleteReview clears the review fields wherever the book sits. Shelf
// placement is untouched. The matching reviewed_book activity entries are
// purged so the feed reflects current state.
func (s *LibraryService) DeleteReview(ctx context.Context, userID primitive.ObjectID, bookKey string) error {
	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	library, err := s.GetLibrary(ctx, userID)
	if err != nil {
		return err
	}

	shelf, idx, ok := library.FindEntry(bookKey)
	if !ok {
		return apperrors.NotFound("book %q not found in library", bookKey)
	}

	entry := library.Entry(shelf, idx)
	entry.Review = ""
	entry.ContainsSpoilers = false
	entry.ReviewedAt = nil

	if err := s.repo.UpdateLibrary(ctx, library); err != nil {
		return apperrors.Internal("failed to save library", err)
	}

	if err := s.activity.DeleteReviewActivities(ctx, userID, bookKey); err != nil {
		logger.Log.WithError(err).WithField("book_key", bookKey).Warn("Failed to purge review activities")
	}
	return nil
}

// UpdateProgress records the current page. Whether the book is finished is
// advisory only; the entry never changes shelf here.
func (s *LibraryService) UpdateProgress(ctx context.Context, userID primitive.ObjectID, bookKey string, currentPage int) (*models.BookEntry, error) {
	if currentPage < 0 {
		return nil, apperrors.InvalidArgument("current page must not be negative")
	}

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	library, err := s.GetLibrary(ctx, userID)
	if err != nil {
		return nil, err
	}

	shelf, idx, ok := library.FindEntry(bookKey)
	if !ok {
		return nil, apperrors.NotFound("book %q not found in library", bookKey)
	}

	entry := library.Entry(shelf, idx)
	entry.CurrentPage = currentPage

	if err := s.repo.UpdateLibrary(ctx, library); err != nil {
		return nil, apperrors.Internal("failed to save library", err)
	}

	result := *entry
	return &result, nil
}

// ToggleReviewLike flips the liker's membership in the review's like set.
// Self-likes are forbidden; a second toggle by the same user removes the
// like again.
func (s *LibraryService) ToggleReviewLike(ctx context.Context, likerID, ownerID primitive.ObjectID, bookKey string) (liked bool, likes int, err error) {
	if likerID == ownerID {
		return false, 0, apperrors.Forbidden("cannot like your own review")
	}

	mu := s.lockUser(ownerID)
	mu.Lock()
	defer mu.Unlock()

	library, err := s.GetLibrary(ctx, ownerID)
	if err != nil {
		return false, 0, err
	}

	shelf, idx, ok := library.FindEntry(bookKey)
	if !ok {
		return false, 0, apperrors.NotFound("book %q not found in library", bookKey)
	}

	entry := library.Entry(shelf, idx)
	removed := false
	for i, id := range entry.ReviewLikes {
		if id == likerID {
			entry.ReviewLikes = append(entry.ReviewLikes[:i], entry.ReviewLikes[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		entry.ReviewLikes = append(entry.ReviewLikes, likerID)
	}

	if err := s.repo.UpdateLibrary(ctx, library); err != nil {
		return false, 0, apperrors.Internal("failed to save library", err)
	}
	return !removed, len(entry.ReviewLikes), nil
}

// RemoveFromShelf takes a book off a shelf entirely. Removal is a private
// action; no activity is emitted.
func (s *LibraryService) RemoveFromShelf(ctx context.Context, userID primitive.ObjectID, shelf, bookKey string) error {
	if !models.IsValidShelf(shelf) {
		return apperrors.InvalidArgument("unknown shelf %q", shelf)
	}

	mu := s.lockUser(userID)
	mu.Lock()
	defer mu.Unlock()

	library, err := s.GetLibrary(ctx, userID)
	if err != nil {
		return err
	}

	idx := indexOnShelf(library, shelf, bookKey)
	if idx < 0 {
		return apperrors.NotFound("book %q not found on shelf %q", bookKey, shelf)
	}

	library.RemoveEntry(shelf, idx)
	if err := s.repo.UpdateLibrary(ctx, library); err != nil {
		return apperrors.Internal("failed to save library", err)
	}
	return nil
}

// recordActivity is fire-and-forget: a failed activity write must never
// fail the shelf mutation that triggered it.
func (s *LibraryService) recordActivity(ctx context.Context, activity *models.Activity) {
	if err := s.activity.Record(ctx, activity); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"user_id": activity.UserID.Hex(),
			"type":    activity.Type,
		}).Warn("Activity recording failed, shelf mutation kept")
	}
}

func indexOnShelf(library *models.Library, shelf, bookKey string) int {
	for i := range library.Shelves[shelf] {
		if library.Shelves[shelf][i].Key == bookKey {
			return i
		}
	}
	return -1
}
