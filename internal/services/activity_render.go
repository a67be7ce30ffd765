package services

import (
	"fmt"

	"github.com/mnbarber/bookden/internal/models"
)

// FormatActivity renders the one-line feed text for an activity. Every
// surface that shows activity text goes through here, so the friends and
// public feeds can never drift in wording.
func FormatActivity(a *models.Activity) string {
	switch a.Type {
	case models.ActivityAddedBook:
		return fmt.Sprintf("added %q to %s", a.Book.Title, a.LibraryName)
	case models.ActivityMovedBook:
		return fmt.Sprintf("moved %q from %s to %s", a.Book.Title, a.FromLibrary, a.ToLibrary)
	case models.ActivityFinishedBook:
		return fmt.Sprintf("finished reading %q", a.Book.Title)
	case models.ActivityRatedBook:
		return fmt.Sprintf("rated %q %d stars", a.Book.Title, a.Rating)
	case models.ActivityReviewedBook:
		return fmt.Sprintf("reviewed %q", a.Book.Title)
	default:
		return fmt.Sprintf("updated %q", a.Book.Title)
	}
}
