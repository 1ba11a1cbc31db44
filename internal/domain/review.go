package domain

// Review represents one user's rating of one book.
// A user can hold at most one review per book.
type Review struct {
	Record
	BookID  string `json:"book_id"`
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// ReviewKey returns the composite key identifying a (book, user) review pair.
// Used as the unique index value that enforces one review per user per book.
func ReviewKey(bookID, userID string) string {
	return bookID + ":" + userID
}

// CanModifyReview reports whether the actor may update or delete the review.
// Permitted for the review's author and for admins.
func CanModifyReview(actor *User, review *Review) bool {
	if actor == nil || review == nil {
		return false
	}
	return actor.ID == review.UserID || actor.IsAdmin()
}
