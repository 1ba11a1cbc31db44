package domain

// Book represents a cataloged book.
//
// AverageRating and ReviewCount are derived fields: they cache the aggregate
// of the book's current review set and are written exclusively by the rating
// recalculation that follows review mutations. They are never authoritative
// on their own.
type Book struct {
	Record
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Genre         string  `json:"genre"`
	Year          int     `json:"year,omitempty"`
	Pages         int     `json:"pages,omitempty"`
	Description   string  `json:"description,omitempty"`
	CreatedBy     string  `json:"created_by,omitempty"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}
