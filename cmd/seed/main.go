// Package main provides a tool to seed the database with a starter catalog.
//
// Creates an admin account, a reader account, a handful of well-known books,
// and one sample review so a fresh install has something to browse.
//
// Usage:
//
//	DB_PATH=~/Bookshelf/data/db go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/id"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Bookshelf/data/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	admin := seedUser(ctx, s, "admin@bookshelf.com", "admin123", "Admin", domain.RoleAdmin)
	reader := seedUser(ctx, s, "reader@bookshelf.com", "reader123", "Reader", domain.RoleUser)

	books := []*domain.Book{
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Fiction", Year: 1960, Pages: 281,
			Description: "A novel about racial injustice in the Depression-era South."},
		{Title: "1984", Author: "George Orwell", Genre: "Dystopian", Year: 1949, Pages: 328,
			Description: "A chilling portrait of perpetual war and total surveillance."},
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Fiction", Year: 1925, Pages: 180,
			Description: "The roaring twenties through the eyes of Nick Carraway."},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Year: 1965, Pages: 412,
			Description: "Politics, religion, and giant sandworms on the desert planet Arrakis."},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", Year: 1813, Pages: 432,
			Description: "Elizabeth Bennet navigates manners, upbringing, and marriage."},
	}

	var firstBook *domain.Book
	for _, book := range books {
		seeded := seedBook(ctx, s, book, admin.ID)
		if firstBook == nil {
			firstBook = seeded
		}
	}

	if firstBook != nil && reader != nil {
		seedReview(ctx, s, firstBook, reader, 5, "An absolute classic. Everyone should read this.")
	}

	fmt.Println("Seeding complete.")
	fmt.Println("  admin@bookshelf.com / admin123")
	fmt.Println("  reader@bookshelf.com / reader123")
}

// seedUser creates a user unless the email is already taken.
func seedUser(ctx context.Context, s *store.Store, email, password, name string, role domain.Role) *domain.User {
	if existing, err := s.Users.GetByIndex(ctx, "email", email); err == nil {
		fmt.Printf("User %s already exists, skipping\n", email)
		return existing
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		log.Fatalf("Failed to generate user ID: %v", err)
	}

	user := &domain.User{
		Record:       domain.Record{ID: userID},
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	user.InitTimestamps()

	if err := s.Users.Create(ctx, userID, user); err != nil {
		log.Fatalf("Failed to create user %s: %v", email, err)
	}

	fmt.Printf("Created user %s (%s)\n", email, role)
	return user
}

// seedBook creates a book unless one with the same title already exists.
func seedBook(ctx context.Context, s *store.Store, book *domain.Book, createdBy string) *domain.Book {
	existing, err := s.QueryBooks(ctx, store.BookQuery{Search: book.Title})
	if err != nil {
		log.Fatalf("Failed to query books: %v", err)
	}
	for _, b := range existing {
		if b.Title == book.Title {
			fmt.Printf("Book %q already exists, skipping\n", book.Title)
			return b
		}
	}

	bookID, err := id.Generate("book")
	if err != nil {
		log.Fatalf("Failed to generate book ID: %v", err)
	}

	book.ID = bookID
	book.CreatedBy = createdBy
	book.InitTimestamps()

	if err := s.Books.Create(ctx, bookID, book); err != nil {
		log.Fatalf("Failed to create book %q: %v", book.Title, err)
	}

	fmt.Printf("Created book %q\n", book.Title)
	return book
}

// seedReview posts one review and refreshes the book's aggregate.
func seedReview(ctx context.Context, s *store.Store, book *domain.Book, user *domain.User, rating int, comment string) {
	reviewID, err := id.Generate("rev")
	if err != nil {
		log.Fatalf("Failed to generate review ID: %v", err)
	}

	review := &domain.Review{
		Record:  domain.Record{ID: reviewID},
		BookID:  book.ID,
		UserID:  user.ID,
		Rating:  rating,
		Comment: comment,
	}
	review.InitTimestamps()

	if err := s.Reviews.Create(ctx, reviewID, review); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			fmt.Printf("Review by %s on %q already exists, skipping\n", user.Email, book.Title)
			return
		}
		log.Fatalf("Failed to create review: %v", err)
	}

	// Keep the derived fields honest for the seeded review.
	book.AverageRating = float64(rating)
	book.ReviewCount = 1
	book.Touch()
	if err := s.Books.Update(ctx, book.ID, book); err != nil {
		log.Fatalf("Failed to update rating aggregate: %v", err)
	}

	fmt.Printf("Created review by %s on %q\n", user.Email, book.Title)
}
