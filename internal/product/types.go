// Package product defines core types shared across subsystems.
package product

import "time"

// ReviewStatus represents the lifecycle state of a review record.
type ReviewStatus string

// Review status values persisted alongside products and reviews.
const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// DefaultAuthorID is the stubbed author identity used until real
// authentication is wired in.
const DefaultAuthorID = "1"

// Product represents one submitted catalog entry.
type Product struct {
	ID          string       `json:"id"`
	ImageURL    string       `json:"imageUrl"`
	Name        string       `json:"productName"`
	Description string       `json:"productDescription"`
	Price       float64      `json:"price"`
	AuthorID    string       `json:"authorId"`
	Status      ReviewStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Review is the pending-approval marker linked to a product. AdminID stays
// nil until an admin acts on the submission.
type Review struct {
	ID        string       `json:"id"`
	ProductID string       `json:"productId"`
	Status    ReviewStatus `json:"status"`
	AuthorID  string       `json:"authorId"`
	AdminID   *string      `json:"adminId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ReviewRequestedEvent is published after a product and its review record
// are persisted, so an admin surface can react.
type ReviewRequestedEvent struct {
	ProductID   string    `json:"product_id"`
	ReviewID    string    `json:"review_id"`
	ProductName string    `json:"product_name"`
	AuthorID    string    `json:"author_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}
