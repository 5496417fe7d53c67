package reviews

import "time"

// MaxCommentLength caps a review comment, counted in characters.
const MaxCommentLength = 1000

// ReviewDTO is a review as shown under a product.
type ReviewDTO struct {
	ID        uint64    `json:"id"`
	ProductID uint64    `json:"productId"`
	UserID    uint64    `json:"userId"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserReviewDTO is a review on the "my reviews" page.
type UserReviewDTO struct {
	ID           uint64    `json:"id"`
	ProductID    uint64    `json:"productId"`
	ProductName  string    `json:"productName"`
	ProductImage string    `json:"productImage"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateReviewInput is the review form.
type CreateReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
