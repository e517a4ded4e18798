package models

// PostCategory is a row of the post_categories join table.
type PostCategory struct {
	PostID     int64 `json:"postId"`
	CategoryID int64 `json:"categoryId"`
}

type PostCategoryTag struct {
	PostID        int64  `json:"postId"`
	CategoryID    int64  `json:"categoryId"`
	CategoryTitle string `json:"categoryTitle"`
}
