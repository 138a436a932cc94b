package post

import "errors"

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrTitleRequired    = errors.New("post title is required")
	ErrInvalidDuration  = errors.New("sponsor duration must be at least 1 day")
	ErrFeatureNotPriced = errors.New("sponsored posts are not priced")
)
