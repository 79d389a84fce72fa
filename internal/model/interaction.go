package model

import (
	"time"
)

// Favorite 收藏，(user_id, movie_id) 唯一
type Favorite struct {
	ID          int       `json:"id" gorm:"primaryKey"`
	UserID      int       `json:"userId" gorm:"not null;uniqueIndex:idx_favorite_user_movie"`
	MovieID     int       `json:"movieId" gorm:"not null;uniqueIndex:idx_favorite_user_movie"`
	FavoritedAt time.Time `json:"favoritedAt"`
	User        *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Movie       *Movie    `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// WatchHistory 观看历史，每个 (user_id, movie_id) 只保留一行
type WatchHistory struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	UserID    int       `json:"userId" gorm:"not null;uniqueIndex:idx_history_user_movie"`
	MovieID   int       `json:"movieId" gorm:"not null;uniqueIndex:idx_history_user_movie"`
	WatchedAt time.Time `json:"watchedAt" gorm:"index"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Movie     *Movie    `json:"movie,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// Comment 影片评论
type Comment struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	MovieID   int       `json:"movieId" gorm:"not null;index"`
	UserID    int       `json:"userId" gorm:"not null;index"`
	Comment   string    `json:"comment" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	User      *User     `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Movie     *Movie    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
