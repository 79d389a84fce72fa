package model

import (
	"time"
)

// Movie 影片
type Movie struct {
	ID            int       `json:"id" gorm:"primaryKey"`
	Title         string    `json:"title" gorm:"not null;index"`
	Genre         string    `json:"genre" gorm:"index"`
	ReleaseYear   int       `json:"releaseYear"`
	TotalEpisodes int       `json:"totalEpisodes"`
	Rating        float64   `json:"rating"`
	Views         int64     `json:"views" gorm:"not null;default:0"`
	Summary       string    `json:"summary"`
	PosterURL     string    `json:"posterUrl" gorm:"column:poster_url"`
	TrailerURL    string    `json:"trailerUrl" gorm:"column:trailer_url"`
	Status        string    `json:"status" gorm:"index"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Episode 剧集，同一影片下 episode_number 不做唯一约束
type Episode struct {
	ID            int       `json:"id" gorm:"primaryKey"`
	MovieID       int       `json:"movieId" gorm:"not null;index"`
	EpisodeNumber int       `json:"episodeNumber" gorm:"not null"`
	VideoURL      string    `json:"videoUrl" gorm:"column:video_url"`
	CreatedAt     time.Time `json:"createdAt"`
	Movie         *Movie    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}
