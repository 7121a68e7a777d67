package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/helpers"
)

type Tour struct {
	ID              uuid.UUID `json:"id"`
	GuideID         uuid.UUID `json:"guide_id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	Price           float64   `json:"price"`
	Location        string    `json:"location"`
	Duration        string    `json:"duration"`
	Images          []string  `json:"images"`
	Category        string    `json:"category"`
	MaxParticipants int       `json:"max_participants"`
	Rating          float64   `json:"rating"`
	ReviewCount     int       `json:"review_count"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateTourRequest struct {
	Title           string   `json:"title" validate:"required,min=3,max=120"`
	Description     string   `json:"description" validate:"required,min=10"`
	Price           float64  `json:"price" validate:"required,gt=0"`
	Location        string   `json:"location" validate:"required"`
	Duration        string   `json:"duration" validate:"required,max=50"`
	Images          []string `json:"images" validate:"max=10"`
	Category        string   `json:"category" validate:"required"`
	MaxParticipants int      `json:"max_participants" validate:"required,min=1,max=100"`
}

func (r *CreateTourRequest) Sanitize() {
	r.Title = helpers.StringTrim(r.Title)
	r.Description = helpers.StringTrim(r.Description)
	r.Location = helpers.StringTrim(r.Location)
	r.Duration = helpers.StringTrim(r.Duration)
	r.Category = strings.ToLower(helpers.StringTrim(r.Category))
	r.Images = helpers.RemoveDuplicates(r.Images)
}

// TourUpdateFields lists the columns the owning guide may patch.
var TourUpdateFields = map[string]bool{
	"title":            true,
	"description":      true,
	"price":            true,
	"location":         true,
	"duration":         true,
	"images":           true,
	"category":         true,
	"max_participants": true,
}

type TourFilter struct {
	Location        string
	Category        string
	MinPrice        float64
	MaxPrice        float64
	GuideID         string
	IncludeInactive bool
	Page            int
	Limit           int
}

func (f *TourFilter) Normalize() {
	f.Location = strings.ToLower(strings.TrimSpace(f.Location))
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 50 {
		f.Limit = 20
	}
}

// CacheKey identifies a normalized listing query.
func (f TourFilter) CacheKey() string {
	return fmt.Sprintf("tours:list:loc=%s:cat=%s:min=%g:max=%g:guide=%s:all=%t:p=%d:l=%d",
		f.Location, f.Category, f.MinPrice, f.MaxPrice, f.GuideID, f.IncludeInactive, f.Page, f.Limit)
}

type TourPage struct {
	Tours []*Tour `json:"tours"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}
