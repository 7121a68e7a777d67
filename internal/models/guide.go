package models

import (
	"strings"
	"time"
)

const GuidesColName = "guides"

// GuideProfile is the read model served by guide listings. The profiles table
// owns every field except certifications, documents and the counters.
type GuideProfile struct {
	UserID                string    `bson:"_id" json:"user_id"`
	Username              string    `bson:"username" json:"username"`
	FullName              string    `bson:"fullname" json:"fullname"`
	AvatarURL             string    `bson:"avatar_url" json:"avatar_url"`
	Bio                   string    `bson:"bio" json:"bio"`
	Location              string    `bson:"location" json:"location"`
	Languages             []string  `bson:"languages" json:"languages"`
	IsVerified            bool      `bson:"is_verified" json:"is_verified"`
	Certifications        []string  `bson:"certifications" json:"certifications"`
	VerificationDocuments []string  `bson:"verification_documents" json:"verification_documents"`
	Rating                float64   `bson:"rating" json:"rating"`
	ReviewCount           int       `bson:"review_count" json:"review_count"`
	CompletedTours        int       `bson:"completed_tours" json:"completed_tours"`
	UpdatedAt             time.Time `bson:"updated_at" json:"updated_at"`
}

// GuideFromUser derives the profile-owned half of the read model.
func GuideFromUser(u *User) *GuideProfile {
	return &GuideProfile{
		UserID:     u.ID.String(),
		Username:   u.Username,
		FullName:   u.FullName,
		AvatarURL:  u.AvatarURL,
		Bio:        u.Bio,
		Location:   u.Location,
		Languages:  u.Languages,
		IsVerified: u.IsVerified,
		UpdatedAt:  time.Now().UTC(),
	}
}

type GuideFilter struct {
	Location string
	Language string
	Page     int
	Limit    int
}

func (f *GuideFilter) Normalize() {
	f.Location = strings.TrimSpace(f.Location)
	f.Language = strings.TrimSpace(f.Language)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 50 {
		f.Limit = 20
	}
}

type UpdateGuideRequest struct {
	Certifications []string `json:"certifications" validate:"max=20,dive,min=2,max=120"`
}
