package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
)

func ListGuides(g *services.GuideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.GuideFilter{
			Location: c.Query("location"),
			Language: c.Query("language"),
			Page:     queryInt(c, "page", 1),
			Limit:    queryInt(c, "limit", 20),
		}
		filter.Normalize()

		guides, total, err := g.ListGuides(c.Request.Context(), filter)
		if err != nil {
			fail(c, err, "Failed to list guides")
			return
		}
		helpers.PaginatedResponse(c, http.StatusOK, guides, filter.Page, filter.Limit, total)
	}
}

func GetGuide(g *services.GuideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid guide ID format", nil)
			return
		}
		guide, err := g.GetGuide(c.Request.Context(), id)
		if err != nil {
			fail(c, err, "Failed to load guide")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", guide)
	}
}

func ListGuideReviews(r *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid guide ID format", nil)
			return
		}
		reviews, err := r.ListForGuide(c.Request.Context(), id, queryInt(c, "limit", 0))
		if err != nil {
			fail(c, err, "Failed to list reviews")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", reviews)
	}
}

func UpdateMyGuide(g *services.GuideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req models.UpdateGuideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		guide, err := g.UpdateCertifications(c.Request.Context(), actor, &req)
		if err != nil {
			fail(c, err, "Failed to update guide profile")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "Guide profile updated", guide)
	}
}

// UploadDocument takes a multipart "document" field and stores it as a
// verification document for the calling guide.
func UploadDocument(g *services.GuideService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxDocumentSize+1<<20)

		header, err := c.FormFile("document")
		if err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "A document file is required", err)
			return
		}
		file, err := header.Open()
		if err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Could not read the uploaded file", err)
			return
		}
		defer file.Close()

		url, err := g.UploadVerificationDocument(
			c.Request.Context(),
			actor,
			header.Filename,
			header.Header.Get("Content-Type"),
			header.Size,
			file,
		)
		if err != nil {
			fail(c, err, "Failed to upload document")
			return
		}
		helpers.SuccessResponse(c, http.StatusCreated, "Document uploaded", gin.H{"url": url})
	}
}
