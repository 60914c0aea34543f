package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/model"
	"github.com/iliyamo/sellerhub/internal/repository"
	"github.com/iliyamo/sellerhub/internal/storage"
)

const reviewFolder = "review"

// ReviewStore is implemented by repository.ReviewRepo.
type ReviewStore interface {
	Create(ctx context.Context, r *model.Review) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Review, error)
	DeleteOwned(ctx context.Context, id, ownerID uint64) (model.Review, error)
}

type ReviewHandler struct {
	Reviews ReviewStore
	Blobs   storage.Storage
}

func NewReviewHandler(reviews ReviewStore, blobs storage.Storage) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Blobs: blobs}
}

type reviewReq struct {
	ReviewerName string  `json:"reviewerName"`
	Comment      *string `json:"comment"`
	Rating       int     `json:"rating"`
}

func validRating(r int) bool { return r >= 0 && r <= 5 }

// AddReview: POST /api/addReview (JSON body).
func (h *ReviewHandler) AddReview(c echo.Context) error {
	uid, ok := callerIDFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.ReviewerName) == "" || !validRating(req.Rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reviewerName and a rating between 0 and 5 are required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	r := model.Review{
		UserID:       uid,
		ReviewerName: strings.TrimSpace(req.ReviewerName),
		Comment:      req.Comment,
		Rating:       req.Rating,
	}
	if err := h.Reviews.Create(ctx, &r); err != nil {
		return internalError(c, "create review failed", err)
	}
	return message(c, http.StatusOK, "Review added successfully")
}

// AddReviewImg: POST /api/addReviewImg (multipart: reviewerName, comment,
// rating, image). Replies with the stored review.
func (h *ReviewHandler) AddReviewImg(c echo.Context) error {
	uid, ok := callerIDFrom(c)
	if !ok {
		return unauthorized(c)
	}
	name := strings.TrimSpace(c.FormValue("reviewerName"))
	rating := 0
	if v := strings.TrimSpace(c.FormValue("rating")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be a number"})
		}
		rating = n
	}
	if name == "" || !validRating(rating) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reviewerName and a rating between 0 and 5 are required"})
	}
	fh := imageFile(c)
	if fh == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Image file is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	file, err := saveUpload(ctx, h.Blobs, reviewFolder, fh)
	if err != nil {
		return internalError(c, "store image failed", err)
	}
	r := model.Review{
		UserID:       uid,
		ReviewerName: name,
		Comment:      optionalString(c.FormValue("comment")),
		Rating:       rating,
		ImagePath:    &file,
	}
	if err := h.Reviews.Create(ctx, &r); err != nil {
		dropBlob(c, h.Blobs, reviewFolder, file)
		return internalError(c, "create review failed", err)
	}
	return c.JSON(http.StatusOK, r)
}

// MyReviews: GET /api/my-reviews
func (h *ReviewHandler) MyReviews(c echo.Context) error {
	uid, ok := callerIDFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Reviews.ListByUser(ctx, uid)
	if err != nil {
		return internalError(c, "list reviews failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

// DeleteReview: DELETE /api/deleteReview/:id
func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	uid, ok := callerIDFrom(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	gone, err := h.Reviews.DeleteOwned(ctx, id, uid)
	switch {
	case err == nil:
		if gone.ImagePath != nil {
			dropBlob(c, h.Blobs, reviewFolder, *gone.ImagePath)
		}
		return message(c, http.StatusOK, "Review deleted successfully")
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Review not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You are not authorized to delete this review"})
	default:
		return internalError(c, "delete review failed", err)
	}
}

// ServeImage: GET /api/review/serveImage/:filename
func (h *ReviewHandler) ServeImage(c echo.Context) error {
	return serveBlob(c, h.Blobs, reviewFolder)
}
