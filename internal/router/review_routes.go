package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/handler"
)

// RegisterReviews registers review CRUD. addReviewImg only needs a valid
// token; the other write routes need the USER role.
func RegisterReviews(e *echo.Echo, r *handler.ReviewHandler, g Guards) {
	api := e.Group("/api")

	api.POST("/addReview", r.AddReview, g.user()...)
	api.POST("/addReviewImg", r.AddReviewImg, g.Auth)
	api.GET("/my-reviews", r.MyReviews, g.user()...)
	api.DELETE("/deleteReview/:id", r.DeleteReview, g.user()...)

	api.GET("/review/serveImage/:filename", r.ServeImage, g.Cache)
}
