package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/handler"
)

// RegisterSellers registers seller CRUD for USER accounts. Image downloads
// are public and cached.
func RegisterSellers(e *echo.Echo, s *handler.SellerHandler, g Guards) {
	api := e.Group("/api")

	api.POST("/addSeller", s.AddSeller, g.user()...)
	api.POST("/addSellerImg", s.AddSellerImg, g.user()...)
	api.GET("/my-sellers", s.MySellers, g.user()...)
	api.DELETE("/delete/:id", s.DeleteSeller, g.user()...)

	api.GET("/seller/serveImage/:filename", s.ServeImage, g.Cache)
}
