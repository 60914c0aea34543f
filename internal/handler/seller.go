package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/model"
	"github.com/iliyamo/sellerhub/internal/repository"
	"github.com/iliyamo/sellerhub/internal/storage"
)

const sellerFolder = "seller"

// SellerStore is implemented by repository.SellerRepo.
type SellerStore interface {
	Create(ctx context.Context, s *model.Seller) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Seller, error)
	DeleteOwned(ctx context.Context, id, ownerID uint64) (model.Seller, error)
}

// SellerHandler serves the caller's seller profiles and their images.
type SellerHandler struct {
	Sellers SellerStore
	Blobs   storage.Storage
}

func NewSellerHandler(sellers SellerStore, blobs storage.Storage) *SellerHandler {
	return &SellerHandler{Sellers: sellers, Blobs: blobs}
}

type sellerReq struct {
	Name      string   `json:"name"`
	Email     *string  `json:"email"`
	GrossSale *float32 `json:"grossSale"`
	Earning   *float32 `json:"earning"`
}

// AddSeller: POST /api/addSeller (JSON body).
func (h *SellerHandler) AddSeller(c echo.Context) error {
	uid, ok := callerIDFrom(c)
	if !ok {
		return unauthorized(c)
	}
	var req sellerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s := model.Seller{
		UserID:    uid,
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		GrossSale: req.GrossSale,
		Earning:   req.Earning,
	}
	if err := h.Sellers.Create(ctx, &s); err != nil {
		return internalError(c, "create seller failed", err)
	}
	return message(c, http.StatusOK, "New seller added")
}

// AddSellerImg: POST /api/addSellerImg (multipart: name, email, grossSale,
// earning, image). Replies with the stored seller.
func (h *SellerHandler) AddSellerImg(c echo.Context) error {
	uid, ok := callerIDFrom(c)
	if !ok {
		return unauthorized(c)
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	grossSale, err := optionalFloat32(c.FormValue("grossSale"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "grossSale must be a number"})
	}
	earning, err := optionalFloat32(c.FormValue("earning"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "earning must be a number"})
	}
	fh := imageFile(c)
	if fh == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Image file is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	file, err := saveUpload(ctx, h.Blobs, sellerFolder, fh)
	if err != nil {
		return internalError(c, "store image failed", err)
	}
	s := model.Seller{
		UserID:    uid,
		Name:      name,
		Email:     optionalString(c.FormValue("email")),
		GrossSale: grossSale,
		Earning:   earning,
		ImagePath: &file,
	}
	if err := h.Sellers.Create(ctx, &s); err != nil {
		dropBlob(c, h.Blobs, sellerFolder, file)
		return internalError(c, "create seller failed", err)
	}
	return c.JSON(http.StatusOK, s)
}

// MySellers: GET /api/my-sellers
func (h *SellerHandler) MySellers(c echo.Context) error {
	uid, ok := callerIDFrom(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Sellers.ListByUser(ctx, uid)
	if err != nil {
		return internalError(c, "list sellers failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

// DeleteSeller: DELETE /api/delete/:id. Only the owner may delete.
func (h *SellerHandler) DeleteSeller(c echo.Context) error {
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

	gone, err := h.Sellers.DeleteOwned(ctx, id, uid)
	switch {
	case err == nil:
		if gone.ImagePath != nil {
			dropBlob(c, h.Blobs, sellerFolder, *gone.ImagePath)
		}
		return message(c, http.StatusOK, "Seller deleted successfully")
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Seller not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "You are not authorized to delete this seller"})
	default:
		return internalError(c, "delete seller failed", err)
	}
}

// ServeImage: GET /api/seller/serveImage/:filename
func (h *SellerHandler) ServeImage(c echo.Context) error {
	return serveBlob(c, h.Blobs, sellerFolder)
}
