package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sellerhub/internal/middleware"
	"github.com/iliyamo/sellerhub/internal/model"
	"github.com/iliyamo/sellerhub/internal/storage/local"
)

// multipartBody builds a form with the given fields and, when image is
// non-nil, an "image" file part.
func multipartBody(t *testing.T, fields map[string]string, filename string, image []byte) (string, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		fw, err := w.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.String(), w.FormDataContentType()
}

func sellerEcho(t *testing.T) (*echo.Echo, *fakeSellers) {
	t.Helper()
	sellers := newFakeSellers()
	h := NewSellerHandler(sellers, local.New(t.TempDir()))
	user := middleware.RequireRole(model.RoleUser)
	e := echo.New()
	e.POST("/api/addSeller", h.AddSeller, authMW, user)
	e.POST("/api/addSellerImg", h.AddSellerImg, authMW, user)
	e.GET("/api/my-sellers", h.MySellers, authMW, user)
	e.DELETE("/api/delete/:id", h.DeleteSeller, authMW, user)
	e.GET("/api/seller/serveImage/:filename", h.ServeImage)
	return e, sellers
}

func TestSellerHandler_AddAndList(t *testing.T) {
	e, _ := sellerEcho(t)

	rec := call(e, http.MethodPost, "/api/addSeller", "alice", echo.MIMEApplicationJSON,
		`{"name":"Corner Shop","email":"shop@x.io","grossSale":120.5,"earning":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"New seller added"}`, rec.Body.String())

	rec = call(e, http.MethodPost, "/api/addSeller", "bob", echo.MIMEApplicationJSON, `{"name":"Bob's"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodGet, "/api/my-sellers", "alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Seller
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Corner Shop", list[0].Name)
	assert.Equal(t, uint64(1), list[0].UserID)
	require.NotNil(t, list[0].GrossSale)
	assert.InDelta(t, 120.5, *list[0].GrossSale, 0.001)

	rec = call(e, http.MethodPost, "/api/addSeller", "alice", echo.MIMEApplicationJSON, `{"name":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSellerHandler_Guards(t *testing.T) {
	e, _ := sellerEcho(t)

	rec := call(e, http.MethodGet, "/api/my-sellers", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(e, http.MethodGet, "/api/my-sellers", "root", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSellerHandler_ImageUploadAndServe(t *testing.T) {
	e, _ := sellerEcho(t)
	png := []byte("\x89PNG\r\n\x1a\nfake")

	body, ct := multipartBody(t, map[string]string{"name": "Shop", "grossSale": "10", "earning": ""}, "../../logo.png", png)
	rec := call(e, http.MethodPost, "/api/addSellerImg", "alice", ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s model.Seller
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	require.NotNil(t, s.ImagePath)
	assert.True(t, strings.HasSuffix(*s.ImagePath, "_logo.png"), *s.ImagePath)
	assert.NotContains(t, *s.ImagePath, "/")
	assert.Nil(t, s.Earning)

	rec = call(e, http.MethodGet, "/api/seller/serveImage/"+*s.ImagePath, "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	rec = call(e, http.MethodGet, "/api/seller/serveImage/missing.png", "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSellerHandler_ImageRequired(t *testing.T) {
	e, sellers := sellerEcho(t)

	body, ct := multipartBody(t, map[string]string{"name": "Shop"}, "", nil)
	rec := call(e, http.MethodPost, "/api/addSellerImg", "alice", ct, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Image file is required")

	body, ct = multipartBody(t, map[string]string{"name": "Shop"}, "empty.png", []byte{})
	rec = call(e, http.MethodPost, "/api/addSellerImg", "alice", ct, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = multipartBody(t, map[string]string{"name": "Shop", "grossSale": "lots"}, "a.png", []byte("x"))
	rec = call(e, http.MethodPost, "/api/addSellerImg", "alice", ct, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, sellers.rows)
}

func TestSellerHandler_Delete(t *testing.T) {
	e, sellers := sellerEcho(t)
	rec := call(e, http.MethodPost, "/api/addSeller", "alice", echo.MIMEApplicationJSON, `{"name":"Shop"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodDelete, "/api/delete/1", "bob", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Len(t, sellers.rows, 1)

	rec = call(e, http.MethodDelete, "/api/delete/1", "alice", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Seller deleted successfully"}`, rec.Body.String())
	assert.Empty(t, sellers.rows)

	rec = call(e, http.MethodDelete, "/api/delete/1", "alice", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(e, http.MethodDelete, "/api/delete/x", "alice", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCleanFileName(t *testing.T) {
	cases := map[string]string{
		"logo.png":         "logo.png",
		"../../etc/passwd": "passwd",
		`C:\tmp\a b.jpg`:   "a_b.jpg",
		"..":               "image",
		"":                 "image",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanFileName(in), in)
	}
}

func TestSellerHandler_ImageFollowsRow(t *testing.T) {
	dir := t.TempDir()
	sellers := newFakeSellers()
	h := NewSellerHandler(sellers, local.New(dir))
	e := echo.New()
	e.POST("/api/addSellerImg", h.AddSellerImg, authMW)
	e.DELETE("/api/delete/:id", h.DeleteSeller, authMW)

	body, ct := multipartBody(t, map[string]string{"name": "Shop"}, "logo.png", []byte("img"))
	rec := call(e, http.MethodPost, "/api/addSellerImg", "alice", ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var row model.Seller
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	require.NotNil(t, row.ImagePath)
	stored := filepath.Join(dir, sellerFolder, *row.ImagePath)
	_, err := os.Stat(stored)
	require.NoError(t, err)

	rec = call(e, http.MethodDelete, "/api/delete/1", "alice", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = os.Stat(stored)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// a failed insert leaves no upload behind
	sellers.createErr = errors.New("db down")
	body, ct = multipartBody(t, map[string]string{"name": "Shop"}, "logo.png", []byte("img"))
	rec = call(e, http.MethodPost, "/api/addSellerImg", "alice", ct, body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	entries, err := os.ReadDir(filepath.Join(dir, sellerFolder))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
