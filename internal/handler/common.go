package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"

	"github.com/iliyamo/sellerhub/internal/logger"
	"github.com/iliyamo/sellerhub/internal/middleware"
	"github.com/iliyamo/sellerhub/internal/storage"
)

const dbTimeout = 5 * time.Second

// reqCtx bounds store calls made on behalf of a request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// internalError logs err with the request logger and replies with a generic
// 500 so storage details never reach the client.
func internalError(c echo.Context, op string, err error) error {
	logger.FromContext(c.Request().Context()).Error(op, "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": op})
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// unauthorized is the reply for owner-scoped routes reached without an
// identity, which only happens when JWTAuth was not mounted.
func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid JWT token"})
}

func callerIDFrom(c echo.Context) (uint64, bool) {
	return middleware.UserID(c)
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func bearerToken(c echo.Context) string {
	raw, _ := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
	return strings.TrimSpace(raw)
}

// cleanFileName keeps the base name of an uploaded file and replaces
// anything outside [A-Za-z0-9._-].
func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "image"
	}
	return out
}

// saveUpload stores fh under folder and returns the generated file name
// (without folder) to persist as image_path.
func saveUpload(ctx context.Context, store storage.Storage, folder string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	name := ulid.Make().String() + "_" + cleanFileName(fh.Filename)
	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = storage.ContentTypeFor(name)
	}
	if err := store.Save(ctx, folder+"/"+name, f, fh.Size, ct); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return name, nil
}

// dropBlob removes folder/name after the row that referenced it is gone
// or was never written. Failures are logged and otherwise ignored.
func dropBlob(c echo.Context, store storage.Storage, folder, name string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), dbTimeout)
	defer cancel()
	if err := store.Delete(ctx, folder+"/"+name); err != nil {
		logger.FromContext(ctx).Warn("remove image failed", "key", folder+"/"+name, "err", err)
	}
}

// imageFile returns the "image" part of a multipart request, nil when
// absent or empty.
func imageFile(c echo.Context) *multipart.FileHeader {
	fh, err := c.FormFile("image")
	if err != nil || fh.Size == 0 {
		return nil
	}
	return fh
}

// serveBlob streams folder/<filename> from store.
func serveBlob(c echo.Context, store storage.Storage, folder string) error {
	key := folder + "/" + c.Param("filename")
	rc, info, err := store.Open(c.Request().Context(), key)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return c.NoContent(http.StatusNotFound)
	}
	if err != nil {
		return internalError(c, "read image failed", err)
	}
	defer rc.Close()

	ct := info.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = storage.ContentTypeFor(key)
	}
	return c.Stream(http.StatusOK, ct, rc)
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func optionalFloat32(v string) (*float32, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return nil, err
	}
	out := float32(f)
	return &out, nil
}
