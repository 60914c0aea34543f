package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sellerhub/internal/middleware"
	"github.com/iliyamo/sellerhub/internal/model"
	"github.com/iliyamo/sellerhub/internal/repository"
)

// tokens maps bearer tokens to users for JWTAuth and ExtractUserID.
type tokens map[string]model.User

func (t tokens) Authenticate(_ context.Context, raw string) (model.User, error) {
	u, ok := t[raw]
	if !ok {
		return model.User{}, errors.New("invalid")
	}
	return u, nil
}

func (t tokens) ExtractUserID(ctx context.Context, raw string) (uint64, error) {
	u, err := t.Authenticate(ctx, raw)
	return u.ID, err
}

var (
	alice = model.User{ID: 1, Email: "alice@x.io", FullName: "Alice", StoreType: "retail", Role: model.RoleUser, Status: model.StatusActive}
	bob   = model.User{ID: 2, Email: "bob@x.io", Role: model.RoleUser, Status: model.StatusPending}
	root  = model.User{ID: 9, Email: "root@x.io", Role: model.RoleAdmin, Status: model.StatusActive}

	testTokens = tokens{"alice": alice, "bob": bob, "root": root}
	authMW     = middleware.JWTAuth(testTokens)
)

func call(e *echo.Echo, method, target, token, contentType string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type fakeSellers struct {
	mu        sync.Mutex
	rows      map[uint64]model.Seller
	nextID    uint64
	createErr error
}

func newFakeSellers() *fakeSellers { return &fakeSellers{rows: map[uint64]model.Seller{}} }

func (f *fakeSellers) Create(_ context.Context, s *model.Seller) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	s.ID = f.nextID
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSellers) ListByUser(_ context.Context, userID uint64) ([]model.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Seller{}
	for i := f.nextID; i > 0; i-- {
		if s, ok := f.rows[i]; ok && s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSellers) DeleteOwned(_ context.Context, id, ownerID uint64) (model.Seller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return model.Seller{}, repository.ErrNotFound
	}
	if s.UserID != ownerID {
		return model.Seller{}, repository.ErrForbidden
	}
	delete(f.rows, id)
	return s, nil
}

type fakeReviews struct {
	mu        sync.Mutex
	rows      map[uint64]model.Review
	nextID    uint64
	createErr error
}

func newFakeReviews() *fakeReviews { return &fakeReviews{rows: map[uint64]model.Review{}} }

func (f *fakeReviews) Create(_ context.Context, r *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	r.ID = f.nextID
	f.rows[r.ID] = *r
	return nil
}

func (f *fakeReviews) ListByUser(_ context.Context, userID uint64) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Review{}
	for i := f.nextID; i > 0; i-- {
		if r, ok := f.rows[i]; ok && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReviews) DeleteOwned(_ context.Context, id, ownerID uint64) (model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	if r.UserID != ownerID {
		return model.Review{}, repository.ErrForbidden
	}
	delete(f.rows, id)
	return r, nil
}

