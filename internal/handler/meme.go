package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mememage/mememage/internal/auth"
	"github.com/mememage/mememage/internal/handler/dto"
	"github.com/mememage/mememage/internal/model"
	"github.com/mememage/mememage/internal/service"
)

// MemeFlows is the meme flow the meme endpoints need.
type MemeFlows interface {
	Create(ctx context.Context, subject string, in service.CreateMemeInput) (*model.Meme, error)
	List(ctx context.Context, limit, offset int) ([]*model.Meme, error)
	Get(ctx context.Context, id string) (*model.Meme, error)
	Like(ctx context.Context, id string) (int64, error)
	ListForUser(ctx context.Context, subject string) ([]*model.Meme, error)
}

// MemeHandler handles meme endpoints.
type MemeHandler struct {
	svc    MemeFlows
	logger *slog.Logger
}

// NewMemeHandler creates a new MemeHandler.
func NewMemeHandler(svc MemeFlows, logger *slog.Logger) *MemeHandler {
	return &MemeHandler{
		svc:    svc,
		logger: logger.With("component", "handler.meme"),
	}
}

// Create renders a meme for the authenticated user.
// POST /api/memes
func (h *MemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	meme, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), service.CreateMemeInput{
		Title:        req.Title,
		TopText:      req.TopText,
		BottomText:   req.BottomText,
		TemplateName: req.TemplateName,
		ImageData:    req.ImageData,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusCreated, meme)
}

// List returns memes newest first.
// GET /api/memes?limit=&offset=
func (h *MemeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), service.DefaultListLimit)
	offset := queryInt(q.Get("offset"), 0)

	memes, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, nonNil(memes))
}

// Get returns one meme and counts a view.
// GET /api/memes/{id}
func (h *MemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	meme, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, meme)
}

// Like adds a like to a meme.
// POST /api/memes/{id}/like
func (h *MemeHandler) Like(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Like(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, "Meme liked")
}

// MyMemes returns the authenticated user's memes.
// GET /api/memes/user/my-memes
func (h *MemeHandler) MyMemes(w http.ResponseWriter, r *http.Request) {
	memes, err := h.svc.ListForUser(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeData(w, http.StatusOK, nonNil(memes))
}

// queryInt parses a query value, falling back to def when absent or malformed.
func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func nonNil(memes []*model.Meme) []*model.Meme {
	if memes == nil {
		return []*model.Meme{}
	}
	return memes
}
