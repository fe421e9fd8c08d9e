package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"serial-story-api/internal/application/story"
	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
	"serial-story-api/internal/interfaces/http/dto"
	"serial-story-api/internal/interfaces/http/middleware"
	apperrors "serial-story-api/pkg/errors"
	"serial-story-api/pkg/logger"
)

// StoryService 生成流水线
type StoryService interface {
	CreateBook(ctx context.Context, in story.CreateBookInput) (*story.CreateBookResult, error)
	GenerateNextChapter(ctx context.Context, req story.GenerationRequest) (*story.GenerationResult, error)
	RefreshImage(ctx context.Context, bookID string) (*entity.Book, error)
	DeletePrologue(ctx context.Context, bookID, userID string) error
	DeleteBook(ctx context.Context, bookID, userID string) error
	ImageURL(book *entity.Book) string
}

// BookHandler 书籍处理器
type BookHandler struct {
	stories  StoryService
	bookRepo repository.BookRepository
	chapters repository.ChapterRepository
}

// NewBookHandler 创建书籍处理器
func NewBookHandler(stories StoryService, bookRepo repository.BookRepository, chapters repository.ChapterRepository) *BookHandler {
	return &BookHandler{
		stories:  stories,
		bookRepo: bookRepo,
		chapters: chapters,
	}
}

// CreateBook 根据用户构想生成要素与封面并创建书籍
// @Summary 创建书籍
// @Tags Books
// @Accept json
// @Produce json
// @Param body body dto.CreateBookRequest true "故事构想"
// @Success 201 {object} dto.Response[dto.CreateBookResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.stories.CreateBook(ctx, story.CreateBookInput{
		Prompt:   req.Prompt,
		OwnerID:  middleware.GetUserIDFromGin(c),
		Language: req.Language,
	})
	if err != nil {
		dto.FromError(c, err, "failed to create book")
		return
	}
	dto.Created(c, dto.ToCreateBookResponse(res))
}

// ListBooks 按创建时间倒序列出书籍
// @Summary 书籍列表
// @Tags Books
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.BookListResponse]
// @Router /v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	h.list(c, nil)
}

// ListMyBooks 当前用户创建的书籍
// @Summary 我的书籍
// @Tags Books
// @Produce json
// @Success 200 {object} dto.Response[dto.BookListResponse]
// @Router /v1/users/me/books [get]
func (h *BookHandler) ListMyBooks(c *gin.Context) {
	h.list(c, &repository.BookFilter{OwnerID: middleware.GetUserIDFromGin(c)})
}

// ListLikedBooks 当前用户点赞的书籍
// @Summary 我点赞的书籍
// @Tags Books
// @Produce json
// @Success 200 {object} dto.Response[dto.BookListResponse]
// @Router /v1/users/me/liked-books [get]
func (h *BookHandler) ListLikedBooks(c *gin.Context) {
	h.list(c, &repository.BookFilter{LikedBy: middleware.GetUserIDFromGin(c)})
}

func (h *BookHandler) list(c *gin.Context, filter *repository.BookFilter) {
	ctx := c.Request.Context()
	page := dto.BindPage(c)

	result, err := h.bookRepo.ListSummaries(ctx, filter, repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list books", err)
		dto.InternalError(c, "failed to list books")
		return
	}

	meta := dto.NewPageMeta(page.Page, page.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToBookListResponse(result.Items, h.stories.ImageURL), meta)
}

// GetBook 书籍详情，章节按章节号排序
// @Summary 书籍详情
// @Tags Books
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.BookResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	summary, err := h.bookRepo.GetSummary(ctx, bookID)
	if err != nil {
		logger.Error(ctx, "failed to get book", err)
		dto.InternalError(c, "failed to get book")
		return
	}
	if summary == nil {
		dto.FromError(c, apperrors.ErrBookNotFound, "")
		return
	}

	chapters, err := h.chapters.ListByBook(ctx, bookID)
	if err != nil {
		logger.Error(ctx, "failed to list chapters", err)
		dto.InternalError(c, "failed to list chapters")
		return
	}

	resp := dto.ToBookResponse(summary, h.stories.ImageURL)
	resp.Chapters = dto.ToChapterDTOs(chapters)
	dto.Success(c, resp)
}

// DeleteBook 删除书籍（仅作者）
// @Summary 删除书籍
// @Tags Books
// @Param id path string true "书籍 ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	if err := h.stories.DeleteBook(c.Request.Context(), dto.BindBookID(c), middleware.GetUserIDFromGin(c)); err != nil {
		dto.FromError(c, err, "failed to delete book")
		return
	}
	dto.NoContent(c)
}

// RefreshImage 重新生成封面
// @Summary 重新生成封面
// @Tags Books
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.ImageResponse]
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/books/{id}/image [post]
func (h *BookHandler) RefreshImage(c *gin.Context) {
	book, err := h.stories.RefreshImage(c.Request.Context(), dto.BindBookID(c))
	if err != nil {
		dto.FromError(c, err, "failed to refresh image")
		return
	}
	dto.Success(c, &dto.ImageResponse{BookID: book.ID, ImageURL: h.stories.ImageURL(book)})
}
