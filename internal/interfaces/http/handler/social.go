package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
	"serial-story-api/internal/interfaces/http/dto"
	"serial-story-api/internal/interfaces/http/middleware"
	apperrors "serial-story-api/pkg/errors"
	"serial-story-api/pkg/logger"
)

// SocialHandler 点赞、评分与评论处理器
type SocialHandler struct {
	bookRepo    repository.BookRepository
	likeRepo    repository.LikeRepository
	ratingRepo  repository.RatingRepository
	commentRepo repository.CommentRepository
}

// NewSocialHandler 创建社交处理器
func NewSocialHandler(
	bookRepo repository.BookRepository,
	likeRepo repository.LikeRepository,
	ratingRepo repository.RatingRepository,
	commentRepo repository.CommentRepository,
) *SocialHandler {
	return &SocialHandler{
		bookRepo:    bookRepo,
		likeRepo:    likeRepo,
		ratingRepo:  ratingRepo,
		commentRepo: commentRepo,
	}
}

// GetLike 点赞状态
// @Summary 获取点赞状态
// @Tags Social
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.LikeResponse]
// @Router /v1/books/{id}/like [get]
func (h *SocialHandler) GetLike(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	if !h.requireBook(c, bookID) {
		return
	}

	state, err := h.likeRepo.State(ctx, bookID, middleware.GetUserIDFromGin(c))
	if err != nil {
		logger.Error(ctx, "failed to get like state", err)
		dto.InternalError(c, "failed to get like state")
		return
	}
	dto.Success(c, dto.ToLikeResponse(bookID, state))
}

// ToggleLike 切换点赞
// @Summary 点赞 / 取消点赞
// @Tags Social
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.LikeResponse]
// @Router /v1/books/{id}/like [post]
func (h *SocialHandler) ToggleLike(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	if !h.requireBook(c, bookID) {
		return
	}

	state, err := h.likeRepo.Toggle(ctx, bookID, middleware.GetUserIDFromGin(c))
	if err != nil {
		logger.Error(ctx, "failed to toggle like", err)
		dto.InternalError(c, "failed to toggle like")
		return
	}
	dto.Success(c, dto.ToLikeResponse(bookID, state))
}

// GetRating 当前用户评分
// @Summary 获取我的评分
// @Tags Social
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.RatingResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{id}/rating [get]
func (h *SocialHandler) GetRating(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	rating, err := h.ratingRepo.GetByBookAndUser(ctx, bookID, middleware.GetUserIDFromGin(c))
	if err != nil {
		logger.Error(ctx, "failed to get rating", err)
		dto.InternalError(c, "failed to get rating")
		return
	}
	if rating == nil {
		dto.NotFound(c, "rating not found")
		return
	}
	dto.Success(c, dto.ToRatingResponse(rating))
}

// Rate 评分（每人每本一次，1-5）
// @Summary 评分
// @Tags Social
// @Accept json
// @Produce json
// @Param id path string true "书籍 ID"
// @Param body body dto.RateRequest true "评分"
// @Success 201 {object} dto.Response[dto.RatingResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/books/{id}/rating [post]
func (h *SocialHandler) Rate(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	var req dto.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !h.requireBook(c, bookID) {
		return
	}

	rating, err := entity.NewRating(bookID, middleware.GetUserIDFromGin(c), req.Rating)
	if err != nil {
		dto.FromError(c, apperrors.ErrInvalidRating.WithError(err), "")
		return
	}

	if err := h.ratingRepo.Create(ctx, rating); err != nil {
		if errors.Is(err, repository.ErrAlreadyRated) {
			dto.BadRequest(c, "already rated")
			return
		}
		logger.Error(ctx, "failed to create rating", err)
		dto.InternalError(c, "failed to create rating")
		return
	}
	dto.Created(c, dto.ToRatingResponse(rating))
}

// ListComments 评论列表
// @Summary 评论列表
// @Tags Social
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.CommentListResponse]
// @Router /v1/books/{id}/comments [get]
func (h *SocialHandler) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	page := dto.BindPage(c)

	result, err := h.commentRepo.ListByBook(ctx, bookID, repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list comments", err)
		dto.InternalError(c, "failed to list comments")
		return
	}
	dto.SuccessWithPage(c, dto.ToCommentListResponse(result.Items), dto.NewPageMeta(page.Page, page.PageSize, int(result.Total)))
}

// CreateComment 发表评论
// @Summary 发表评论
// @Tags Social
// @Accept json
// @Produce json
// @Param id path string true "书籍 ID"
// @Param body body dto.CommentRequest true "评论内容"
// @Success 201 {object} dto.Response[dto.CommentResponse]
// @Router /v1/books/{id}/comments [post]
func (h *SocialHandler) CreateComment(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if !h.requireBook(c, bookID) {
		return
	}

	comment, err := entity.NewComment(bookID, middleware.GetUserIDFromGin(c), req.Content)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	if err := h.commentRepo.Create(ctx, comment); err != nil {
		logger.Error(ctx, "failed to create comment", err)
		dto.InternalError(c, "failed to create comment")
		return
	}
	dto.Created(c, dto.ToCommentResponse(comment))
}

// UpdateComment 修改评论（仅作者）
// @Summary 修改评论
// @Tags Social
// @Accept json
// @Produce json
// @Param id path string true "书籍 ID"
// @Param cid path string true "评论 ID"
// @Success 200 {object} dto.Response[dto.CommentResponse]
// @Failure 403 {object} dto.ErrorResponse
// @Router /v1/books/{id}/comments/{cid} [put]
func (h *SocialHandler) UpdateComment(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	comment, ok := h.authoredComment(c)
	if !ok {
		return
	}
	if err := comment.SetContent(req.Content); err != nil {
		dto.BadRequest(c, err.Error())
		return
	}
	if err := h.commentRepo.Update(ctx, comment); err != nil {
		logger.Error(ctx, "failed to update comment", err)
		dto.InternalError(c, "failed to update comment")
		return
	}
	dto.Success(c, dto.ToCommentResponse(comment))
}

// DeleteComment 删除评论（仅作者）
// @Summary 删除评论
// @Tags Social
// @Param id path string true "书籍 ID"
// @Param cid path string true "评论 ID"
// @Success 204
// @Router /v1/books/{id}/comments/{cid} [delete]
func (h *SocialHandler) DeleteComment(c *gin.Context) {
	ctx := c.Request.Context()

	comment, ok := h.authoredComment(c)
	if !ok {
		return
	}
	if err := h.commentRepo.Delete(ctx, comment.ID); err != nil {
		logger.Error(ctx, "failed to delete comment", err)
		dto.InternalError(c, "failed to delete comment")
		return
	}
	dto.NoContent(c)
}

// authoredComment 加载评论并校验归属，失败时已写入响应
func (h *SocialHandler) authoredComment(c *gin.Context) (*entity.Comment, bool) {
	ctx := c.Request.Context()

	comment, err := h.commentRepo.GetByID(ctx, dto.BindCommentID(c))
	if err != nil {
		logger.Error(ctx, "failed to get comment", err)
		dto.InternalError(c, "failed to get comment")
		return nil, false
	}
	if comment == nil || comment.BookID != dto.BindBookID(c) {
		dto.FromError(c, apperrors.ErrCommentNotFound, "")
		return nil, false
	}
	if !comment.IsAuthoredBy(middleware.GetUserIDFromGin(c)) {
		dto.Forbidden(c, "only the author can modify this comment")
		return nil, false
	}
	return comment, true
}

func (h *SocialHandler) requireBook(c *gin.Context, bookID string) bool {
	exists, err := h.bookExists(c.Request.Context(), bookID)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get book", err)
		dto.InternalError(c, "failed to get book")
		return false
	}
	if !exists {
		dto.FromError(c, apperrors.ErrBookNotFound, "")
		return false
	}
	return true
}

func (h *SocialHandler) bookExists(ctx context.Context, bookID string) (bool, error) {
	book, err := h.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return false, err
	}
	return book != nil, nil
}
