package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"serial-story-api/internal/interfaces/http/dto"
	"serial-story-api/internal/interfaces/http/middleware"
)

// ChapterHandler 章节生成处理器
type ChapterHandler struct {
	stories StoryService
}

// NewChapterHandler 创建章节处理器
func NewChapterHandler(stories StoryService) *ChapterHandler {
	return &ChapterHandler{stories: stories}
}

// GenerateChapter 生成下一章：无章节时生成序章，否则按推荐或概要续写
// @Summary 生成下一章
// @Tags Chapters
// @Accept json
// @Produce json
// @Param id path string true "书籍 ID"
// @Param body body dto.GenerateChapterRequest true "续写方向"
// @Success 201 {object} dto.Response[dto.GenerateChapterResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/books/{id}/chapters [post]
func (h *ChapterHandler) GenerateChapter(c *gin.Context) {
	var req dto.GenerateChapterRequest
	// 序章请求允许空请求体
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.stories.GenerateNextChapter(c.Request.Context(), req.ToGenerationRequest(dto.BindBookID(c), middleware.GetUserIDFromGin(c)))
	if err != nil {
		dto.FromError(c, err, "failed to generate chapter")
		return
	}
	dto.Created(c, dto.ToGenerateChapterResponse(res))
}

// DeletePrologue 删除序章（仅作者）
// @Summary 删除序章
// @Tags Chapters
// @Param id path string true "书籍 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{id}/prologue [delete]
func (h *ChapterHandler) DeletePrologue(c *gin.Context) {
	if err := h.stories.DeletePrologue(c.Request.Context(), dto.BindBookID(c), middleware.GetUserIDFromGin(c)); err != nil {
		dto.FromError(c, err, "failed to delete prologue")
		return
	}
	dto.NoContent(c)
}
