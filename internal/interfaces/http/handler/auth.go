// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/domain/repository"
	"serial-story-api/internal/interfaces/http/dto"
	"serial-story-api/internal/interfaces/http/middleware"
	"serial-story-api/pkg/logger"
	"serial-story-api/pkg/utils"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	jwtManager *utils.JWTManager
	tokenTTL   time.Duration
	userRepo   repository.UserRepository
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg middleware.AuthConfig, tokenTTL time.Duration, userRepo repository.UserRepository) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthHandler{
		jwtManager: utils.NewJWTManager(cfg.Secret, cfg.Issuer),
		tokenTTL:   tokenTTL,
		userRepo:   userRepo,
	}
}

// Register 注册
// @Summary 用户注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user := entity.NewUser(req.Email, req.Nickname)
	if err := user.SetPassword(req.Password); err != nil {
		logger.Error(ctx, "failed to hash password", err)
		dto.InternalError(c, "registration failed")
		return
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			dto.Conflict(c, "email already registered")
			return
		}
		logger.Error(ctx, "failed to create user", err)
		dto.InternalError(c, "registration failed")
		return
	}

	resp, err := h.issue(user)
	if err != nil {
		logger.Error(ctx, "failed to generate token", err, "user_id", user.ID)
		dto.InternalError(c, "user created but failed to generate token")
		return
	}
	dto.Created(c, resp)
}

// Login 登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "login failed")
		return
	}
	if user == nil || !user.CheckPassword(req.Password) {
		dto.Unauthorized(c, "invalid email or password")
		return
	}

	if err := h.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to update last login time", "error", err.Error(), "user_id", user.ID)
	}

	resp, err := h.issue(user)
	if err != nil {
		logger.Error(ctx, "failed to generate token", err, "user_id", user.ID)
		dto.InternalError(c, "failed to generate token")
		return
	}
	dto.Success(c, resp)
}

// Me 当前用户
// @Summary 当前用户信息
// @Tags Auth
// @Produce json
// @Success 200 {object} dto.Response[dto.UserDTO]
// @Router /v1/users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.userRepo.GetByID(ctx, middleware.GetUserIDFromGin(c))
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "failed to get user")
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}
	dto.Success(c, dto.ToUserDTO(user))
}

func (h *AuthHandler) issue(user *entity.User) (*dto.AuthResponse, error) {
	token, err := h.jwtManager.GenerateToken(user.ID, user.Nickname, utils.TokenTypeAccess, h.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokenTTL.Seconds()),
		User:        dto.ToUserDTO(user),
	}, nil
}
