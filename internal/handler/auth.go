package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/user/iptvhub/internal/middleware"
	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/utils"
)

type callbackRequest struct {
	Token string `json:"token" binding:"required"`
}

// AuthCallback 用外部身份令牌登录，登记用户并建立会话
func (h *Handler) AuthCallback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationError(c, err)
		return
	}

	user, err := h.Auth.Login(c.Request.Context(), req.Token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	token, err := middleware.GenerateToken(user.ID, user.OpenID, email, user.Role, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		h.writeError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, model.SessionUser{
		ID:     user.ID,
		OpenID: user.OpenID,
		Email:  email,
		Role:   user.Role,
	})
	if err := session.Save(); err != nil {
		h.log.Warn("保存会话失败", zap.Error(err))
	}
	middleware.SetTokenCookie(c, token, h.Config.JWTExpiry)

	h.log.Info("用户登录", zap.Int("user_id", user.ID), zap.String("role", user.Role))
	utils.Success(c, gin.H{"user": user, "token": token})
}

// Me 当前用户，未登录时 data 为 null
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		utils.Success(c, nil)
		return
	}
	user := h.Repos.User.FindByID(c.Request.Context(), userID)
	if user == nil {
		utils.Success(c, nil)
		return
	}
	utils.Success(c, user)
}

// Logout 清除会话和 Token Cookie
func (h *Handler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		h.log.Warn("清除会话失败", zap.Error(err))
	}
	middleware.SetTokenCookie(c, "", 0)
	utils.Success(c, gin.H{"success": true})
}
