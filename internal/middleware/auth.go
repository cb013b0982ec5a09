package middleware

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/utils"
)

// SessionUserKey Session 中保存登录用户的键
const SessionUserKey = "userinfo"

// TokenCookie 存放应用 Token 的 Cookie
const TokenCookie = "token"

// Claims JWT 声明
type Claims struct {
	UserID int    `json:"user_id"`
	OpenID string `json:"open_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth 必须登录中间件，Session 和 Token 任一有效即可
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c, jwtSecret) {
			utils.Unauthorized(c, "")
			return
		}
		c.Next()
	}
}

// OptionalAuth 可选登录中间件（不强制要求登录）
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authenticate(c, jwtSecret)
		c.Next()
	}
}

// RequireAdmin 管理员权限中间件
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != model.RoleAdmin {
			utils.Forbidden(c, "需要管理员权限")
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, jwtSecret string) bool {
	if u, ok := sessionUser(c); ok {
		setUser(c, u.ID, u.Email, u.Role)
		return true
	}

	claims, err := extractClaims(c, jwtSecret)
	if err != nil {
		return false
	}
	setUser(c, claims.UserID, claims.Email, claims.Role)

	// 滑动续期：Token 有效期消耗过半时重新签发
	if shouldRefresh(claims) {
		expiry := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
		newToken, err := GenerateToken(claims.UserID, claims.OpenID, claims.Email, claims.Role, jwtSecret, expiry)
		if err == nil {
			SetTokenCookie(c, newToken, expiry)
		}
	}
	return true
}

func setUser(c *gin.Context, userID int, email, role string) {
	c.Set("user_id", userID)
	c.Set("email", email)
	c.Set("role", role)
}

// sessionUser 未挂载 Session 中间件时直接返回 false
func sessionUser(c *gin.Context) (model.SessionUser, bool) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return model.SessionUser{}, false
	}
	u, ok := sessions.Default(c).Get(SessionUserKey).(model.SessionUser)
	if !ok || u.ID == 0 {
		return model.SessionUser{}, false
	}
	return u, true
}

// extractClaims 从 Cookie 或 Header 中提取 JWT Claims
func extractClaims(c *gin.Context, jwtSecret string) (*Claims, error) {
	var tokenString string

	// 优先从 Cookie 获取
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		tokenString = cookie
	} else if authHeader := c.GetHeader("Authorization"); len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		tokenString = authHeader[7:]
	}

	if tokenString == "" {
		return nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GetUserID 从上下文获取用户 ID（未登录返回 0）
func GetUserID(c *gin.Context) int {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(int); ok {
			return id
		}
	}
	return 0
}

// GenerateToken 生成 JWT Token
func GenerateToken(userID int, openID, email, role, jwtSecret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		OpenID: openID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// SetTokenCookie 写入 Token Cookie，expiry <= 0 时删除
func SetTokenCookie(c *gin.Context, token string, expiry time.Duration) {
	maxAge := int(expiry.Seconds())
	if expiry <= 0 {
		maxAge = -1
	}
	c.SetCookie(TokenCookie, token, maxAge, "/", "", false, true)
}

// shouldRefresh 已经消耗了总有效期的 50% 以上时刷新
func shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}

	totalDuration := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	elapsedDuration := time.Since(claims.IssuedAt.Time)
	return elapsedDuration > totalDuration/2
}
