package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/iptvhub/internal/model"
	"github.com/user/iptvhub/internal/repository"
)

var (
	ErrInvalidIdentityToken  = errors.New("身份令牌无效")
	ErrIdentityNotConfigured = errors.New("未配置身份令牌密钥")
)

// AuthService 校验外部身份令牌并登记用户
type AuthService struct {
	users  *repository.UserRepository
	secret []byte
}

// NewAuthService 创建认证服务
func NewAuthService(users *repository.UserRepository, identitySecret string) *AuthService {
	return &AuthService{users: users, secret: []byte(identitySecret)}
}

// ParseIdentityToken 解析 HS256 身份令牌
// sub 为 openId；name/email/login_method 缺省表示不修改，null 表示清空
func (s *AuthService) ParseIdentityToken(token string) (model.UserUpsert, error) {
	if len(s.secret) == 0 {
		return model.UserUpsert{}, ErrIdentityNotConfigured
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return model.UserUpsert{}, fmt.Errorf("%w: %v", ErrInvalidIdentityToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return model.UserUpsert{}, fmt.Errorf("%w: 缺少 sub", ErrInvalidIdentityToken)
	}

	in := model.UserUpsert{OpenID: sub}
	if in.Name, err = optionalText(claims, "name"); err != nil {
		return model.UserUpsert{}, err
	}
	if in.Email, err = optionalText(claims, "email"); err != nil {
		return model.UserUpsert{}, err
	}
	if in.LoginMethod, err = optionalText(claims, "login_method"); err != nil {
		return model.UserUpsert{}, err
	}
	return in, nil
}

// Login 校验令牌，登记用户并刷新登录时间
func (s *AuthService) Login(ctx context.Context, token string) (*model.User, error) {
	in, err := s.ParseIdentityToken(token)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	in.LastSignedIn = &now

	if err := s.users.Upsert(ctx, in); err != nil {
		return nil, fmt.Errorf("登记用户失败: %w", err)
	}
	user := s.users.FindByOpenID(ctx, in.OpenID)
	if user == nil {
		return nil, fmt.Errorf("登记后未找到用户: %w", repository.ErrStoreUnavailable)
	}
	return user, nil
}

func optionalText(claims jwt.MapClaims, key string) (*sql.Null[string], error) {
	v, ok := claims[key]
	if !ok {
		return nil, nil
	}
	switch t := v.(type) {
	case nil:
		return &sql.Null[string]{}, nil
	case string:
		return &sql.Null[string]{V: t, Valid: true}, nil
	default:
		return nil, fmt.Errorf("%w: %s 类型错误", ErrInvalidIdentityToken, key)
	}
}
