package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/soundvault/pkg/configs"
	"github.com/yeisme/soundvault/pkg/internal/model"
)

func testAuthService() *AuthService {
	return &AuthService{
		cfg: configs.AuthConfig{
			JWTSecret: "unit-test-secret",
			JWTExpiry: "1h",
		},
	}
}

// TestTokenRoundTrip 签发的令牌必须能被 ParseToken 还原出操作者身份.
func TestTokenRoundTrip(t *testing.T) {
	s := testAuthService()

	resp, err := s.issueToken(model.User{ID: "u1", Username: "alice", Role: model.RoleUser})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, int64(3600), resp.ExpiresIn)

	actor, err := s.ParseToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "u1", actor.ID)
	require.False(t, actor.Admin)
}

// TestTokenAdminRole 管理员角色转换为 Actor.Admin.
func TestTokenAdminRole(t *testing.T) {
	s := testAuthService()

	resp, err := s.issueToken(model.User{ID: "ops", Role: model.RoleAdmin})
	require.NoError(t, err)

	actor, err := s.ParseToken(resp.Token)
	require.NoError(t, err)
	require.True(t, actor.Admin)
}

// TestTokenWrongSecret 密钥不匹配的令牌一律拒绝.
func TestTokenWrongSecret(t *testing.T) {
	issuer := testAuthService()

	resp, err := issuer.issueToken(model.User{ID: "u1", Role: model.RoleUser})
	require.NoError(t, err)

	verifier := &AuthService{cfg: configs.AuthConfig{JWTSecret: "other-secret", JWTExpiry: "1h"}}

	_, err = verifier.ParseToken(resp.Token)
	require.Error(t, err)
}

// TestHashResetToken 重置令牌只落库哈希，且同输入同输出.
func TestHashResetToken(t *testing.T) {
	h1 := hashResetToken("tok")
	h2 := hashResetToken("tok")

	require.Equal(t, h1, h2)
	require.NotEqual(t, "tok", h1)
	require.Len(t, h1, 64)
}
