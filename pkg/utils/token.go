package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// InvitationTokenBytes is the entropy of an invitation token (32 URL-safe chars)
const InvitationTokenBytes = 24

// GenerateURLToken 生成 URL-safe 的随机 token，长度约为 4/3*n 字符
// n <= 0 时使用 InvitationTokenBytes
func GenerateURLToken(n int) (string, error) {
	if n <= 0 {
		n = InvitationTokenBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	// RawURLEncoding: no '=' padding, no '+' or '/'
	return base64.RawURLEncoding.EncodeToString(b), nil
}
