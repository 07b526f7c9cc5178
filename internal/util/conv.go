package util

import (
	"crypto/rand"
	"encoding/base64"
)

// NewInviteToken 32 字节随机数，base64url 无填充
func NewInviteToken() (string, error) {
	buf := make([]byte, InviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Percentage 返回 correct/total*100，total 为 0 时返回 0
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
