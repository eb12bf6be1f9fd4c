package domain

import (
	"strings"
	"time"
)

// User представляет зарегистрированного пользователя платформы
type User struct {
	ID           string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Domain       string    `json:"domain,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DomainClaim возвращает тег направления для JWT claims.
// Если направление не указано, используется хостовая часть email.
func (u *User) DomainClaim() string {
	if d := NormalizeDomain(u.Domain); d != "" {
		return d
	}
	if _, host, ok := strings.Cut(u.Email, "@"); ok {
		return NormalizeDomain(host)
	}
	return ""
}
