// Package session хранит данные входа: номер телефона и роль пользователя.
// Проверки подлинности здесь нет: номер считается удостоверенным вызывающим кодом.
package session

import (
	"strings"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

// Session читает и пишет скалярные ключи сессии в хранилище документов.
type Session struct {
	store *docstore.Store
}

// New создаёт сессию поверх store.
func New(store *docstore.Store) *Session {
	return &Session{store: store}
}

// SetMobileNumber запоминает номер вошедшего пользователя.
func (s *Session) SetMobileNumber(mobile string) error {
	mobile = strings.TrimSpace(mobile)
	if err := domain.ValidateMobileNumber(mobile); err != nil {
		return err
	}
	return s.store.Set(docstore.KeyMobileNumber, mobile)
}

// MobileNumber возвращает номер вошедшего пользователя.
func (s *Session) MobileNumber() (string, bool) {
	var mobile string
	if !s.store.Get(docstore.KeyMobileNumber, &mobile) || mobile == "" {
		return "", false
	}
	return mobile, true
}

// SetRole запоминает роль: farmer или consumer.
func (s *Session) SetRole(role domain.Role) error {
	if !role.IsValid() {
		return domain.ErrRoleInvalid
	}
	return s.store.Set(docstore.KeyUserRole, role)
}

// Role возвращает сохранённую роль.
func (s *Session) Role() (domain.Role, bool) {
	var role domain.Role
	if !s.store.Get(docstore.KeyUserRole, &role) || !role.IsValid() {
		return "", false
	}
	return role, true
}

// IsAuthenticated сообщает, что номер телефона сохранён.
func (s *Session) IsAuthenticated() bool {
	_, ok := s.MobileNumber()
	return ok
}

// Clear завершает сессию.
func (s *Session) Clear() error {
	if err := s.store.Remove(docstore.KeyMobileNumber); err != nil {
		return err
	}
	return s.store.Remove(docstore.KeyUserRole)
}
