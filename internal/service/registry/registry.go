// Package registry хранит профили продавцов в документе omiddle_users_db.
package registry

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/docstore"
	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

// Registry — реестр профилей, уникальных по ID и по номеру телефона.
// Поля старой модели (products, totalProductsSold, totalSalesAmount) в
// сохранённых документах игнорируются при чтении и не записываются обратно.
type Registry struct {
	mu     sync.Mutex
	store  *docstore.Store
	logger *log.Entry
}

// New создаёт реестр поверх store.
func New(store *docstore.Store, logger *log.Entry) *Registry {
	if logger == nil {
		logger = log.WithField("component", "registry")
	}
	return &Registry{store: store, logger: logger}
}

func (r *Registry) load() []domain.User {
	var users []domain.User
	if !r.store.Get(docstore.KeyUsers, &users) {
		return []domain.User{}
	}
	return users
}

// List возвращает все профили.
func (r *Registry) List() []domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

// FindByMobile ищет профиль по номеру телефона.
func (r *Registry) FindByMobile(mobile string) (domain.User, error) {
	mobile = strings.TrimSpace(mobile)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.load() {
		if u.MobileNumber == mobile {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// FindByID ищет профиль по идентификатору.
func (r *Registry) FindByID(id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.load() {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// Save добавляет или обновляет профиль по ID. Номер телефона, занятый
// другим профилем, отклоняется с ErrMobileNumberTaken.
func (r *Registry) Save(user domain.User) (domain.User, error) {
	user.ID = strings.TrimSpace(user.ID)
	user.MobileNumber = strings.TrimSpace(user.MobileNumber)
	if err := user.Validate(); err != nil {
		return domain.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var users []domain.User
	if _, err := r.store.Load(docstore.KeyUsers, &users); err != nil {
		return domain.User{}, err
	}
	idx := -1
	for i, u := range users {
		if u.MobileNumber == user.MobileNumber && u.ID != user.ID {
			return domain.User{}, domain.ErrMobileNumberTaken
		}
		if u.ID == user.ID {
			idx = i
		}
	}

	if idx >= 0 {
		users[idx] = user
	} else {
		users = append(users, user)
	}

	if err := r.store.Set(docstore.KeyUsers, users); err != nil {
		return domain.User{}, err
	}

	r.logger.WithFields(log.Fields{"user_id": user.ID, "seller": user.MobileNumber}).Debug("profile saved")
	return user, nil
}
