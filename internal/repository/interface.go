package repository

import (
	"context"

	"github.com/aidar/team-formation/internal/domain"
)

// UserRepository определяет методы для работы с данными пользователей
type UserRepository interface {
	// Create создает нового пользователя
	Create(ctx context.Context, user *domain.User) error

	// GetByID получает пользователя по ID
	GetByID(ctx context.Context, userID string) (*domain.User, error)

	// GetByEmail получает пользователя по email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TeamRepository определяет методы для работы с данными команд.
// Команда сохраняется и читается целиком как единый агрегат.
type TeamRepository interface {
	// Create сохраняет новую команду
	Create(ctx context.Context, team *domain.Team) error

	// GetByID получает команду со всеми участниками и заявками
	GetByID(ctx context.Context, teamID string) (*domain.Team, error)

	// Update перезаписывает агрегат команды с проверкой версии.
	// Возвращает domain.ErrVersionConflict если версия в БД изменилась
	// после чтения (optimistic concurrency).
	Update(ctx context.Context, team *domain.Team) error

	// ListByCreator возвращает команды созданные пользователем, новые первыми
	ListByCreator(ctx context.Context, creatorID string) ([]*domain.Team, error)

	// ListAvailable возвращает открытые команды по направлению, новые первыми.
	// Команды где excludeUserID создатель, участник или заявитель
	// (активный или отклоненный) исключаются. Пустые параметры снимают фильтр.
	ListAvailable(ctx context.Context, domainTag, excludeUserID string) ([]*domain.Team, error)

	// ListByParticipant возвращает команды где пользователь является
	// участником, заявителем или отклоненным заявителем, новые первыми
	ListByParticipant(ctx context.Context, userID string) ([]*domain.Team, error)
}
