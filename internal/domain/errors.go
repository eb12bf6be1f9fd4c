package domain

import "errors"

// Доменные ошибки жизненного цикла команд
var (
	// ErrUnauthorized возвращается при неудачной аутентификации
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken возвращается когда JWT токен невалиден
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden возвращается когда операция запрещена для этого пользователя
	ErrForbidden = errors.New("forbidden")

	// ErrTeamNotFound возвращается когда команда не найдена
	ErrTeamNotFound = errors.New("team not found")

	// ErrUserNotFound возвращается когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrApplicantNotFound возвращается когда заявитель не найден в команде
	ErrApplicantNotFound = errors.New("applicant not found")

	// ErrApplicationNotFound возвращается когда активная заявка не найдена
	ErrApplicationNotFound = errors.New("application not found")

	// ErrSelfApply возвращается при попытке подать заявку в свою же команду
	ErrSelfApply = errors.New("cannot apply to your own team")

	// ErrAlreadyMember возвращается когда пользователь уже состоит в команде
	ErrAlreadyMember = errors.New("already a member")

	// ErrAlreadyApplied возвращается при повторной подаче заявки
	ErrAlreadyApplied = errors.New("already applied")

	// ErrPreviouslyRejected возвращается когда заявка пользователя уже была отклонена
	ErrPreviouslyRejected = errors.New("application previously rejected")

	// ErrTeamFull возвращается когда команда набрала максимум участников
	ErrTeamFull = errors.New("team is full")

	// ErrVersionConflict возвращается при проигрыше гонки за обновление команды
	ErrVersionConflict = errors.New("team was modified concurrently")

	// ErrInvalidURL возвращается когда ссылка заявки отсутствует или не http/https
	ErrInvalidURL = errors.New("profile link must be a valid http(s) url")

	// ErrInvalidCapacity возвращается когда max_members вне допустимого диапазона
	ErrInvalidCapacity = errors.New("max_members out of range")

	// ErrEmailExists возвращается при регистрации на занятый email
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials возвращается при неверной паре email/пароль
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ErrorCode представляет машиночитаемые коды ошибок API
type ErrorCode string

// Коды ошибок API
const (
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeSelfApply          ErrorCode = "SELF_APPLY"
	CodeAlreadyMember      ErrorCode = "ALREADY_MEMBER"
	CodeAlreadyApplied     ErrorCode = "ALREADY_APPLIED"
	CodeRejected           ErrorCode = "PREVIOUSLY_REJECTED"
	CodeTeamFull           ErrorCode = "TEAM_FULL"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeValidation         ErrorCode = "VALIDATION"
	CodeEmailExists        ErrorCode = "EMAIL_EXISTS"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// MapErrorToCode преобразует доменные ошибки в коды ошибок API
func MapErrorToCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken):
		return CodeUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrTeamNotFound), errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrApplicantNotFound), errors.Is(err, ErrApplicationNotFound):
		return CodeNotFound
	case errors.Is(err, ErrSelfApply):
		return CodeSelfApply
	case errors.Is(err, ErrAlreadyMember):
		return CodeAlreadyMember
	case errors.Is(err, ErrAlreadyApplied):
		return CodeAlreadyApplied
	case errors.Is(err, ErrPreviouslyRejected):
		return CodeRejected
	case errors.Is(err, ErrTeamFull):
		return CodeTeamFull
	case errors.Is(err, ErrVersionConflict):
		return CodeConflict
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrInvalidCapacity):
		return CodeValidation
	case errors.Is(err, ErrEmailExists):
		return CodeEmailExists
	default:
		return CodeInternal
	}
}
