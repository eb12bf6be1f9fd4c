package domain

import (
	"net/url"
	"strings"
	"time"
)

// DefaultMaxMembers количество участников команды по умолчанию (создатель + 1)
const DefaultMaxMembers = 2

// MaxMembersCap жесткий верхний предел размера команды
const MaxMembersCap = 16

// Application представляет заявку пользователя на вступление в команду
type Application struct {
	UserID     string     `json:"user_id"`
	LinkedIn   string     `json:"linkedin"`
	GitHub     string     `json:"github"`
	Resume     string     `json:"resume"`
	AppliedAt  time.Time  `json:"applied_at"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`
}

// Team представляет команду с участниками и заявками
type Team struct {
	ID                 string        `json:"team_id"`
	CreatorID          string        `json:"creator_id"`
	Name               string        `json:"name"`
	Domain             string        `json:"domain"`
	Description        string        `json:"description"`
	MaxMembers         int           `json:"max_members"`
	Members            []string      `json:"members"`
	Applicants         []Application `json:"applicants"`
	RejectedApplicants []Application `json:"rejected_applicants"`
	IsOpen             bool          `json:"is_open"`
	Version            int64         `json:"-"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// ApplicationStatus представляет статус заявки пользователя в команде
type ApplicationStatus string

// Возможные статусы заявки (вычисляются из текущего состояния команды)
const (
	StatusAccepted ApplicationStatus = "Accepted"
	StatusRejected ApplicationStatus = "Rejected"
	StatusPending  ApplicationStatus = "Pending"
	StatusUnknown  ApplicationStatus = "Unknown"
)

// NormalizeDomain приводит тег направления к каноническому виду
func NormalizeDomain(d string) string {
	return strings.ToLower(strings.TrimSpace(d))
}

// SameID единственная каноническая функция сравнения идентификаторов.
// Все проверки переходов обязаны использовать её, а не сравнивать строки напрямую.
func SameID(a, b string) bool {
	return a != "" && a == b
}

// ValidateProfileURL проверяет что ссылка непустая и использует схему http/https
func ValidateProfileURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidURL
	}
	if u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// Validate проверяет ссылки заявки перед сохранением
func (a *Application) Validate() error {
	for _, link := range []string{a.LinkedIn, a.GitHub, a.Resume} {
		if err := ValidateProfileURL(link); err != nil {
			return err
		}
	}
	return nil
}

// IsCreator проверяет является ли пользователь создателем команды
func (t *Team) IsCreator(userID string) bool {
	return SameID(t.CreatorID, userID)
}

// IsMember проверяет состоит ли пользователь в команде
func (t *Team) IsMember(userID string) bool {
	for _, m := range t.Members {
		if SameID(m, userID) {
			return true
		}
	}
	return false
}

// IsApplicant проверяет есть ли у пользователя активная заявка
func (t *Team) IsApplicant(userID string) bool {
	return t.findApplicant(userID) >= 0
}

// IsRejected проверяет была ли заявка пользователя отклонена
func (t *Team) IsRejected(userID string) bool {
	for _, a := range t.RejectedApplicants {
		if SameID(a.UserID, userID) {
			return true
		}
	}
	return false
}

// IsFull проверяет достигла ли команда предела участников
func (t *Team) IsFull() bool {
	return len(t.Members) >= t.MaxMembers
}

func (t *Team) findApplicant(userID string) int {
	for i, a := range t.Applicants {
		if SameID(a.UserID, userID) {
			return i
		}
	}
	return -1
}

// syncOpen пересчитывает is_open после каждой мутации
func (t *Team) syncOpen() {
	t.IsOpen = len(t.Members) < t.MaxMembers
}

// Apply добавляет заявку пользователя: переход unrelated -> pending.
// Все предусловия проверяются до мутации, при ошибке команда не меняется.
func (t *Team) Apply(app Application) error {
	if t.IsCreator(app.UserID) {
		return ErrSelfApply
	}
	if t.IsMember(app.UserID) {
		return ErrAlreadyMember
	}
	if t.IsApplicant(app.UserID) {
		return ErrAlreadyApplied
	}
	if t.IsRejected(app.UserID) {
		return ErrPreviouslyRejected
	}
	if t.IsFull() {
		return ErrTeamFull
	}
	if err := app.Validate(); err != nil {
		return err
	}
	t.Applicants = append(t.Applicants, app)
	t.syncOpen()
	return nil
}

// Accept переводит заявителя в участники: переход pending -> member.
// Вместимость проверяется повторно на актуальном состоянии команды.
func (t *Team) Accept(applicantID string) error {
	i := t.findApplicant(applicantID)
	if i < 0 {
		return ErrApplicantNotFound
	}
	if t.IsFull() {
		return ErrTeamFull
	}
	t.Members = append(t.Members, t.Applicants[i].UserID)
	t.Applicants = append(t.Applicants[:i], t.Applicants[i+1:]...)
	t.syncOpen()
	return nil
}

// Reject переносит заявку в отклоненные: переход pending -> rejected.
// Исходные поля заявки сохраняются, добавляется rejected_at.
func (t *Team) Reject(applicantID string, now time.Time) error {
	i := t.findApplicant(applicantID)
	if i < 0 {
		return ErrApplicantNotFound
	}
	rejected := t.Applicants[i]
	rejected.RejectedAt = &now
	t.RejectedApplicants = append(t.RejectedApplicants, rejected)
	t.Applicants = append(t.Applicants[:i], t.Applicants[i+1:]...)
	t.syncOpen()
	return nil
}

// Withdraw удаляет активную заявку: переход pending -> unrelated.
// После отзыва пользователь может подать заявку заново.
func (t *Team) Withdraw(applicantID string) error {
	i := t.findApplicant(applicantID)
	if i < 0 {
		return ErrApplicationNotFound
	}
	t.Applicants = append(t.Applicants[:i], t.Applicants[i+1:]...)
	t.syncOpen()
	return nil
}

// StatusFor вычисляет статус заявки пользователя из текущих коллекций команды
func (t *Team) StatusFor(userID string) ApplicationStatus {
	switch {
	case t.IsMember(userID):
		return StatusAccepted
	case t.IsRejected(userID):
		return StatusRejected
	case t.IsApplicant(userID):
		return StatusPending
	default:
		return StatusUnknown
	}
}
