package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/team-formation/internal/domain"
)

// Статусы заявок в таблице team_applications
const (
	statusPending  = "PENDING"
	statusRejected = "REJECTED"
)

// TeamRepository реализует repository.TeamRepository для PostgreSQL.
// Команда пишется и читается как единый агрегат, запись защищена
// колонкой version (compare-and-swap).
type TeamRepository struct {
	db *pgxpool.Pool
}

// NewTeamRepository создает новый экземпляр TeamRepository
func NewTeamRepository(db *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create сохраняет новую команду
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	query := `
		INSERT INTO teams (team_id, creator_id, team_name, domain, description,
		                   max_members, is_open, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $8)
	`

	createdAt := time.Now()
	_, err := r.db.Exec(ctx, query,
		team.ID, team.CreatorID, team.Name, team.Domain, team.Description,
		team.MaxMembers, team.IsOpen, createdAt,
	)
	if err != nil {
		return err
	}

	team.Version = 1
	team.CreatedAt = createdAt
	team.UpdatedAt = createdAt
	return nil
}

// GetByID получает команду со всеми участниками и заявками
func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*domain.Team, error) {
	query := `
		SELECT team_id, creator_id, team_name, domain, description,
		       max_members, is_open, version, created_at, updated_at
		FROM teams
		WHERE team_id = $1
	`

	var team *domain.Team
	err := r.readSnapshot(ctx, func(tx pgx.Tx) error {
		t, err := scanTeam(tx.QueryRow(ctx, query, teamID))
		if err != nil {
			return err
		}
		if err := hydrate(ctx, tx, t); err != nil {
			return err
		}
		team = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return team, nil
}

// Update перезаписывает агрегат команды с проверкой версии.
// Если версия в БД не совпадает с прочитанной, транзакция откатывается
// и возвращается domain.ErrVersionConflict.
func (r *TeamRepository) Update(ctx context.Context, team *domain.Team) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	// CAS: запись проходит только если версию никто не успел увеличить
	guardQuery := `
		UPDATE teams
		SET is_open = $1, version = version + 1, updated_at = NOW()
		WHERE team_id = $2 AND version = $3
	`

	result, err := tx.Exec(ctx, guardQuery, team.IsOpen, team.ID, team.Version)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		exists, existsErr := r.exists(ctx, team.ID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return domain.ErrTeamNotFound
		}
		return domain.ErrVersionConflict
	}

	// Дочерние строки перезаписываются целиком вместе с позициями
	if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, team.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM team_applications WHERE team_id = $1`, team.ID); err != nil {
		return err
	}

	memberQuery := `
		INSERT INTO team_members (team_id, user_id, position)
		VALUES ($1, $2, $3)
	`
	for i, memberID := range team.Members {
		if _, err := tx.Exec(ctx, memberQuery, team.ID, memberID, i); err != nil {
			return err
		}
	}

	applicationQuery := `
		INSERT INTO team_applications (team_id, user_id, position, linkedin, github,
		                               resume, status, applied_at, rejected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i, app := range team.Applicants {
		if _, err := tx.Exec(ctx, applicationQuery,
			team.ID, app.UserID, i, app.LinkedIn, app.GitHub, app.Resume,
			statusPending, app.AppliedAt, nil,
		); err != nil {
			return err
		}
	}
	for i, app := range team.RejectedApplicants {
		if _, err := tx.Exec(ctx, applicationQuery,
			team.ID, app.UserID, i, app.LinkedIn, app.GitHub, app.Resume,
			statusRejected, app.AppliedAt, app.RejectedAt,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	team.Version++
	return nil
}

// ListByCreator возвращает команды созданные пользователем, новые первыми
func (r *TeamRepository) ListByCreator(ctx context.Context, creatorID string) ([]*domain.Team, error) {
	query := `
		SELECT team_id, creator_id, team_name, domain, description,
		       max_members, is_open, version, created_at, updated_at
		FROM teams
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`

	return r.queryTeams(ctx, query, creatorID)
}

// ListAvailable возвращает открытые команды по направлению, новые первыми.
// Команды где excludeUserID создатель, участник или заявитель исключаются.
func (r *TeamRepository) ListAvailable(ctx context.Context, domainTag, excludeUserID string) ([]*domain.Team, error) {
	query := `
		SELECT t.team_id, t.creator_id, t.team_name, t.domain, t.description,
		       t.max_members, t.is_open, t.version, t.created_at, t.updated_at
		FROM teams t
		WHERE t.is_open
		  AND ($1 = '' OR t.domain = $1)
		  AND ($2 = '' OR (
		      t.creator_id != $2
		      AND NOT EXISTS (
		          SELECT 1 FROM team_members m
		          WHERE m.team_id = t.team_id AND m.user_id = $2
		      )
		      AND NOT EXISTS (
		          SELECT 1 FROM team_applications a
		          WHERE a.team_id = t.team_id AND a.user_id = $2
		      )
		  ))
		ORDER BY t.created_at DESC
	`

	return r.queryTeams(ctx, query, domainTag, excludeUserID)
}

// ListByParticipant возвращает команды где пользователь является участником,
// заявителем или отклоненным заявителем, новые первыми
func (r *TeamRepository) ListByParticipant(ctx context.Context, userID string) ([]*domain.Team, error) {
	query := `
		SELECT t.team_id, t.creator_id, t.team_name, t.domain, t.description,
		       t.max_members, t.is_open, t.version, t.created_at, t.updated_at
		FROM teams t
		WHERE EXISTS (
		          SELECT 1 FROM team_members m
		          WHERE m.team_id = t.team_id AND m.user_id = $1
		      )
		   OR EXISTS (
		          SELECT 1 FROM team_applications a
		          WHERE a.team_id = t.team_id AND a.user_id = $1
		      )
		ORDER BY t.created_at DESC
	`

	return r.queryTeams(ctx, query, userID)
}

func (r *TeamRepository) exists(ctx context.Context, teamID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM teams WHERE team_id = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, teamID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return exists, nil
}

// readSnapshot выполняет fn внутри read-only транзакции REPEATABLE READ.
// Строка команды и её дочерние строки читаются из одного снимка БД:
// параллельный commit между чтениями не может порвать агрегат.
func (r *TeamRepository) readSnapshot(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore error as it will fail if transaction was committed
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *TeamRepository) queryTeams(ctx context.Context, query string, args ...any) ([]*domain.Team, error) {
	var teams []*domain.Team
	err := r.readSnapshot(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			team, err := scanTeam(rows)
			if err != nil {
				return err
			}
			teams = append(teams, team)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, team := range teams {
			if err := hydrate(ctx, tx, team); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Return empty array instead of nil if no teams found
	if teams == nil {
		teams = []*domain.Team{}
	}

	return teams, nil
}

// hydrate загружает участников и заявки команды в рамках переданной транзакции
func hydrate(ctx context.Context, tx pgx.Tx, team *domain.Team) error {
	membersQuery := `
		SELECT user_id
		FROM team_members
		WHERE team_id = $1
		ORDER BY position
	`

	rows, err := tx.Query(ctx, membersQuery, team.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return err
		}
		members = append(members, memberID)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	team.Members = members

	// Транзакция держит одно соединение: предыдущий результат должен
	// быть закрыт до следующего запроса
	rows.Close()

	applicationsQuery := `
		SELECT user_id, linkedin, github, resume, status, applied_at, rejected_at
		FROM team_applications
		WHERE team_id = $1
		ORDER BY position
	`

	appRows, err := tx.Query(ctx, applicationsQuery, team.ID)
	if err != nil {
		return err
	}
	defer appRows.Close()

	var pending, rejected []domain.Application
	for appRows.Next() {
		var app domain.Application
		var status string
		if err := appRows.Scan(
			&app.UserID, &app.LinkedIn, &app.GitHub, &app.Resume,
			&status, &app.AppliedAt, &app.RejectedAt,
		); err != nil {
			return err
		}
		if status == statusRejected {
			rejected = append(rejected, app)
		} else {
			pending = append(pending, app)
		}
	}
	if err := appRows.Err(); err != nil {
		return err
	}

	team.Applicants = pending
	team.RejectedApplicants = rejected
	return nil
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	err := row.Scan(
		&team.ID,
		&team.CreatorID,
		&team.Name,
		&team.Domain,
		&team.Description,
		&team.MaxMembers,
		&team.IsOpen,
		&team.Version,
		&team.CreatedAt,
		&team.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}

	return &team, nil
}
