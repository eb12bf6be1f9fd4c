package integration

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тестовые структуры данных соответствующие API
type Application struct {
	UserID     string  `json:"user_id"`
	LinkedIn   string  `json:"linkedin"`
	GitHub     string  `json:"github"`
	Resume     string  `json:"resume"`
	RejectedAt *string `json:"rejected_at,omitempty"`
}

type Team struct {
	ID                 string        `json:"team_id"`
	CreatorID          string        `json:"creator_id"`
	Name               string        `json:"name"`
	Domain             string        `json:"domain"`
	MaxMembers         int           `json:"max_members"`
	Members            []string      `json:"members"`
	Applicants         []Application `json:"applicants"`
	RejectedApplicants []Application `json:"rejected_applicants"`
	IsOpen             bool          `json:"is_open"`
}

type TeamResponse struct {
	Team Team `json:"team"`
}

type TeamsResponse struct {
	Teams []Team `json:"teams"`
}

type AppliedTeamsResponse struct {
	Teams []struct {
		Team   Team   `json:"team"`
		Status string `json:"status"`
	} `json:"teams"`
}

// TestE2E_TeamLifecycle тестирует полный жизненный цикл команды:
// создание, просмотр, заявки, принятие и закрытие по заполнению
func TestE2E_TeamLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Настраиваем тестовое окружение
	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	creatorToken, creatorID := env.RegisterUser(t, "Creator", "creator@example.com", "backend")
	aliceToken, aliceID := env.RegisterUser(t, "Alice", "alice@example.com", "backend")
	bobToken, bobID := env.RegisterUser(t, "Bob", "bob@example.com", "backend")
	carolToken, _ := env.RegisterUser(t, "Carol", "carol@example.com", "backend")

	var teamID string
	t.Run("Create Team", func(t *testing.T) {
		teamID = env.CreateTeam(t, creatorToken, "api-team", "Backend", 2)

		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/"+teamID, nil, creatorToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamResponse
		DecodeResponse(t, resp, &body)
		assert.Equal(t, creatorID, body.Team.CreatorID)
		assert.Equal(t, "backend", body.Team.Domain, "domain must be normalized")
		assert.Equal(t, 2, body.Team.MaxMembers)
		assert.True(t, body.Team.IsOpen)
	})

	t.Run("Available For Others But Not Creator", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/available?domain=backend", nil, aliceToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body TeamsResponse
		DecodeResponse(t, resp, &body)
		require.Len(t, body.Teams, 1)
		assert.Equal(t, teamID, body.Teams[0].ID)

		// Создатель свою команду в выдаче не видит
		resp = env.MakeJSONRequest(t, http.MethodGet, "/teams/available?domain=backend", nil, creatorToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		DecodeResponse(t, resp, &body)
		assert.Empty(t, body.Teams)
	})

	t.Run("Creator Cannot Apply To Own Team", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("creator"), creatorToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "SELF_APPLY", ErrorCode(t, resp))
	})

	t.Run("Apply Requires Valid Links", func(t *testing.T) {
		links := ValidLinks("alice")
		links["resume"] = "ftp://example.com/cv.pdf"

		resp := env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", links, aliceToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION", ErrorCode(t, resp))
	})

	t.Run("Apply Succeeds Once", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("alice"), aliceToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamResponse
		DecodeResponse(t, resp, &body)
		require.Len(t, body.Team.Applicants, 1)
		assert.Equal(t, aliceID, body.Team.Applicants[0].UserID)

		// Повторная заявка отклоняется и не создает дубликат
		resp = env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("alice"), aliceToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "ALREADY_APPLIED", ErrorCode(t, resp))

		resp = env.MakeJSONRequest(t, http.MethodGet, "/teams/"+teamID, nil, aliceToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		DecodeResponse(t, resp, &body)
		assert.Len(t, body.Team.Applicants, 1)
	})

	t.Run("Applicant No Longer Sees Team As Available", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/available?domain=backend", nil, aliceToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body TeamsResponse
		DecodeResponse(t, resp, &body)
		assert.Empty(t, body.Teams)
	})

	t.Run("Only Creator Can Accept", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodPost,
			fmt.Sprintf("/teams/%s/applicants/%s/accept", teamID, aliceID), nil, bobToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", ErrorCode(t, resp))
	})

	t.Run("Accept Moves Applicant To Members", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodPost,
			fmt.Sprintf("/teams/%s/applicants/%s/accept", teamID, aliceID), nil, creatorToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamResponse
		DecodeResponse(t, resp, &body)
		assert.Equal(t, []string{aliceID}, body.Team.Members)
		assert.Empty(t, body.Team.Applicants)
		assert.True(t, body.Team.IsOpen, "one slot remains")
	})

	t.Run("Team Closes When Full", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("bob"), bobToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = env.MakeJSONRequest(t, http.MethodPost,
			fmt.Sprintf("/teams/%s/applicants/%s/accept", teamID, bobID), nil, creatorToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamResponse
		DecodeResponse(t, resp, &body)
		assert.Len(t, body.Team.Members, 2)
		assert.False(t, body.Team.IsOpen)

		// Заявка в заполненную команду отклоняется
		resp = env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("carol"), carolToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "TEAM_FULL", ErrorCode(t, resp))

		// Закрытая команда исчезает из выдачи
		resp = env.MakeJSONRequest(t, http.MethodGet, "/teams/available?domain=backend", nil, carolToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var teams TeamsResponse
		DecodeResponse(t, resp, &teams)
		assert.Empty(t, teams.Teams)
	})

	t.Run("Applied Teams Show Status", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/applied", nil, aliceToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body AppliedTeamsResponse
		DecodeResponse(t, resp, &body)
		require.Len(t, body.Teams, 1)
		assert.Equal(t, teamID, body.Teams[0].Team.ID)
		assert.Equal(t, "Accepted", body.Teams[0].Status)
	})

	t.Run("Created Teams List", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/created", nil, creatorToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamsResponse
		DecodeResponse(t, resp, &body)
		require.Len(t, body.Teams, 1)
		assert.Equal(t, teamID, body.Teams[0].ID)
	})
}

// TestE2E_RejectAndWithdraw тестирует отклонение и отзыв заявок
func TestE2E_RejectAndWithdraw(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	creatorToken, _ := env.RegisterUser(t, "Creator", "creator@example.com", "ml")
	aliceToken, aliceID := env.RegisterUser(t, "Alice", "alice@example.com", "ml")
	bobToken, bobID := env.RegisterUser(t, "Bob", "bob@example.com", "ml")

	teamID := env.CreateTeam(t, creatorToken, "ml-team", "ml", 2)

	resp := env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("alice"), aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("bob"), bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("Reject Moves Applicant To Rejected", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodPost,
			fmt.Sprintf("/teams/%s/applicants/%s/reject", teamID, aliceID), nil, creatorToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamResponse
		DecodeResponse(t, resp, &body)
		require.Len(t, body.Team.RejectedApplicants, 1)
		assert.Equal(t, aliceID, body.Team.RejectedApplicants[0].UserID)
		assert.NotNil(t, body.Team.RejectedApplicants[0].RejectedAt)
		assert.Len(t, body.Team.Applicants, 1, "bob stays pending")
	})

	t.Run("Rejected Applicant Cannot Reapply", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("alice"), aliceToken)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "PREVIOUSLY_REJECTED", ErrorCode(t, resp))
	})

	t.Run("Only Applicant Can Withdraw", func(t *testing.T) {
		// Создатель не может отозвать чужую заявку
		resp := env.MakeJSONRequest(t, http.MethodPost,
			fmt.Sprintf("/teams/%s/applicants/%s/withdraw", teamID, bobID), nil, creatorToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", ErrorCode(t, resp))
	})

	t.Run("Withdraw Then Reapply", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodPost,
			fmt.Sprintf("/teams/%s/applicants/%s/withdraw", teamID, bobID), nil, bobToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamResponse
		DecodeResponse(t, resp, &body)
		assert.Empty(t, body.Team.Applicants)

		// После отзыва bob снова unrelated и может подать заявку
		resp = env.MakeJSONRequest(t, http.MethodGet, "/teams/"+teamID, nil, bobToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		DecodeResponse(t, resp, &body)
		assert.NotContains(t, body.Team.Members, bobID)

		resp = env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("bob"), bobToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

// TestE2E_ConcurrentAccept тестирует гонку двух Accept за последнее место
func TestE2E_ConcurrentAccept(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	creatorToken, _ := env.RegisterUser(t, "Creator", "creator@example.com", "backend")
	aliceToken, aliceID := env.RegisterUser(t, "Alice", "alice@example.com", "backend")
	bobToken, bobID := env.RegisterUser(t, "Bob", "bob@example.com", "backend")

	// Команда с единственным местом и двумя заявителями
	teamID := env.CreateTeam(t, creatorToken, "race-team", "backend", 1)

	resp := env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("alice"), aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("bob"), bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Два одновременных Accept: ровно один должен пройти
	statuses := make(chan int, 2)
	var wg sync.WaitGroup
	for _, applicantID := range []string{aliceID, bobID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			resp := env.MakeJSONRequest(t, http.MethodPost,
				fmt.Sprintf("/teams/%s/applicants/%s/accept", teamID, id), nil, creatorToken)
			resp.Body.Close()
			statuses <- resp.StatusCode
		}(applicantID)
	}
	wg.Wait()
	close(statuses)

	var ok, conflict int
	for status := range statuses {
		switch status {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		default:
			t.Fatalf("unexpected status: %d", status)
		}
	}
	assert.Equal(t, 1, ok, "exactly one accept must succeed")
	assert.Equal(t, 1, conflict, "the other must lose with a conflict")

	resp = env.MakeJSONRequest(t, http.MethodGet, "/teams/"+teamID, nil, creatorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body TeamResponse
	DecodeResponse(t, resp, &body)
	assert.Len(t, body.Team.Members, 1, "capacity must never be exceeded")
	assert.False(t, body.Team.IsOpen)
}

// TestE2E_ReadConsistencyDuringAccepts тестирует что читатель никогда не видит
// порванный агрегат: is_open и список участников приходят из одного снимка БД
func TestE2E_ReadConsistencyDuringAccepts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	creatorToken, _ := env.RegisterUser(t, "Creator", "creator@example.com", "backend")
	aliceToken, aliceID := env.RegisterUser(t, "Alice", "alice@example.com", "backend")
	bobToken, bobID := env.RegisterUser(t, "Bob", "bob@example.com", "backend")

	teamID := env.CreateTeam(t, creatorToken, "snapshot-team", "backend", 2)

	resp := env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("alice"), aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = env.MakeJSONRequest(t, http.MethodPost, "/teams/"+teamID+"/apply", ValidLinks("bob"), bobToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Читатель опрашивает команду пока идут принятия заявок
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}

			resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/"+teamID, nil, creatorToken)
			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				continue
			}
			var body TeamResponse
			DecodeResponse(t, resp, &body)

			if len(body.Team.Members) > body.Team.MaxMembers {
				t.Errorf("observed %d members with max %d", len(body.Team.Members), body.Team.MaxMembers)
			}
			if got, want := body.Team.IsOpen, len(body.Team.Members) < body.Team.MaxMembers; got != want {
				t.Errorf("observed is_open=%v with %d/%d members", got, len(body.Team.Members), body.Team.MaxMembers)
			}
		}
	}()

	for _, applicantID := range []string{aliceID, bobID} {
		resp := env.MakeJSONRequest(t, http.MethodPost,
			fmt.Sprintf("/teams/%s/applicants/%s/accept", teamID, applicantID), nil, creatorToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}

	close(done)
	wg.Wait()

	resp = env.MakeJSONRequest(t, http.MethodGet, "/teams/"+teamID, nil, creatorToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body TeamResponse
	DecodeResponse(t, resp, &body)
	assert.Len(t, body.Team.Members, 2)
	assert.False(t, body.Team.IsOpen)
}

// TestE2E_AvailableFiltering тестирует фильтрацию выдачи по направлению
func TestE2E_AvailableFiltering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	creatorToken, _ := env.RegisterUser(t, "Creator", "creator@example.com", "")
	backendID := env.CreateTeam(t, creatorToken, "api-team", "backend", 0)
	mlID := env.CreateTeam(t, creatorToken, "ml-team", "ml", 0)

	// Пользователь с направлением ml из токена
	mlToken, _ := env.RegisterUser(t, "Dana", "dana@example.com", "ml")

	t.Run("Anonymous With Explicit Filter", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/available?domain=backend", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamsResponse
		DecodeResponse(t, resp, &body)
		require.Len(t, body.Teams, 1)
		assert.Equal(t, backendID, body.Teams[0].ID)
	})

	t.Run("Anonymous Without Filter Sees All Open Teams", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/available", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamsResponse
		DecodeResponse(t, resp, &body)
		assert.Len(t, body.Teams, 2)
	})

	t.Run("Token Domain Claim Is Fallback", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/available", nil, mlToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamsResponse
		DecodeResponse(t, resp, &body)
		require.Len(t, body.Teams, 1)
		assert.Equal(t, mlID, body.Teams[0].ID)
	})

	t.Run("Explicit Filter Overrides Claim", func(t *testing.T) {
		resp := env.MakeJSONRequest(t, http.MethodGet, "/teams/available?domain=backend", nil, mlToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body TeamsResponse
		DecodeResponse(t, resp, &body)
		require.Len(t, body.Teams, 1)
		assert.Equal(t, backendID, body.Teams[0].ID)
	})
}

// TestE2E_AuthRequired тестирует что защищенные эндпоинты требуют токен
func TestE2E_AuthRequired(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	resp := env.MakeJSONRequest(t, http.MethodPost, "/teams", map[string]string{"name": "x", "domain": "y"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.MakeJSONRequest(t, http.MethodGet, "/teams/applied", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Дубликат email при регистрации
	_, _ = env.RegisterUser(t, "Alice", "alice@example.com", "")
	resp = env.MakeJSONRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"name": "Clone", "email": "alice@example.com", "password": "test-password-123",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", ErrorCode(t, resp))

	// Неверный пароль
	resp = env.MakeJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", ErrorCode(t, resp))
}
