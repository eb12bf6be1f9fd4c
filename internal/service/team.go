package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aidar/team-formation/internal/domain"
	"github.com/aidar/team-formation/internal/notifier"
	"github.com/aidar/team-formation/internal/repository"
)

// saveAttempts limits the read-validate-write cycle: the initial try
// plus one retry after losing a version race
const saveAttempts = 2

const notifyTimeout = 10 * time.Second

// TeamService handles the team membership lifecycle
type TeamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	notifier notifier.Notifier
	logger   *slog.Logger
}

// NewTeamService creates a new TeamService
func NewTeamService(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	n notifier.Notifier,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		notifier: n,
		logger:   logger,
	}
}

// CreateTeamInput carries caller-supplied team attributes.
// A nil MaxMembers means the caller omitted the field; an explicit
// zero is invalid rather than a request for the default.
type CreateTeamInput struct {
	Name        string
	Domain      string
	Description string
	MaxMembers  *int
}

// ApplyInput carries the profile links required for an application
type ApplyInput struct {
	LinkedIn string
	GitHub   string
	Resume   string
}

// Create creates a new open team owned by creatorID
func (s *TeamService) Create(ctx context.Context, creatorID string, in CreateTeamInput) (*domain.Team, error) {
	maxMembers := domain.DefaultMaxMembers
	if in.MaxMembers != nil {
		maxMembers = *in.MaxMembers
	}
	if maxMembers < 1 || maxMembers > domain.MaxMembersCap {
		return nil, domain.ErrInvalidCapacity
	}

	now := time.Now()
	team := &domain.Team{
		ID:          uuid.NewString(),
		CreatorID:   creatorID,
		Name:        in.Name,
		Domain:      domain.NormalizeDomain(in.Domain),
		Description: in.Description,
		MaxMembers:  maxMembers,
		IsOpen:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	return team, nil
}

// Get retrieves a team with members and applications
func (s *TeamService) Get(ctx context.Context, teamID string) (*domain.Team, error) {
	return s.teamRepo.GetByID(ctx, teamID)
}

// ListCreated returns teams created by the caller, newest first
func (s *TeamService) ListCreated(ctx context.Context, userID string) ([]*domain.Team, error) {
	return s.teamRepo.ListByCreator(ctx, userID)
}

// ListAvailable returns open teams the caller may apply to.
// An explicit domain filter wins; the identity claim is the fallback.
// Teams the caller created, joined or applied to are excluded.
func (s *TeamService) ListAvailable(ctx context.Context, explicitDomain, claimDomain, userID string) ([]*domain.Team, error) {
	domainTag := domain.NormalizeDomain(explicitDomain)
	if domainTag == "" {
		domainTag = domain.NormalizeDomain(claimDomain)
	}

	return s.teamRepo.ListAvailable(ctx, domainTag, userID)
}

// ListApplied returns teams where the caller is a member, a pending
// applicant or a rejected applicant, newest first
func (s *TeamService) ListApplied(ctx context.Context, userID string) ([]*domain.Team, error) {
	return s.teamRepo.ListByParticipant(ctx, userID)
}

// Apply submits an application to a team on behalf of userID
func (s *TeamService) Apply(ctx context.Context, teamID, userID string, in ApplyInput) (*domain.Team, error) {
	team, err := s.saveWithRetry(ctx, teamID, func(t *domain.Team) error {
		return t.Apply(domain.Application{
			UserID:    userID,
			LinkedIn:  in.LinkedIn,
			GitHub:    in.GitHub,
			Resume:    in.Resume,
			AppliedAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifyUser(team.CreatorID,
		fmt.Sprintf("New application for %q", team.Name),
		fmt.Sprintf("A new candidate applied to your team %q. Review the application to accept or reject it.", team.Name),
	)

	return team, nil
}

// Accept moves a pending applicant into the member list. Creator only.
// Capacity is re-checked on the freshly loaded team inside the CAS cycle,
// so two concurrent accepts for the last slot cannot both succeed.
func (s *TeamService) Accept(ctx context.Context, teamID, callerID, applicantID string) (*domain.Team, error) {
	team, err := s.saveWithRetry(ctx, teamID, func(t *domain.Team) error {
		if !t.IsCreator(callerID) {
			return domain.ErrForbidden
		}
		return t.Accept(applicantID)
	})
	if err != nil {
		return nil, err
	}

	s.notifyUser(applicantID,
		fmt.Sprintf("Accepted to %q", team.Name),
		fmt.Sprintf("Congratulations, you have been accepted to join the team %q. Welcome aboard!", team.Name),
	)

	return team, nil
}

// Reject moves a pending applicant into the rejected list. Creator only.
func (s *TeamService) Reject(ctx context.Context, teamID, callerID, applicantID string) (*domain.Team, error) {
	team, err := s.saveWithRetry(ctx, teamID, func(t *domain.Team) error {
		if !t.IsCreator(callerID) {
			return domain.ErrForbidden
		}
		return t.Reject(applicantID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	s.notifyUser(applicantID,
		fmt.Sprintf("Update on your application to %q", team.Name),
		fmt.Sprintf("Thank you for applying to %q. After careful consideration, we have decided to move forward with other candidates.", team.Name),
	)

	return team, nil
}

// Withdraw removes the caller's own pending application. No notification.
func (s *TeamService) Withdraw(ctx context.Context, teamID, callerID, applicantID string) (*domain.Team, error) {
	if !domain.SameID(callerID, applicantID) {
		return nil, domain.ErrForbidden
	}

	return s.saveWithRetry(ctx, teamID, func(t *domain.Team) error {
		return t.Withdraw(applicantID)
	})
}

// saveWithRetry runs the read-validate-write cycle with a version guard.
// On a version conflict the cycle is retried once against the fresh state,
// so stale reads cannot violate the capacity invariant. A second conflict
// is surfaced to the caller as a conflict error.
func (s *TeamService) saveWithRetry(ctx context.Context, teamID string, mutate func(*domain.Team) error) (*domain.Team, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		team, err := s.teamRepo.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}

		if err := mutate(team); err != nil {
			return nil, err
		}

		err = s.teamRepo.Update(ctx, team)
		if err == nil {
			return team, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
	}

	return nil, domain.ErrVersionConflict
}

// notifyUser dispatches a notification in the background.
// The primary transition has already committed: failures are logged
// and never surfaced to the caller.
func (s *TeamService) notifyUser(userID, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			s.logger.Error("Failed to resolve notification recipient", "user_id", userID, "error", err)
			return
		}

		msg := notifier.Message{
			To:      user.Email,
			Subject: subject,
			Body:    body,
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Error("Failed to send notification", "user_id", userID, "error", err)
		}
	}()
}
