package repository

import (
	"context"

	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/rbac"
)

// Every method takes ctx first: the HTTP request's context flows down to
// the driver so a disconnected client cancels its query.
//
// Lookups return nil, nil when the row does not exist (or is soft-deleted,
// where noted). Mutations that target one row return whether a row matched.
// actor is the user id written into the update_id audit column.

// Store groups the repositories over one connection or one transaction.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	JoinRequests() JoinRequestRepository
	TeamMembers() TeamMemberRepository
	Alerts() AlertRepository
	Channel() ChannelRepository
	Asks() AskRepository

	// InTx runs fn with a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// UserRepository handles accounts and their roles.
type UserRepository interface {
	// Create inserts a user. A taken id, soft-deleted or not, fails with an
	// *apperr.Error of kind Conflict.
	Create(ctx context.Context, u models.User) (*models.User, error)

	// GetByID returns the user including soft-deleted rows, so callers can
	// tell "deleted" apart from "never existed".
	GetByID(ctx context.Context, userID string) (*models.User, error)

	UpdateRole(ctx context.Context, userID string, role rbac.Role, actor string) (bool, error)

	// SetDeleted soft-deletes (true) or recovers (false) a user.
	SetDeleted(ctx context.Context, userID string, deleted bool, actor string) (bool, error)
}

// ProjectFilter narrows List. Empty fields do not filter.
type ProjectFilter struct {
	ClientID string
	PMID     string
	// MemberID keeps projects where the user is on the active roster.
	MemberID string
}

// ProjectRepository handles project rows. Soft-deleted projects are
// invisible to every method.
type ProjectRepository interface {
	// Create inserts a project in W01 with no PM.
	Create(ctx context.Context, p models.Project, actor string) (*models.Project, error)

	GetByID(ctx context.Context, projectID int64) (*models.Project, error)

	// List returns visible projects matching filter, newest first.
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)

	AssignPM(ctx context.Context, projectID int64, pmID string, status models.ProjectStatus, actor string) (bool, error)
	UpdateStatus(ctx context.Context, projectID int64, status models.ProjectStatus, actor string) (bool, error)
	UpdateProgress(ctx context.Context, projectID int64, progress int, actor string) (bool, error)
	SoftDelete(ctx context.Context, projectID int64, actor string) (bool, error)

	// HasActiveForPM reports whether pmID manages any non-terminal project.
	HasActiveForPM(ctx context.Context, pmID string) (bool, error)

	// UnassignPM clears pm_id and sets W04 on every non-terminal project
	// managed by pmID. Returns the number of projects changed.
	UnassignPM(ctx context.Context, pmID string, actor string) (int64, error)
}

// JoinRequestRepository handles invites. "Visible" means del_yn = 'N'.
type JoinRequestRepository interface {
	// Create inserts a pending, unanswered invite.
	Create(ctx context.Context, projectID int64, userID, pmID string) (*models.JoinRequest, error)

	// HasOpen reports whether the same PM already has an unanswered,
	// visible invite out to the same user for the same project.
	HasOpen(ctx context.Context, projectID int64, userID, pmID string) (bool, error)

	// GetForInvitee returns a visible request addressed to userID.
	GetForInvitee(ctx context.Context, requestID int64, userID string) (*models.JoinRequest, error)

	// GetForProject returns a visible request of projectID. Inside a
	// transaction the row stays locked until commit.
	GetForProject(ctx context.Context, requestID, projectID int64) (*models.JoinRequest, error)

	// Respond records the invitee's answer: checking = 'Y' plus status.
	Respond(ctx context.Context, requestID int64, status models.JoinRequestStatus, actor string) error

	// Resolve sets a final status and hides the request.
	Resolve(ctx context.Context, requestID int64, status models.JoinRequestStatus, actor string) error

	// ListByProject returns the visible invites pmID sent for projectID,
	// leaving out the ones the invitee rejected. An empty pmID lists the
	// invites of every PM.
	ListByProject(ctx context.Context, projectID int64, pmID string) ([]models.InviteView, error)

	// ListByInvitee returns the visible invites addressed to userID on
	// visible projects, leaving out the ones the user rejected.
	ListByInvitee(ctx context.Context, userID string) ([]models.InviteView, error)
}

// TeamMemberRepository handles the project rosters.
type TeamMemberRepository interface {
	// Add inserts an active roster row. A second active row for the same
	// (project, user) fails with an *apperr.Error of kind Conflict.
	Add(ctx context.Context, projectID int64, userID string, pmID *string, actor string) (*models.TeamMember, error)

	IsMember(ctx context.Context, projectID int64, userID string) (bool, error)

	// Roster returns the active members of projectID with nicknames.
	Roster(ctx context.Context, projectID int64) ([]models.RosterEntry, error)

	Remove(ctx context.Context, projectID int64, userID string, actor string) (bool, error)

	// SyncPM points every active roster row of projectID at pmID.
	SyncPM(ctx context.Context, projectID int64, pmID string, actor string) (int64, error)

	// ClearPM nulls pm_id on every active roster row carrying pmID.
	ClearPM(ctx context.Context, pmID string, actor string) (int64, error)
}

// AlertRepository handles notification rows.
type AlertRepository interface {
	Create(ctx context.Context, a models.Alert) (*models.Alert, error)

	// Retire hides every visible alert correlated to (valueID, category).
	Retire(ctx context.Context, valueID int64, category string, actor string) (int64, error)

	// RetireFor is Retire limited to the alerts addressed to userID.
	RetireFor(ctx context.Context, valueID int64, category, userID string) (int64, error)

	// ListFor returns visible alerts addressed to userID, newest first.
	// With includeChannel the admin channel's alerts are included.
	ListFor(ctx context.Context, userID string, includeChannel bool) ([]models.Alert, error)

	// Dismiss hides alertID if it is addressed to userID, or to the admin
	// channel when includeChannel is set.
	Dismiss(ctx context.Context, alertID int64, userID string, includeChannel bool) (int64, error)
}

// ChannelFilter selects one thread of a project's channel.
type ChannelFilter struct {
	ProjectID int64
	Board     models.Board
	// MemberID is required for BoardDirect and ignored otherwise.
	MemberID string
}

// ChannelRepository handles project channel posts. Soft-deleted posts are
// invisible to every method.
type ChannelRepository interface {
	Create(ctx context.Context, p models.ChannelPost) (*models.ChannelPost, error)

	// GetByID returns the post with the author's nickname filled in.
	GetByID(ctx context.Context, channelID int64) (*models.ChannelPost, error)

	// List returns the posts of one thread, newest first.
	List(ctx context.Context, filter ChannelFilter) ([]models.ChannelPost, error)

	Update(ctx context.Context, channelID int64, title, content, actor string) (bool, error)
	SoftDelete(ctx context.Context, channelID int64, actor string) (bool, error)
}

// AskRepository handles contact-form inquiries.
type AskRepository interface {
	Create(ctx context.Context, a models.Ask) (*models.Ask, error)

	// ListOpen returns the unchecked inquiries, oldest first.
	ListOpen(ctx context.Context) ([]models.Ask, error)

	// Check marks an open inquiry handled.
	Check(ctx context.Context, askID int64, actor string) (bool, error)
}
