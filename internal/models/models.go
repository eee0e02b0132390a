package models

import (
	"time"

	"github.com/nayeon729/humanmakehub/internal/rbac"
)

// User is an account. UserID is the login id the person picked at signup,
// not a generated key. Rows are never removed; Deleted hides them.
type User struct {
	UserID       string    `json:"user_id"`
	Nickname     string    `json:"nickname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         rbac.Role `json:"role"`
	Deleted      bool      `json:"del_yn"`
	CreatedAt    time.Time `json:"create_dt"`
}

// ProjectStatus is the W-code stored in project.status.
type ProjectStatus string

const (
	StatusReview     ProjectStatus = "W01"
	StatusInProgress ProjectStatus = "W02"
	StatusDone       ProjectStatus = "W03"
	StatusUnassigned ProjectStatus = "W04"
)

// Terminal projects keep their PM when that PM is demoted.
func (s ProjectStatus) Terminal() bool {
	return s == StatusDone
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusReview, StatusInProgress, StatusDone, StatusUnassigned:
		return true
	}
	return false
}

// Project is a client's job posting. PMID is nil until a PM assigns
// themselves, and again after that PM is removed.
type Project struct {
	ProjectID   int64         `json:"project_id"`
	ClientID    string        `json:"client_id"`
	PMID        *string       `json:"pm_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Status      ProjectStatus `json:"status"`
	Progress    int           `json:"progress"`
	Deleted     bool          `json:"del_yn"`
	CreatedAt   time.Time     `json:"create_dt"`
}

// ManagedBy reports whether userID is the project's current PM.
func (p *Project) ManagedBy(userID string) bool {
	return p.PMID != nil && *p.PMID == userID
}

// JoinRequestStatus is where an invite sits in the team-formation flow.
//
//	pending ──respond──▶ accepted ──approve──▶ promoted
//	   │                    │
//	   └──respond──▶ rejected   └──reject──▶ withdrawn
//
// pending can also go straight to withdrawn when the PM takes the invite back.
type JoinRequestStatus string

const (
	JoinPending   JoinRequestStatus = "pending"
	JoinAccepted  JoinRequestStatus = "accepted"
	JoinRejected  JoinRequestStatus = "rejected"
	JoinPromoted  JoinRequestStatus = "promoted"
	JoinWithdrawn JoinRequestStatus = "withdrawn"
)

// JoinRequest is an invite from a PM to a candidate. Responded is set once
// the invitee answers; Deleted hides resolved requests from active lists.
type JoinRequest struct {
	RequestID int64             `json:"request_id"`
	ProjectID int64             `json:"project_id"`
	UserID    string            `json:"user_id"`
	PMID      string            `json:"pm_id"`
	Status    JoinRequestStatus `json:"status"`
	Responded bool              `json:"checking"`
	Deleted   bool              `json:"del_yn"`
	CreatedAt time.Time         `json:"create_dt"`
}

// Approvable is true only for an invite the candidate has accepted and
// nobody has resolved yet.
func (r *JoinRequest) Approvable() bool {
	return !r.Deleted && r.Responded && r.Status == JoinAccepted
}

// Open is true while the invitee has not answered.
func (r *JoinRequest) Open() bool {
	return !r.Deleted && !r.Responded && r.Status == JoinPending
}

// TeamMember is one row of a project's roster. PMID is denormalized from
// the project and is cleared when that PM is removed.
type TeamMember struct {
	TeamMemberID int64     `json:"team_member_id"`
	ProjectID    int64     `json:"project_id"`
	UserID       string    `json:"user_id"`
	PMID         *string   `json:"pm_id"`
	Deleted      bool      `json:"del_yn"`
	CreatedAt    time.Time `json:"create_dt"`
}

// AdminChannel is the target_user value for alerts addressed to every
// PM and admin rather than a single account.
const AdminChannel = string(rbac.RolePM)

const (
	CategoryProject = "project"
	CategoryChat    = "chat"
	CategoryAsk     = "ask"
	CategorySystem  = "system"
)

// Alert is a notification row. ValueID ties it back to whatever raised it
// (a request_id, project_id or channel id) so it can be retired later.
type Alert struct {
	AlertID    int64     `json:"alert_id"`
	TargetUser string    `json:"target_user"`
	ValueID    int64     `json:"value_id"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Link       string    `json:"link"`
	CreateID   string    `json:"create_id"`
	Deleted    bool      `json:"del_yn"`
	CreatedAt  time.Time `json:"create_dt"`
}

// RosterEntry is a project member as the members page shows it.
type RosterEntry struct {
	UserID       string `json:"user_id"`
	Nickname     string `json:"nickname"`
	TeamMemberID *int64 `json:"team_member_id"`
	IsPM         bool   `json:"is_pm"`
}

// InviteView joins a request with the names the invite lists display.
type InviteView struct {
	JoinRequest
	Nickname     string `json:"nickname"`
	ProjectTitle string `json:"title"`
}

// Board picks which thread of a project's channel a post belongs to.
type Board string

const (
	// BoardNotice is the PM's announcement board, read by the whole team.
	BoardNotice Board = "notice"
	// BoardDirect is a private thread between the PM and one member.
	BoardDirect Board = "direct"
)

func (b Board) Valid() bool {
	return b == BoardNotice || b == BoardDirect
}

// ChannelPost is one post on a project's channel. MemberID names the
// member whose direct thread it is and is empty on the notice board.
type ChannelPost struct {
	ChannelID int64     `json:"channel_id"`
	ProjectID int64     `json:"project_id"`
	Board     Board     `json:"board"`
	MemberID  string    `json:"member_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreateID  string    `json:"create_id"`
	Nickname  string    `json:"nickname"`
	Deleted   bool      `json:"del_yn"`
	CreatedAt time.Time `json:"create_dt"`
}

// Ask is an inquiry left on the public contact form. Checked is set once
// a PM or admin has handled it.
type Ask struct {
	AskID       int64     `json:"ask_id"`
	Username    string    `json:"username"`
	Company     string    `json:"company"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Description string    `json:"description"`
	Categories  []string  `json:"category"`
	Checked     bool      `json:"del_yn"`
	CreatedAt   time.Time `json:"create_dt"`
}
