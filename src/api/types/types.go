package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin    = "ADMIN"
	RoleMember   = "MEMBER"
	RoleObserver = "OBSERVER"
)

// Bill statuses
const (
	BillActive   = "ACTIVE"
	BillArchived = "ARCHIVED"
)

// Article statuses
const (
	ArticleNotProcessed = "NOT_PROCESSED"
	ArticleInDiscussion = "IN_DISCUSSION"
	ArticleApproved     = "APPROVED"
	ArticleRejected     = "REJECTED"
)

// Proposal statuses
const (
	ProposalDraft    = "DRAFT"
	ProposalVoting   = "VOTING"
	ProposalApproved = "APPROVED"
	ProposalRejected = "REJECTED"
)

// Vote values
const (
	VoteApprove = "APPROVE"
	VoteReject  = "REJECT"
	VoteAbstain = "ABSTAIN"
)

func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleMember || r == RoleObserver
}

// Working group members, administrators and observers
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	FullName     string    `gorm:"size:128;not null" json:"fullName"`
	Organization string    `gorm:"size:255" json:"organization"`
	Role         string    `gorm:"size:16;not null;default:MEMBER" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserSummary is the author shape attached to comments, proposals and votes.
type UserSummary struct {
	ID           string `json:"id"`
	FullName     string `json:"fullName"`
	Organization string `json:"organization"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Organization: u.Organization}
}

// Bills under review
type Bill struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"id"`
	Title              string    `gorm:"size:512;not null" json:"title"`
	RegistrationNumber string    `gorm:"size:32" json:"registrationNumber"`
	Description        string    `gorm:"type:text" json:"description"`
	Status             string    `gorm:"size:16;not null;default:ACTIVE" json:"status"`
	Articles           []Article `gorm:"foreignKey:BillID" json:"articles,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Articles of a bill; ordered by OrderIndex, not creation time. Status is
// driven exclusively by proposal outcomes, never set through a general update.
type Article struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	BillID         string     `gorm:"size:36;index;not null" json:"billId"`
	ArticleNumber  string     `gorm:"size:64;not null" json:"articleNumber"`
	Title          string     `gorm:"size:512" json:"title"`
	CurrentLawText *string    `gorm:"type:text" json:"currentLawText"`
	DraftBillText  string     `gorm:"type:text;not null" json:"draftBillText"`
	OrderIndex     int        `gorm:"not null;default:0" json:"orderIndex"`
	Status         string     `gorm:"size:16;not null;default:NOT_PROCESSED" json:"status"`
	Proposals      []Proposal `gorm:"foreignKey:ArticleID" json:"proposals,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Amendment proposals; DRAFT -> VOTING -> APPROVED|REJECTED, never backwards.
type Proposal struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ArticleID      string     `gorm:"size:36;index;not null" json:"articleId"`
	AuthorID       string     `gorm:"size:36;not null" json:"authorId"`
	ProposedText   string     `gorm:"type:text;not null" json:"proposedText"`
	Justification  string     `gorm:"type:text;not null" json:"justification"`
	Status         string     `gorm:"size:16;not null;default:DRAFT" json:"status"`
	VotingDeadline *time.Time `json:"votingDeadline"`
	Author         User       `gorm:"foreignKey:AuthorID" json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// One vote per (proposal, user); a repeat vote overwrites the prior value.
type Vote struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ProposalID string    `gorm:"size:36;not null;uniqueIndex:idx_votes_proposal_user" json:"proposalId"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_votes_proposal_user" json:"userId"`
	Value      string    `gorm:"size:16;not null" json:"value"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VoteCounts is the aggregate recomputed on every cast.
type VoteCounts struct {
	Approve int64 `json:"approve"`
	Reject  int64 `json:"reject"`
	Abstain int64 `json:"abstain"`
	Total   int64 `json:"total"`
}

// Threaded discussion on an article. ParentID, when set, must reference a
// comment on the same article; the tree is unbounded in depth.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ArticleID string    `gorm:"size:36;index;not null" json:"articleId"`
	UserID    string    `gorm:"size:36;not null" json:"userId"`
	ParentID  *string   `gorm:"size:36;index" json:"parentId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;uniqueIndex;not null"`
	Value string `gorm:"size:256;not null"`
}
