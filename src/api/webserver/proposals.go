package webserver

import (
	"log"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/civicworks/legisrev/src/api/data"
	"github.com/civicworks/legisrev/src/api/types"
)

type Proposals struct {
	db        *gorm.DB
	rdb       *redis.Client
	sanitizer *bluemonday.Policy
}

func NewProposals(db *gorm.DB, rdb *redis.Client) Proposals {
	return Proposals{db: db, rdb: rdb, sanitizer: newSanitizer()}
}

// Create inserts a DRAFT proposal and, in the same transaction, moves its
// article from NOT_PROCESSED to IN_DISCUSSION. An article already past
// NOT_PROCESSED is left untouched.
func (h Proposals) Create(c *gin.Context) {
	var req struct {
		ArticleID     string `json:"articleId" binding:"required,uuid"`
		ProposedText  string `json:"proposedText" binding:"required,min=10,max=10000"`
		Justification string `json:"justification" binding:"required,min=20,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	role := c.GetString("role")
	if role != types.RoleMember && role != types.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"err": "only working group members can create proposals"})
		return
	}

	req.ProposedText = h.sanitizer.Sanitize(req.ProposedText)
	req.Justification = h.sanitizer.Sanitize(req.Justification)
	if n := utf8.RuneCountInString(req.ProposedText); n < 10 || n > 10000 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "proposed text must be between 10 and 10000 characters"})
		return
	}
	if n := utf8.RuneCountInString(req.Justification); n < 20 || n > 2000 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "justification must be between 20 and 2000 characters"})
		return
	}

	var article types.Article
	if err := h.db.Select("id, status").First(&article, "id = ?", req.ArticleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "article not found"})
		return
	}

	proposal := types.Proposal{
		ArticleID:     req.ArticleID,
		AuthorID:      c.GetString("uid"),
		ProposedText:  req.ProposedText,
		Justification: req.Justification,
		Status:        types.ProposalDraft,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&proposal).Error; err != nil {
			return err
		}
		// guarded update keeps this step idempotent under concurrent creates
		return tx.Model(&types.Article{}).
			Where("id = ? AND status = ?", req.ArticleID, types.ArticleNotProcessed).
			Update("status", types.ArticleInDiscussion).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	var author types.User
	if err := h.db.First(&author, "id = ?", proposal.AuthorID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	_ = data.PublishEvent(c, h.rdb, data.EventProposalCreated, map[string]interface{}{
		"id":        proposal.ID,
		"articleId": proposal.ArticleID,
		"author":    author.FullName,
	})

	c.JSON(http.StatusCreated, gin.H{
		"proposal": proposal,
		"author":   author.Summary(),
	})
}

// StartVoting moves a DRAFT proposal to VOTING. Administrator only; calling
// it on a proposal in any other status is an error, not a no-op.
func (h Proposals) StartVoting(c *gin.Context) {
	proposalID := c.Param("id")
	if uuid.Validate(proposalID) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid proposal id"})
		return
	}

	if c.GetString("role") != types.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"err": "only an administrator can start voting"})
		return
	}

	var proposal types.Proposal
	if err := h.db.Preload("Author").First(&proposal, "id = ?", proposalID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		return
	}

	if proposal.Status != types.ProposalDraft {
		c.JSON(http.StatusBadRequest, gin.H{"err": "voting can only be started for draft proposals"})
		return
	}

	// the status guard in the WHERE clause loses the race to a concurrent call
	res := h.db.Model(&types.Proposal{}).
		Where("id = ? AND status = ?", proposalID, types.ProposalDraft).
		Update("status", types.ProposalVoting)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "voting can only be started for draft proposals"})
		return
	}
	proposal.Status = types.ProposalVoting

	var voteCount int64
	h.db.Model(&types.Vote{}).Where("proposal_id = ?", proposalID).Count(&voteCount)

	log.Printf("Admin %s started voting on proposal %s", c.GetString("uid"), proposalID)

	_ = data.PublishEvent(c, h.rdb, data.EventVotingStarted, map[string]interface{}{
		"id":        proposal.ID,
		"articleId": proposal.ArticleID,
	})

	c.JSON(http.StatusOK, gin.H{
		"proposal":  proposal,
		"author":    proposal.Author.Summary(),
		"voteCount": voteCount,
	})
}
