package webserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/civicworks/legisrev/src/api/data"
	"github.com/civicworks/legisrev/src/api/types"
)

type Votes struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewVotes(db *gorm.DB, rdb *redis.Client) Votes {
	return Votes{db: db, rdb: rdb}
}

// errVotingClosed aborts the cast transaction when a concurrent vote has already
// taken the proposal out of VOTING.
var errVotingClosed = errors.New("voting closed")

// Cast records or overwrites the caller's vote and applies the strict
// majority rule. Upsert, tally and any status cascade run as one
// transaction; the last write per (proposal, user) is the only one counted.
func (h Votes) Cast(c *gin.Context) {
	var req struct {
		ProposalID string `json:"proposalId" binding:"required,uuid"`
		Value      string `json:"value" binding:"required,oneof=APPROVE REJECT ABSTAIN"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if c.GetString("role") == types.RoleObserver {
		c.JSON(http.StatusForbidden, gin.H{"err": "observers cannot vote"})
		return
	}

	var proposal types.Proposal
	if err := h.db.First(&proposal, "id = ?", req.ProposalID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		return
	}

	uid := c.GetString("uid")
	vote := types.Vote{
		ProposalID: req.ProposalID,
		UserID:     uid,
		Value:      req.Value,
	}
	var counts types.VoteCounts
	newStatus := types.ProposalVoting

	err := h.db.Transaction(func(tx *gorm.DB) error {
		// the status gate lives inside the transaction so a concurrent
		// cast finalizing the proposal rolls this one back with it
		var current types.Proposal
		if err := tx.Select("status").First(&current, "id = ?", req.ProposalID).Error; err != nil {
			return err
		}
		if current.Status != types.ProposalVoting {
			return errVotingClosed
		}

		// upsert on the unique (proposal_id, user_id) index
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&vote).Error; err != nil {
			return err
		}

		var err error
		counts, err = tallyVotes(tx, req.ProposalID)
		if err != nil {
			return err
		}

		// strict majority of votes cast; a 50/50 tie changes nothing
		switch {
		case counts.Approve*2 > counts.Total:
			newStatus = types.ProposalApproved
		case counts.Reject*2 > counts.Total:
			newStatus = types.ProposalRejected
		default:
			return nil
		}

		res := tx.Model(&types.Proposal{}).
			Where("id = ? AND status = ?", req.ProposalID, types.ProposalVoting).
			Update("status", newStatus)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errVotingClosed
		}
		// the article follows its proposal in the same transaction
		return tx.Model(&types.Article{}).
			Where("id = ?", proposal.ArticleID).
			Update("status", newStatus).Error
	})
	if errors.Is(err, errVotingClosed) {
		c.JSON(http.StatusForbidden, gin.H{"err": "voting is only open for proposals in VOTING status"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	if newStatus != types.ProposalVoting {
		log.Printf("Proposal %s finalized as %s (%d/%d approve, %d reject)",
			req.ProposalID, newStatus, counts.Approve, counts.Total, counts.Reject)
		_ = data.PublishEvent(c, h.rdb, data.EventProposalFinalized, map[string]interface{}{
			"id":        req.ProposalID,
			"articleId": proposal.ArticleID,
			"status":    newStatus,
		})
	}

	// the upsert path keeps the original row id while BeforeCreate minted a
	// fresh one into the struct; reload into a clean value so the stale id
	// does not end up in the WHERE clause
	vote = types.Vote{}
	if err := h.db.First(&vote, "proposal_id = ? AND user_id = ?", req.ProposalID, uid).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vote":           vote,
		"voteCounts":     counts,
		"proposalStatus": newStatus,
	})
}

// List returns all votes on a proposal with voter identities and the current
// aggregate. Read-only.
func (h Votes) List(c *gin.Context) {
	proposalID := c.Query("proposalId")
	if proposalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "proposalId parameter is required"})
		return
	}

	var votes []types.Vote
	if err := h.db.Preload("User").
		Where("proposal_id = ?", proposalID).
		Order("created_at desc").
		Find(&votes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	counts, err := tallyVotes(h.db, proposalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	type voteEntry struct {
		types.Vote
		Voter types.UserSummary `json:"voter"`
	}
	out := make([]voteEntry, 0, len(votes))
	for _, v := range votes {
		out = append(out, voteEntry{Vote: v, Voter: v.User.Summary()})
	}

	c.JSON(http.StatusOK, gin.H{"votes": out, "voteCounts": counts})
}

// tallyVotes recomputes the aggregate over all votes on the proposal.
func tallyVotes(db *gorm.DB, proposalID string) (types.VoteCounts, error) {
	type row struct {
		Value string
		Count int64
	}
	var rows []row
	if err := db.Model(&types.Vote{}).
		Select("value, count(*) as count").
		Where("proposal_id = ?", proposalID).
		Group("value").
		Scan(&rows).Error; err != nil {
		return types.VoteCounts{}, err
	}

	var counts types.VoteCounts
	for _, r := range rows {
		switch r.Value {
		case types.VoteApprove:
			counts.Approve = r.Count
		case types.VoteReject:
			counts.Reject = r.Count
		case types.VoteAbstain:
			counts.Abstain = r.Count
		}
		counts.Total += r.Count
	}
	return counts, nil
}
