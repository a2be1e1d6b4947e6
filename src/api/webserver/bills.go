package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civicworks/legisrev/src/api/types"
)

type Bills struct {
	db *gorm.DB
}

func NewBills(db *gorm.DB) Bills {
	return Bills{db: db}
}

// articleStats summarizes review progress across a bill's articles.
type articleStats struct {
	Total        int `json:"total"`
	NotProcessed int `json:"notProcessed"`
	InDiscussion int `json:"inDiscussion"`
	Approved     int `json:"approved"`
	Rejected     int `json:"rejected"`
}

func statsFor(articles []types.Article) articleStats {
	stats := articleStats{Total: len(articles)}
	for _, a := range articles {
		switch a.Status {
		case types.ArticleNotProcessed:
			stats.NotProcessed++
		case types.ArticleInDiscussion:
			stats.InDiscussion++
		case types.ArticleApproved:
			stats.Approved++
		case types.ArticleRejected:
			stats.Rejected++
		}
	}
	return stats
}

func (h Bills) List(c *gin.Context) {
	var bills []types.Bill
	if err := h.db.Preload("Articles").Order("created_at desc").Find(&bills).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	type billEntry struct {
		types.Bill
		ArticleStats articleStats `json:"articleStats"`
	}
	out := make([]billEntry, 0, len(bills))
	for _, b := range bills {
		entry := billEntry{Bill: b, ArticleStats: statsFor(b.Articles)}
		entry.Articles = nil
		out = append(out, entry)
	}

	c.JSON(http.StatusOK, gin.H{"bills": out})
}

func (h Bills) Get(c *gin.Context) {
	billID := c.Param("id")
	if uuid.Validate(billID) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid bill id"})
		return
	}

	var bill types.Bill
	err := h.db.Preload("Articles", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index asc")
	}).First(&bill, "id = ?", billID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "bill not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bill": bill, "articleStats": statsFor(bill.Articles)})
}

func (h Bills) GetArticle(c *gin.Context) {
	articleID := c.Param("id")
	if uuid.Validate(articleID) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid article id"})
		return
	}

	var article types.Article
	err := h.db.Preload("Proposals", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at desc")
	}).Preload("Proposals.Author").First(&article, "id = ?", articleID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "article not found"})
		return
	}

	type proposalEntry struct {
		types.Proposal
		Author types.UserSummary `json:"author"`
	}
	proposals := make([]proposalEntry, 0, len(article.Proposals))
	for _, p := range article.Proposals {
		proposals = append(proposals, proposalEntry{Proposal: p, Author: p.Author.Summary()})
	}
	article.Proposals = nil

	c.JSON(http.StatusOK, gin.H{"article": article, "proposals": proposals})
}
