package webserver

import (
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/civicworks/legisrev/src/api/data"
	"github.com/civicworks/legisrev/src/api/types"
)

type Comments struct {
	db        *gorm.DB
	rdb       *redis.Client
	sanitizer *bluemonday.Policy
}

func NewComments(db *gorm.DB, rdb *redis.Client) Comments {
	return Comments{db: db, rdb: rdb, sanitizer: newSanitizer()}
}

// commentNode is a comment with its author and reply subtree attached.
type commentNode struct {
	types.Comment
	Author  types.UserSummary `json:"author"`
	Replies []*commentNode    `json:"replies"`
}

func (h Comments) Create(c *gin.Context) {
	var req struct {
		ArticleID string  `json:"articleId" binding:"required,uuid"`
		Text      string  `json:"text" binding:"required,min=10,max=2000"`
		ParentID  *string `json:"parentId" binding:"omitempty,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if c.GetString("role") == types.RoleObserver {
		c.JSON(http.StatusForbidden, gin.H{"err": "observers cannot create comments"})
		return
	}

	req.Text = h.sanitizer.Sanitize(req.Text)
	if n := utf8.RuneCountInString(req.Text); n < 10 || n > 2000 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "comment must be between 10 and 2000 characters"})
		return
	}

	var article types.Article
	if err := h.db.Select("id").First(&article, "id = ?", req.ArticleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "article not found"})
		return
	}

	if req.ParentID != nil {
		var parent types.Comment
		if err := h.db.Select("id, article_id").First(&parent, "id = ?", *req.ParentID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"err": "parent comment not found"})
			return
		}
		if parent.ArticleID != req.ArticleID {
			c.JSON(http.StatusBadRequest, gin.H{"err": "parent comment belongs to a different article"})
			return
		}
	}

	comment := types.Comment{
		ArticleID: req.ArticleID,
		UserID:    c.GetString("uid"),
		ParentID:  req.ParentID,
		Text:      req.Text,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	var author types.User
	if err := h.db.First(&author, "id = ?", comment.UserID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	_ = data.PublishEvent(c, h.rdb, data.EventCommentCreated, map[string]interface{}{
		"id":        comment.ID,
		"articleId": comment.ArticleID,
		"author":    author.FullName,
	})

	c.JSON(http.StatusCreated, gin.H{
		"comment": commentNode{Comment: comment, Author: author.Summary(), Replies: []*commentNode{}},
	})
}

// List returns the discussion tree for an article: top-level comments newest
// first, replies at every level oldest first so each thread reads in order.
func (h Comments) List(c *gin.Context) {
	articleID := c.Query("articleId")
	if articleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "articleId parameter is required"})
		return
	}

	var comments []types.Comment
	if err := h.db.Preload("User").
		Where("article_id = ?", articleID).
		Order("created_at asc").
		Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": buildCommentTree(comments)})
}

// buildCommentTree links a flat, chronologically sorted comment list into a
// tree by parent id. Replies keep their ascending order; top-level comments
// come out newest first.
func buildCommentTree(comments []types.Comment) []*commentNode {
	nodes := make(map[string]*commentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &commentNode{
			Comment: comments[i],
			Author:  comments[i].User.Summary(),
			Replies: []*commentNode{},
		}
	}

	roots := []*commentNode{}
	for i := range comments {
		node := nodes[comments[i].ID]
		if comments[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*comments[i].ParentID]; ok {
			parent.Replies = append(parent.Replies, node)
		}
	}

	// input is oldest first; reverse the top level only
	for i, j := 0, len(roots)-1; i < j; i, j = i+1, j-1 {
		roots[i], roots[j] = roots[j], roots[i]
	}
	return roots
}
