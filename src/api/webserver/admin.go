package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civicworks/legisrev/src/api/types"
)

type Admin struct {
	db *gorm.DB
}

func NewAdmin(db *gorm.DB) Admin {
	return Admin{db: db}
}

func (a Admin) ListUsers(c *gin.Context) {
	var users []types.User
	if err := a.db.Order("created_at asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SetRole changes a user's role. The change takes effect at the user's next
// login; outstanding tokens carry the old role until they expire.
func (a Admin) SetRole(c *gin.Context) {
	userID := c.Param("id")
	if uuid.Validate(userID) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid user id"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=ADMIN MEMBER OBSERVER"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var user types.User
	if err := a.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}

	log.Printf("Admin %s changing role of %s to %s", c.GetString("uid"), user.Email, req.Role)

	if err := a.db.Model(&user).Update("role", req.Role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	user.Role = req.Role
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminMiddleware re-checks the admin role against the database so a demoted
// administrator loses access before their token expires.
func AdminMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user types.User
		if err := db.First(&user, "id = ?", c.GetString("uid")).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "admin access required"})
			return
		}
		if user.Role != types.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "admin access required"})
			return
		}
		c.Next()
	}
}
