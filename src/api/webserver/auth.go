package webserver

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/civicworks/legisrev/src/api/data"
	"github.com/civicworks/legisrev/src/api/types"
)

type Auth struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuth(db *gorm.DB, secret []byte) Auth {
	return Auth{db: db, jwtSecret: secret}
}

func (a Auth) Register(c *gin.Context) {
	var req struct {
		Email        string `json:"email" binding:"required,email,max=255"`
		Password     string `json:"password" binding:"required,min=8,max=128"`
		FullName     string `json:"fullName" binding:"required,min=2,max=128"`
		Organization string `json:"organization" binding:"max=255"`
		Role         string `json:"role" binding:"omitempty,oneof=ADMIN MEMBER OBSERVER"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if !data.SettingBool("registration_open") {
		c.JSON(http.StatusForbidden, gin.H{"err": "registration is closed"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing types.User
	if err := a.db.First(&existing, "email = ?", email).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"err": "a user with this email already exists"})
		return
	} else if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = types.RoleMember
	}

	user := types.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Organization: req.Organization,
		Role:         role,
	}
	if err := a.db.Create(&user).Error; err != nil {
		// a concurrent register can slip past the lookup; the unique
		// index on email is the authority
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"err": "a user with this email already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	log.Printf("Registered user %s (%s) from IP %s", user.Email, user.Role, c.ClientIP())
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// isUniqueViolation matches the MySQL and SQLite duplicate-key errors for
// drivers that do not translate them to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func (a Auth) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user types.User
	if err := a.db.First(&user, "email = ?", email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Printf("Failed login for %s from IP %s", email, c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid email or password"})
		return
	}

	token, err := issueJWT(user.ID, user.Role, a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
