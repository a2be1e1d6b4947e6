package webserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/civicworks/legisrev/src/api/config"
	"github.com/civicworks/legisrev/src/api/data"
	"github.com/civicworks/legisrev/src/api/types"
)

const testJWTSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, data.Migrate(db))
	require.NoError(t, data.LoadSettings(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := config.Config{
		JWTSecret:      testJWTSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	return &testEnv{router: New(cfg, db, rdb), db: db}
}

func (e *testEnv) createUser(t *testing.T, email, role string) types.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := types.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Test " + role,
		Organization: "Test Org",
		Role:         role,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) tokenFor(t *testing.T, user types.User) string {
	t.Helper()
	token, err := issueJWT(user.ID, user.Role, []byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) createBillWithArticle(t *testing.T) (types.Bill, types.Article) {
	t.Helper()
	bill := types.Bill{Title: "On Fisheries and Commercial Catch", Status: types.BillActive}
	require.NoError(t, e.db.Create(&bill).Error)
	article := types.Article{
		BillID:        bill.ID,
		ArticleNumber: "Article 1",
		Title:         "Definitions",
		DraftBillText: "Aquaculture is the artificial breeding of aquatic bioresources.",
		OrderIndex:    1,
		Status:        types.ArticleNotProcessed,
	}
	require.NoError(t, e.db.Create(&article).Error)
	return bill, article
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body: %s", rr.Body.String())
	return out
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/bills"},
		{http.MethodPost, "/v1/comments"},
		{http.MethodGet, "/v1/comments?articleId=x"},
		{http.MethodPost, "/v1/proposals"},
		{http.MethodPatch, "/v1/proposals/00000000-0000-0000-0000-000000000000/start-voting"},
		{http.MethodPost, "/v1/votes"},
		{http.MethodGet, "/v1/votes?proposalId=x"},
		{http.MethodGet, "/v1/admin/users"},
	}
	for _, p := range paths {
		rr := env.do(t, p.method, p.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", p.method, p.path)
	}
}

func TestMalformedTokenRejected(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/v1/bills", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
