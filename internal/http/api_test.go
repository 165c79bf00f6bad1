package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"blog-api/internal/auth"
	"blog-api/internal/domain"
	"blog-api/internal/repository/sqlite"
	"blog-api/internal/service"
)

type capturedMail struct {
	to, token string
}

type captureMailer struct {
	sent []capturedMail
}

func (m *captureMailer) SendVerification(_ context.Context, to, _ string, token string) error {
	m.sent = append(m.sent, capturedMail{to: to, token: token})
	return nil
}

func (m *captureMailer) tokenFor(to string) string {
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].to == to {
			return m.sent[i].token
		}
	}
	return ""
}

type testServer struct {
	router *gin.Engine
	mailer *captureMailer
	logs   *test.Hook
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	blogs := sqlite.NewBlogRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, blogs.Init(ctx))

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	mailer := &captureMailer{}
	accounts := service.NewAccountService(users, tokens, auth.NewHasher(bcrypt.MinCost), mailer, logger)
	blogSvc := service.NewBlogService(blogs, users, nil, logger)

	router := gin.New()
	NewHandler(accounts, blogSvc, tokens, logger).RegisterRoutes(router)
	return &testServer{router: router, mailer: mailer, logs: hook}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

// signup registers and logs in, returning a session token.
func (s *testServer) signup(t *testing.T, username, role string) string {
	t.Helper()

	rec, body := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"role":     role,
		"password": "password",
	})
	require.Equal(t, http.StatusCreated, rec.Code, body)

	rec, body = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": username, "password": "password"})
	require.Equal(t, http.StatusOK, rec.Code, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func userID(t *testing.T, token string) string {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	claims, err := tokens.VerifyToken(token, auth.PurposeSession)
	require.NoError(t, err)
	return claims.UserID
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", body["message"])

	rec, body = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = s.do(t, http.MethodOptions, "/blogs", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRegisterAndVerifyEmail(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice", "user")

	rec, body := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "alice", "email": "other@example.com", "role": "user", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already Exist", body["message"])

	rec, body = s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": "bob", "email": "bob@example", "role": "user", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email format", body["message"])

	rec, body = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "ghost", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User doesn't Exists", body["message"])

	rec, body = s.do(t, http.MethodPost, "/auth/login", "", gin.H{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password doesn't Match", body["message"])

	rec, body = s.do(t, http.MethodGet, "/auth/verify-email?token=garbage", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or Token Expired", body["message"])

	token := s.mailer.tokenFor("alice@example.com")
	require.NotEmpty(t, token)
	rec, body = s.do(t, http.MethodGet, "/auth/verify-email?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "successfully verified Email", body["message"])

	rec, _ = s.do(t, http.MethodPost, "/auth/resend-verification", "", gin.H{"email": "alice@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.mailer.sent, 1)

	rec, body = s.do(t, http.MethodPost, "/auth/login", "", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body["message"])
}

func TestGuards(t *testing.T) {
	s := newTestServer(t)
	userToken := s.signup(t, "alice", "user")

	rec, body := s.do(t, http.MethodGet, "/blogs", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Authorization Header Missing", body["message"])

	rec, body = s.do(t, http.MethodGet, "/blogs", "not-a-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid jwtToken", body["message"])

	req := httptest.NewRequest(http.MethodGet, "/blogs", nil)
	req.Header.Set("Authorization", "Token "+userToken)
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	verification := s.mailer.tokenFor("alice@example.com")
	rec, body = s.do(t, http.MethodGet, "/blogs", verification, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "verification tokens are not sessions")
	assert.Equal(t, "Invalid jwtToken", body["message"])

	rec, body = s.do(t, http.MethodPost, "/blogs", userToken, gin.H{"title": "T", "content": "C"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access Denied", body["message"])
}

func TestBlogLifecycle(t *testing.T) {
	s := newTestServer(t)
	userToken := s.signup(t, "alice", "user")

	rec, body := s.do(t, http.MethodGet, "/blogs", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["blogs"])

	adminToken := s.signup(t, "root", "admin")
	rec, body = s.do(t, http.MethodPost, "/blogs", adminToken, gin.H{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, rec.Code, body)
	assert.Equal(t, "Blog created successfully", body["message"])
	created := body["createdBlog"].(map[string]any)
	blogID := created["id"].(string)

	rec, body = s.do(t, http.MethodGet, "/blogs/"+blogID, userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "T", body["title"])
	assert.Nil(t, body["assignedEditor"])

	rec, body = s.do(t, http.MethodGet, "/blogs/not-an-id", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid Blog ID format", body["message"])

	// plain users are stopped by the editor guard
	rec, _ = s.do(t, http.MethodPut, "/blogs/"+blogID, userToken, gin.H{"title": "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	editorToken := s.signup(t, "ed", "editor")
	rec, body = s.do(t, http.MethodPut, "/blogs/"+blogID, editorToken, gin.H{"title": "T2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Blog has not been assigned to an editor yet", body["message"])

	rec, body = s.do(t, http.MethodPut, "/blogs/"+blogID+"/assign-editor", adminToken, gin.H{"assignedEditorId": userID(t, userToken)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Assigned User is not an Editor", body["message"])

	editorID := userID(t, editorToken)
	rec, body = s.do(t, http.MethodPut, "/blogs/"+blogID+"/assign-editor", adminToken, gin.H{"assignedEditorId": editorID})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assigned := body["updatedBlog"].(map[string]any)
	assert.Equal(t, editorID, assigned["assignedEditorId"])
	assert.Equal(t, "ed", assigned["assignedEditor"].(map[string]any)["username"])

	otherEditor := s.signup(t, "olga", "editor")
	rec, body = s.do(t, http.MethodPut, "/blogs/"+blogID, otherEditor, gin.H{"title": "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access Denied - You can only edit blogs which are assigned to you", body["message"])

	rec, body = s.do(t, http.MethodPut, "/blogs/"+blogID, editorToken, gin.H{"title": "T2"})
	require.Equal(t, http.StatusOK, rec.Code, body)
	updated := body["updatedBlog"].(map[string]any)
	assert.Equal(t, "T2", updated["title"])
	assert.Equal(t, "C", updated["content"])

	rec, body = s.do(t, http.MethodPut, "/blogs/"+blogID, editorToken, gin.H{"title": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid-title field", body["message"])

	rec, _ = s.do(t, http.MethodDelete, "/blogs/"+blogID, editorToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = s.do(t, http.MethodDelete, "/blogs/"+blogID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, blogID, body["deletedBlog"].(map[string]any)["id"])

	rec, body = s.do(t, http.MethodGet, "/blogs/"+blogID, userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Blog not found", body["message"])
}

func TestComments(t *testing.T) {
	s := newTestServer(t)
	aliceToken := s.signup(t, "alice", "user")
	adminToken := s.signup(t, "root", "admin")

	_, body := s.do(t, http.MethodPost, "/blogs", adminToken, gin.H{"title": "T", "content": "C"})
	blogID := body["createdBlog"].(map[string]any)["id"].(string)

	rec, body := s.do(t, http.MethodPost, "/blogs/"+blogID+"/comments", aliceToken, gin.H{"content": "first!"})
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, "Comment Added Successfully", body["message"])
	comments := body["blog"].(map[string]any)["comments"].([]any)
	require.Len(t, comments, 1)
	comment := comments[0].(map[string]any)
	assert.Equal(t, userID(t, aliceToken), comment["userId"])
	commentID := comment["id"].(string)

	rec, body = s.do(t, http.MethodDelete, "/blogs/"+blogID+"/comments/"+commentID, adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access Denied - You can only delete your own comments", body["message"])

	rec, body = s.do(t, http.MethodDelete, "/blogs/"+blogID+"/comments/"+commentID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.Equal(t, []any{}, body["blog"].(map[string]any)["comments"])

	rec, body = s.do(t, http.MethodDelete, "/blogs/"+blogID+"/comments/"+commentID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Comment Not Found", body["message"])
}

func TestRequestLogging(t *testing.T) {
	s := newTestServer(t)
	s.logs.Reset()

	s.do(t, http.MethodGet, "/blogs", "", nil)

	entry := s.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusBadRequest, entry.Data["status"])
	assert.Equal(t, "/blogs", entry.Data["path"])
	assert.Equal(t, http.MethodGet, entry.Data["method"])
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.InvalidInput("bad"):                        http.StatusBadRequest,
		domain.NewError(domain.ErrDuplicateAccount, "dup"): http.StatusBadRequest,
		domain.NewError(domain.ErrUnauthorized, "pw"):      http.StatusBadRequest,
		domain.NewError(domain.ErrInvalidToken, "tok"):     http.StatusBadRequest,
		domain.Forbidden("no"):                            http.StatusForbidden,
		domain.NotFound("gone"):                           http.StatusNotFound,
		assert.AnError:                                    http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
