package handlers_test

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"denuncias/internal/database"
	"denuncias/internal/models"
	"denuncias/internal/repositories"
	"denuncias/internal/server"
	"denuncias/internal/services"
	"denuncias/internal/storage"
	"denuncias/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testJWTSecret = "test_jwt_secret"

type testEnv struct {
	app         *fiber.App
	authService *services.AuthService
}

// setupApp builds the full application over an in-memory SQLite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.Open(database.DriverSQLite, "file::memory:", logger)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir, "/uploads")
	require.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	complaintRepo := repositories.NewGORMComplaintRepository(db)
	photos := services.NewPhotoService(store, 512, 1_000_000, 80, logger)
	authService := services.NewAuthService(userRepo, testJWTSecret, time.Hour, logger)

	_, err = authService.EnsureAdmin("admin", "admin@example.com", "admin123", "(21) 98765-4321", "123.456.789-09")
	require.NoError(t, err)

	app := server.New(server.Deps{
		Auth:            authService,
		Complaints:      services.NewComplaintService(complaintRepo, photos, nil, nil, logger),
		Users:           services.NewUserService(userRepo, photos, logger),
		Validate:        validation.New(),
		Logger:          logger,
		DatabaseCheck:   func() error { return database.Ping(db) },
		UploadDir:       uploadDir,
		UploadURLPrefix: "/uploads",
	})
	return &testEnv{app: app, authService: authService}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) (int, []byte) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBody
}

func (e *testEnv) register(t *testing.T, username, cpf string) {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"phone":    "(21) 98765-4321",
		"cpf":      cpf,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (e *testEnv) createComplaint(t *testing.T, token string, body map[string]interface{}) models.Complaint {
	t.Helper()
	status, respBody := e.do(t, http.MethodPost, "/api/v1/complaints", token, body)
	require.Equal(t, http.StatusCreated, status, string(respBody))
	var complaint models.Complaint
	require.NoError(t, json.Unmarshal(respBody, &complaint))
	return complaint
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)
	env.register(t, "testuser", "529.982.247-25")

	t.Run("password is never returned", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "testuser@example.com", "password": "password123",
		})
		assert.Equal(t, http.StatusOK, status)
		assert.NotContains(t, string(body), "password123")
		assert.NotContains(t, string(body), `"password"`)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "testuser", "email": "other@example.com", "password": "password123",
			"phone": "(21) 98765-4321", "cpf": "111.444.777-35",
		})
		assert.Equal(t, http.StatusConflict, status, string(body))

		status, _ = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "another", "email": "another@example.com", "password": "password123",
			"phone": "(21) 98765-4321", "cpf": "52998224725",
		})
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("validation", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "x", "email": "not-an-email", "password": "1", "phone": "1", "cpf": "111.111.111-11",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		var resp struct {
			Errors map[string]string `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Contains(t, resp.Errors, "cpf")
		assert.Contains(t, resp.Errors, "email")
		assert.Contains(t, resp.Errors, "phone")
	})

	t.Run("email is case insensitive", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "shouty", "email": "TESTUSER@example.com", "password": "password123",
			"phone": "(21) 98765-4321", "cpf": "111.444.777-35",
		})
		assert.Equal(t, http.StatusConflict, status, string(body))

		env.login(t, "TestUser@Example.com", "password123")
	})

	t.Run("wrong password", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "testuser@example.com", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("unknown email", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "nobody@example.com", "password": "password123",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupApp(t)

	status, _ := env.do(t, http.MethodGet, "/api/v1/complaints/mine", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/api/v1/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/complaints", "", map[string]string{"title": "abc", "category": "x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/api/v1/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Public routes and unknown paths are not behind the token check.
	status, _ = env.do(t, http.MethodGet, "/api/v1/complaints/map", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComplaintOwnershipFlow(t *testing.T) {
	env := setupApp(t)
	env.register(t, "alice", "529.982.247-25")
	env.register(t, "bob", "111.444.777-35")
	aliceToken := env.login(t, "alice@example.com", "password123")
	bobToken := env.login(t, "bob@example.com", "password123")
	adminToken := env.login(t, "admin@example.com", "admin123")

	complaint := env.createComplaint(t, aliceToken, map[string]interface{}{
		"title":    "Buraco na rua",
		"category": "infraestrutura",
		"address":  "Rua das Laranjeiras, 100",
	})
	assert.Equal(t, models.StatusPending, complaint.Status)
	path := "/api/v1/complaints/" + complaint.ID

	status, _ := env.do(t, http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodGet, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodGet, path, aliceToken, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(t, http.MethodPatch, path, bobToken, map[string]string{"title": "hijacked"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Listing everything is reserved to admins.
	status, _ = env.do(t, http.MethodGet, "/api/v1/complaints", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, body := env.do(t, http.MethodGet, "/api/v1/complaints", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	var all []models.Complaint
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, 1)

	status, body = env.do(t, http.MethodGet, "/api/v1/complaints/mine", bobToken, nil)
	assert.Equal(t, http.StatusOK, status)
	var bobs []models.Complaint
	require.NoError(t, json.Unmarshal(body, &bobs))
	assert.Empty(t, bobs)

	status, _ = env.do(t, http.MethodDelete, path, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = env.do(t, http.MethodGet, path, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodDelete, path, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComplaintPartialUpdate(t *testing.T) {
	env := setupApp(t)
	env.register(t, "alice", "529.982.247-25")
	aliceToken := env.login(t, "alice@example.com", "password123")
	adminToken := env.login(t, "admin@example.com", "admin123")

	complaint := env.createComplaint(t, aliceToken, map[string]interface{}{
		"title":       "Poste apagado",
		"category":    "iluminacao",
		"description": "Rua escura desde segunda",
	})
	path := "/api/v1/complaints/" + complaint.ID

	status, body := env.do(t, http.MethodPatch, path, aliceToken, map[string]string{"title": "Poste apagado há dias"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(t, http.MethodGet, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var got models.Complaint
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Poste apagado há dias", got.Title)
	assert.Equal(t, "iluminacao", got.Category)
	assert.Equal(t, models.StatusPending, got.Status)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Rua escura desde segunda", *got.Description)

	status, _ = env.do(t, http.MethodPatch, path, aliceToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPatch, path, adminToken, map[string]string{"status": "Arquivado"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPatch, path, aliceToken, map[string]string{"status": models.StatusResolved})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodPatch, path, adminToken, map[string]string{"status": models.StatusResolved})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, models.StatusResolved, got.Status)

	status, _ = env.do(t, http.MethodPatch, path, aliceToken, map[string]float64{"latitude": -23.5})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPatch, path, aliceToken, map[string]float64{"latitude": -23.5, "longitude": -46.6})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	require.NotNil(t, got.Latitude)
	require.NotNil(t, got.Longitude)

	status, _ = env.do(t, http.MethodPatch, "/api/v1/complaints/missing", adminToken, map[string]string{"title": "whatever"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestComplaintMap(t *testing.T) {
	env := setupApp(t)
	env.register(t, "alice", "529.982.247-25")
	aliceToken := env.login(t, "alice@example.com", "password123")

	env.createComplaint(t, aliceToken, map[string]interface{}{
		"title": "Com coordenadas", "category": "a", "latitude": -22.9068, "longitude": -43.1729,
	})
	env.createComplaint(t, aliceToken, map[string]interface{}{
		"title": "Endereço legado", "category": "a", "address": "-22.95,-43.21",
	})
	env.createComplaint(t, aliceToken, map[string]interface{}{
		"title": "Só endereço", "category": "a", "address": "Rua A, 123",
	})

	status, body := env.do(t, http.MethodGet, "/api/v1/complaints/map", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var locations []models.ComplaintLocation
	require.NoError(t, json.Unmarshal(body, &locations))
	require.Len(t, locations, 2)
	for _, loc := range locations {
		assert.NotEqual(t, "Só endereço", loc.Title)
	}
}

func TestComplaintWithPhoto(t *testing.T) {
	env := setupApp(t)
	env.register(t, "alice", "529.982.247-25")
	aliceToken := env.login(t, "alice@example.com", "password123")

	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 200, B: uint8(x * 6), A: 255})
		}
	}
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	require.NoError(t, writer.WriteField("title", "Lixo na calçada"))
	require.NoError(t, writer.WriteField("category", "limpeza"))
	part, err := writer.CreateFormFile("photo", "foto.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/complaints", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	status, body := env.send(t, req, aliceToken)
	require.Equal(t, http.StatusCreated, status, string(body))

	var complaint models.Complaint
	require.NoError(t, json.Unmarshal(body, &complaint))
	require.NotNil(t, complaint.PhotoURL)

	status, photo := env.do(t, http.MethodGet, *complaint.PhotoURL, "", nil)
	require.Equal(t, http.StatusOK, status)
	require.GreaterOrEqual(t, len(photo), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, photo[:2])
}

// oversizedPNG is a tiny PNG whose header declares 60000x60000 pixels.
func oversizedPNG() []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 60000)
	binary.BigEndian.PutUint32(ihdr[4:8], 60000)
	ihdr[8] = 8 // bit depth, grayscale
	chunk := append([]byte("IHDR"), ihdr...)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = binary.BigEndian.AppendUint32(out, uint32(len(ihdr)))
	out = append(out, chunk...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(chunk))
}

func TestOversizedPhotoIsRejected(t *testing.T) {
	env := setupApp(t)
	env.register(t, "alice", "529.982.247-25")
	aliceToken := env.login(t, "alice@example.com", "password123")
	complaint := env.createComplaint(t, aliceToken, map[string]interface{}{"title": "Muro pichado", "category": "limpeza"})

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("photo", "huge.png")
	require.NoError(t, err)
	_, err = part.Write(oversizedPNG())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/complaints/"+complaint.ID+"/photo", &form)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	status, body := env.send(t, req, aliceToken)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(body), "pixel limit")
}

func TestRoleChangeIsHonouredImmediately(t *testing.T) {
	env := setupApp(t)
	env.register(t, "alice", "529.982.247-25")
	aliceToken := env.login(t, "alice@example.com", "password123")
	adminToken := env.login(t, "admin@example.com", "admin123")

	status, _ := env.do(t, http.MethodGet, "/api/v1/admin", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodGet, "/api/v1/users/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me models.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "+5521987654321", me.Phone)

	status, body = env.do(t, http.MethodPatch, "/api/v1/admin/users/"+me.ID+"/role", adminToken, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, status, string(body))

	// Same token, new role.
	status, body = env.do(t, http.MethodGet, "/api/v1/admin", aliceToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "welcome, admin")

	status, body = env.do(t, http.MethodGet, "/api/v1/admin/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var users []models.User
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 2)
}

func TestUserComplaintsVisibility(t *testing.T) {
	env := setupApp(t)
	env.register(t, "alice", "529.982.247-25")
	env.register(t, "bob", "111.444.777-35")
	aliceToken := env.login(t, "alice@example.com", "password123")
	bobToken := env.login(t, "bob@example.com", "password123")
	adminToken := env.login(t, "admin@example.com", "admin123")

	complaint := env.createComplaint(t, aliceToken, map[string]interface{}{"title": "Calçada quebrada", "category": "infraestrutura"})
	path := "/api/v1/users/" + complaint.UserID + "/complaints"

	status, _ := env.do(t, http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodGet, path, adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var list []models.Complaint
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	status, _ = env.do(t, http.MethodPatch, "/api/v1/users/me", bobToken, map[string]string{"phone": "(21) 99765-4321"})
	assert.Equal(t, http.StatusOK, status)
}

func TestRootAndHealth(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"API running"}`, string(body))

	status, body = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"database":"connected"`)
}
