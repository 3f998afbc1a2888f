package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filevault/internal/http/middleware"
	"filevault/internal/model"
	"filevault/internal/service"
	serviceMocks "filevault/internal/service/mocks"
	"filevault/internal/session"
)

// newTestApp wires all routes over mocked services, the way main does it.
func newTestApp(t *testing.T, authSvc service.AuthService, fileSvc service.FileService, statsSvc service.StatsService) *fiber.App {
	t.Helper()
	db, _, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, db, nil, authSvc, fileSvc, statsSvc)
	return app
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/status", Status(db, session.NewMemoryStore()))

	dbMock.ExpectPing().WillReturnError(nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	json.NewDecoder(resp.Body).Decode(&body)
	assert.True(t, body["redis"])
	assert.True(t, body["db"])
}

func TestStats(t *testing.T) {
	statsSvc := new(serviceMocks.MockStatsService)
	statsSvc.On("Stats", mock.Anything).
		Return(&service.StatsResult{Users: 12, Files: 1231}, nil)

	app := fiber.New()
	app.Get("/stats", Stats(statsSvc))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]int
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, 12, body["users"])
	assert.Equal(t, 1231, body["files"])
}

func TestRegisterUser(t *testing.T) {
	t.Run("creates an account", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Register", mock.Anything, "bob@dylan.com", "toto1234!").
			Return(&model.User{ID: "user-1", Email: "bob@dylan.com"}, nil)

		app := newTestApp(t, authSvc, nil, nil)

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/users",
			fiber.Map{"email": "bob@dylan.com", "password": "toto1234!"}))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "user-1", body["id"])
		assert.Equal(t, "bob@dylan.com", body["email"])
		authSvc.AssertExpectations(t)
	})

	t.Run("missing email yields its specific code", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Register", mock.Anything, "", "toto1234!").
			Return(nil, service.ErrMissingEmail)

		app := newTestApp(t, authSvc, nil, nil)

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/users",
			fiber.Map{"password": "toto1234!"}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "MISSING_EMAIL", body.Error.Code)
	})

	t.Run("taken email yields ALREADY_EXISTS", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Register", mock.Anything, "bob@dylan.com", "toto1234!").
			Return(nil, service.ErrAlreadyExists)

		app := newTestApp(t, authSvc, nil, nil)

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/users",
			fiber.Map{"email": "bob@dylan.com", "password": "toto1234!"}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "ALREADY_EXISTS", body.Error.Code)
	})
}

func TestConnect(t *testing.T) {
	basic := func(email, password string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
	}

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Authenticate", mock.Anything, "bob@dylan.com", "toto1234!").
			Return("tok-1", nil)

		app := newTestApp(t, authSvc, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/connect", nil)
		req.Header.Set(fiber.HeaderAuthorization, basic("bob@dylan.com", "toto1234!"))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "tok-1", body["token"])
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		app := newTestApp(t, new(serviceMocks.MockAuthService), nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/connect", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	})

	t.Run("malformed base64 is unauthorized", func(t *testing.T) {
		app := newTestApp(t, new(serviceMocks.MockAuthService), nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/connect", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Basic %%%")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong credentials are unauthorized", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Authenticate", mock.Anything, "bob@dylan.com", "nope").
			Return("", service.ErrUnauthorized)

		app := newTestApp(t, authSvc, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/connect", nil)
		req.Header.Set(fiber.HeaderAuthorization, basic("bob@dylan.com", "nope"))
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestDisconnect(t *testing.T) {
	t.Run("revokes the session", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Logout", mock.Anything, "tok-1").Return(nil)

		app := newTestApp(t, authSvc, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/disconnect", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Logout", mock.Anything, "stale").Return(service.ErrUnauthorized)

		app := newTestApp(t, authSvc, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/disconnect", nil)
		req.Header.Set(middleware.TokenHeader, "stale")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCurrentUser(t *testing.T) {
	t.Run("returns the account behind the token", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Resolve", mock.Anything, "tok-1").Return("user-1", nil)
		authSvc.On("Me", mock.Anything, "user-1").
			Return(&model.User{ID: "user-1", Email: "bob@dylan.com"}, nil)

		app := newTestApp(t, authSvc, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "bob@dylan.com", body["email"])
	})

	t.Run("no token is unauthorized", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Resolve", mock.Anything, "").Return("", service.ErrUnauthorized)

		app := newTestApp(t, authSvc, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	})
}

// authedServices returns an auth mock that resolves tok-1 to user-1.
func authedServices() *serviceMocks.MockAuthService {
	authSvc := new(serviceMocks.MockAuthService)
	authSvc.On("Resolve", mock.Anything, "tok-1").Return("user-1", nil)
	return authSvc
}

func TestCreateFile(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte("Hello Webstack!"))

	t.Run("creates a file for the caller", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("Create", mock.Anything, "user-1", service.CreateFileInput{
			Name: "myText.txt",
			Type: model.TypeFile,
			Data: data,
		}).Return(&model.File{ID: "file-1", UserID: "user-1", Name: "myText.txt", Type: model.TypeFile}, nil)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := jsonRequest(http.MethodPost, "/files",
			fiber.Map{"name": "myText.txt", "type": "file", "data": data})
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body model.File
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "file-1", body.ID)
		fileSvc.AssertExpectations(t)
	})

	t.Run("requires a session", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		authSvc.On("Resolve", mock.Anything, "").Return("", service.ErrUnauthorized)

		app := newTestApp(t, authSvc, new(serviceMocks.MockFileService), nil)

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/files",
			fiber.Map{"name": "x.txt", "type": "file", "data": data}))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("validation failures map to specific codes", func(t *testing.T) {
		cases := []struct {
			name     string
			svcErr   error
			wantCode string
		}{
			{"missing name", service.ErrMissingName, "MISSING_NAME"},
			{"invalid type", service.ErrInvalidType, "INVALID_TYPE"},
			{"missing data", service.ErrMissingData, "MISSING_DATA"},
			{"parent not found", service.ErrParentNotFound, "PARENT_NOT_FOUND"},
			{"parent not a folder", service.ErrParentNotFolder, "PARENT_NOT_FOLDER"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				fileSvc := new(serviceMocks.MockFileService)
				fileSvc.On("Create", mock.Anything, "user-1", mock.Anything).
					Return(nil, tc.svcErr)

				app := newTestApp(t, authedServices(), fileSvc, nil)

				req := jsonRequest(http.MethodPost, "/files", fiber.Map{"name": "x"})
				req.Header.Set(middleware.TokenHeader, "tok-1")
				resp, _ := app.Test(req)

				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

				var body errorPayload
				json.NewDecoder(resp.Body).Decode(&body)
				assert.Equal(t, tc.wantCode, body.Error.Code)
			})
		}
	})
}

func TestListFiles(t *testing.T) {
	t.Run("defaults to root and page zero", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("List", mock.Anything, "user-1", "0", 0).
			Return([]model.File{{ID: "f-1"}, {ID: "f-2"}}, nil)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/files", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body []model.File
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Len(t, body, 2)
	})

	t.Run("passes parentId and page through", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("List", mock.Anything, "user-1", "dir-1", 2).
			Return([]model.File{}, nil)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/files?parentId=dir-1&page=2", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body []model.File
		json.NewDecoder(resp.Body).Decode(&body)
		assert.NotNil(t, body)
		assert.Empty(t, body)
	})

	t.Run("rejects a non-numeric page", func(t *testing.T) {
		app := newTestApp(t, authedServices(), new(serviceMocks.MockFileService), nil)

		req := httptest.NewRequest(http.MethodGet, "/files?page=abc", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_PAGE", body.Error.Code)
	})
}

func TestShowFile(t *testing.T) {
	t.Run("returns a visible record", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("Show", mock.Anything, "user-1", "file-1").
			Return(&model.File{ID: "file-1", Name: "x.txt"}, nil)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/files/file-1", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("invisible records read as absent", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("Show", mock.Anything, "user-1", "secret").
			Return(nil, service.ErrNotFound)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/files/secret", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestSetFileVisibility(t *testing.T) {
	t.Run("publish flips the flag on", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("SetVisibility", mock.Anything, "user-1", "file-1", true).
			Return(&model.File{ID: "file-1", IsPublic: true}, nil)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodPut, "/files/file-1/publish", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body model.File
		json.NewDecoder(resp.Body).Decode(&body)
		assert.True(t, body.IsPublic)
	})

	t.Run("unpublish flips the flag off", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("SetVisibility", mock.Anything, "user-1", "file-1", false).
			Return(&model.File{ID: "file-1", IsPublic: false}, nil)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodPut, "/files/file-1/unpublish", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body model.File
		json.NewDecoder(resp.Body).Decode(&body)
		assert.False(t, body.IsPublic)
	})

	t.Run("someone else's record reads as absent", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("SetVisibility", mock.Anything, "user-1", "other", true).
			Return(nil, service.ErrNotFound)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodPut, "/files/other/publish", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDownloadFile(t *testing.T) {
	t.Run("streams content with the derived type", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("Download", mock.Anything, "user-1", "file-1", 0).
			Return(&service.DownloadResult{
				Content:     io.NopCloser(strings.NewReader("Hello Webstack!")),
				ContentType: "text/plain; charset=utf-8",
				Size:        15,
			}, nil)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/files/file-1/data", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "Hello Webstack!", string(body))
	})

	t.Run("anonymous download of public content", func(t *testing.T) {
		authSvc := new(serviceMocks.MockAuthService)
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("Download", mock.Anything, "", "pub-1", 0).
			Return(&service.DownloadResult{
				Content:     io.NopCloser(strings.NewReader("text")),
				ContentType: "text/plain; charset=utf-8",
				Size:        4,
			}, nil)

		app := newTestApp(t, authSvc, fileSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/files/pub-1/data", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("size query selects a rendition", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("Download", mock.Anything, "user-1", "img-1", 250).
			Return(&service.DownloadResult{
				Content:     io.NopCloser(strings.NewReader("png")),
				ContentType: "image/png",
				Size:        3,
			}, nil)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/files/img-1/data?size=250", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unsupported size is rejected", func(t *testing.T) {
		app := newTestApp(t, authedServices(), new(serviceMocks.MockFileService), nil)

		req := httptest.NewRequest(http.MethodGet, "/files/img-1/data?size=123", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_SIZE", body.Error.Code)
	})

	t.Run("folders have no download body", func(t *testing.T) {
		fileSvc := new(serviceMocks.MockFileService)
		fileSvc.On("Download", mock.Anything, "user-1", "dir-1", 0).
			Return(nil, service.ErrFolderNoContent)

		app := newTestApp(t, authedServices(), fileSvc, nil)

		req := httptest.NewRequest(http.MethodGet, "/files/dir-1/data", nil)
		req.Header.Set(middleware.TokenHeader, "tok-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FOLDER_NO_CONTENT", body.Error.Code)
	})
}
