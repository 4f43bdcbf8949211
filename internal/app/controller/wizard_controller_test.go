package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/ikkim/dishshot-intake/internal/app/repository"
	"github.com/ikkim/dishshot-intake/internal/app/service"
	"github.com/ikkim/dishshot-intake/internal/db"
	apperrors "github.com/ikkim/dishshot-intake/internal/errors"
	"github.com/ikkim/dishshot-intake/internal/middleware"
	"github.com/ikkim/dishshot-intake/internal/session"
	"github.com/ikkim/dishshot-intake/internal/storage"
	"github.com/ikkim/dishshot-intake/internal/submission"
	"github.com/ikkim/dishshot-intake/internal/webhook"
	"github.com/ikkim/dishshot-intake/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type controllerDeps struct {
	router      *gin.Engine
	storage     *storage.MemoryStorage
	submissions repository.SubmissionRepository
}

func setupWizardControllerTest(t *testing.T, maxFileSize int64) *controllerDeps {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	deps := &controllerDeps{
		storage:     storage.NewMemoryStorage("https://cdn.test"),
		submissions: repository.NewSubmissionRepository(testDB),
	}
	orchestrator := submission.NewOrchestrator(
		deps.storage,
		repository.NewClientRepository(testDB),
		deps.submissions,
		webhook.NewClient("", time.Second),
		submission.NewLocalGuard(),
	)
	wizardService := service.NewWizardService(session.NewManager(), orchestrator, false)
	wizardCtrl := NewWizardController(wizardService)
	dishCtrl := NewDishController(wizardService, maxFileSize)
	authMiddleware := middleware.NewAuthMiddleware(testSecret)

	router := gin.New()
	sessions := router.Group("/sessions", authMiddleware.OptionalAuthenticate())
	sessions.POST("", wizardCtrl.StartSession)
	sessions.GET("/:id", wizardCtrl.GetSession)
	sessions.DELETE("/:id", wizardCtrl.DeleteSession)
	sessions.PATCH("/:id/form", wizardCtrl.UpdateForm)
	sessions.PUT("/:id/business-status", wizardCtrl.SetBusinessStatus)
	sessions.POST("/:id/next", wizardCtrl.Next)
	sessions.POST("/:id/goto/:step", wizardCtrl.Goto)
	sessions.GET("/:id/validate", wizardCtrl.Validate)
	sessions.POST("/:id/submit", wizardCtrl.Submit)
	sessions.GET("/:id/dishes/:dishId", dishCtrl.GetDish)
	sessions.PATCH("/:id/dishes/:dishId", dishCtrl.UpdateDish)
	sessions.PUT("/:id/dishes/:dishId/item-type", dishCtrl.SelectItemType)
	sessions.POST("/:id/dishes/:dishId/files/:kind", dishCtrl.AttachDishFiles)
	sessions.DELETE("/:id/dishes/:dishId/files/:kind/:index", dishCtrl.DetachDishFile)
	sessions.POST("/:id/files/:kind", dishCtrl.AttachFiles)
	deps.router = router
	return deps
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, header ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func jpegBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	img := imaging.New(4, 4, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

type upload struct {
	name        string
	contentType string
	data        []byte
}

func doUpload(t *testing.T, router *gin.Engine, path string, files ...upload) (*httptest.ResponseRecorder, map[string]interface{}) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FilesField, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w, response
}

func startSession(t *testing.T, router *gin.Engine, flow string) string {
	w, resp := doJSON(t, router, http.MethodPost, "/sessions", map[string]string{"flow": flow})
	require.Equal(t, http.StatusCreated, w.Code)
	return resp["session"].(map[string]interface{})["session_id"].(string)
}

func TestWizardController_StartSession(t *testing.T) {
	deps := setupWizardControllerTest(t, 1<<20)

	w, resp := doJSON(t, deps.router, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	state := resp["session"].(map[string]interface{})
	assert.Equal(t, "dishes", state["flow"])
	assert.Equal(t, float64(1), state["step"])

	w, resp = doJSON(t, deps.router, http.MethodPost, "/sessions", map[string]string{"flow": "catering"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.SessionUnknownFlow, resp["error"])
}

func TestWizardController_UnknownSession(t *testing.T) {
	deps := setupWizardControllerTest(t, 1<<20)

	w, resp := doJSON(t, deps.router, http.MethodGet, "/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.SessionNotFound, resp["error"])
}

func TestWizardController_UpdateFormRejectsUnknownFields(t *testing.T) {
	deps := setupWizardControllerTest(t, 1<<20)
	id := startSession(t, deps.router, "dishes")

	w, resp := doJSON(t, deps.router, http.MethodPatch, "/sessions/"+id+"/form", map[string]interface{}{
		"restaurantName": "Test Restaurant",
		"favoriteColor":  "blue",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ValidationInvalidInput, resp["error"])
	assert.Contains(t, resp["fields"], "favoriteColor")

	w, _ = doJSON(t, deps.router, http.MethodPatch, "/sessions/"+id+"/form", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWizardController_NextReportsStepErrors(t *testing.T) {
	deps := setupWizardControllerTest(t, 1<<20)
	id := startSession(t, deps.router, "dishes")

	w, resp := doJSON(t, deps.router, http.MethodPost, "/sessions/"+id+"/next", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.ValidationStepFailed, resp["error"])
	assert.Equal(t, float64(1), resp["step"])
	assert.Contains(t, resp["fields"], "restaurantName")
}

func TestWizardController_GotoUnknownStep(t *testing.T) {
	deps := setupWizardControllerTest(t, 1<<20)
	id := startSession(t, deps.router, "public")

	w, resp := doJSON(t, deps.router, http.MethodPost, "/sessions/"+id+"/goto/3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.SessionUnknownStep, resp["error"])

	w, _ = doJSON(t, deps.router, http.MethodPost, "/sessions/"+id+"/goto/two", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWizardController_UploadChecks(t *testing.T) {
	deps := setupWizardControllerTest(t, 1024)
	id := startSession(t, deps.router, "dishes")
	path := "/sessions/" + id + "/dishes/1/files/referenceImages"

	w, resp := doUpload(t, deps.router, path, upload{"menu.txt", "text/plain", []byte("hello")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.UploadInvalidFileType, resp["error"])

	w, resp = doUpload(t, deps.router, path, upload{"big.jpg", "image/jpeg", make([]byte, 2048)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, apperrors.UploadFileTooLarge, resp["error"])

	w, resp = doUpload(t, deps.router, path, upload{"fake.jpg", "image/jpeg", []byte("not an image")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.UploadUnreadableImage, resp["error"])

	w, resp = doUpload(t, deps.router, "/sessions/"+id+"/dishes/1/files/posters", upload{"a.jpg", "image/jpeg", jpegBytes(t)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.DishUnknownFileKind, resp["error"])

	w, _ = doUpload(t, deps.router, "/sessions/"+id+"/dishes/1/files/brandingMaterials", upload{"guide.pdf", "application/pdf", []byte("%PDF-1.4")})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, deps.router, http.MethodDelete, "/sessions/"+id+"/dishes/1/files/referenceImages/0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.DishFileNotFound, resp["error"])
}

func TestWizardController_SubmitDishes(t *testing.T) {
	deps := setupWizardControllerTest(t, 1<<20)
	token, err := util.GenerateToken("user-42", "owner@test.com", testSecret, time.Hour)
	require.NoError(t, err)

	w, resp := doJSON(t, deps.router, http.MethodPost, "/sessions", map[string]string{"flow": "dishes"}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code)
	base := "/sessions/" + resp["session"].(map[string]interface{})["session_id"].(string)

	w, _ = doJSON(t, deps.router, http.MethodPatch, base+"/form", map[string]interface{}{
		"restaurantName": "Test Restaurant",
		"submitterName":  "John",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, deps.router, http.MethodPut, base+"/business-status", map[string]bool{"isNewBusiness": false})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, deps.router, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, deps.router, http.MethodPatch, base+"/dishes/1", map[string]interface{}{
		"itemName":         "Pasta",
		"description":      "Hand rolled",
		"qualityConfirmed": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, deps.router, http.MethodPut, base+"/dishes/1/item-type", map[string]string{"value": "main"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, deps.router, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	img := jpegBytes(t)
	files := make([]upload, 4)
	for i := range files {
		files[i] = upload{fmt.Sprintf("pasta-%d.jpg", i), "image/jpeg", img}
	}
	w, _ = doUpload(t, deps.router, base+"/dishes/1/files/referenceImages", files...)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, deps.router, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.SessionNotAtReview, resp["error"])

	w, _ = doJSON(t, deps.router, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, deps.router, http.MethodGet, base+"/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["valid"])

	w, resp = doJSON(t, deps.router, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["submitted"])
	assert.Equal(t, SubmissionSuccessMessage, resp["message"])
	assert.Len(t, resp["submission_ids"], 1)

	keys := deps.storage.Keys()
	require.Len(t, keys, 4)
	for _, k := range keys {
		assert.Contains(t, k, "user-42/main/")
	}
}
