package controller

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/dishshot-intake/internal/app/service"
	apperrors "github.com/ikkim/dishshot-intake/internal/errors"
	"github.com/ikkim/dishshot-intake/internal/form"
	"github.com/ikkim/dishshot-intake/internal/middleware"
	"github.com/ikkim/dishshot-intake/internal/storage"
	"github.com/ikkim/dishshot-intake/internal/validation"
)

// FilesField is the multipart field that carries uploads.
const FilesField = "files"

type DishController struct {
	wizardService service.WizardService
	maxFileSize   int64
}

func NewDishController(wizardService service.WizardService, maxFileSize int64) *DishController {
	return &DishController{
		wizardService: wizardService,
		maxFileSize:   maxFileSize,
	}
}

type SelectItemTypeRequest struct {
	Value  string `json:"value" binding:"required"`
	Custom string `json:"customValue"`
}

// AddDish appends an empty dish
// POST /api/v1/sessions/:id/dishes
func (ctrl *DishController) AddDish(c *gin.Context) {
	dishID, state, err := ctrl.wizardService.AddDish(c.Param("id"))
	if err != nil {
		respondWithFailure(c, "Failed to add dish", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dish_id": dishID, "session": state})
}

// GetDish returns one dish
// GET /api/v1/sessions/:id/dishes/:dishId
func (ctrl *DishController) GetDish(c *gin.Context) {
	dish, err := ctrl.wizardService.GetDish(c.Param("id"), c.Param("dishId"))
	if err != nil {
		respondWithFailure(c, "Failed to get dish", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dish": dish})
}

// UpdateDish merges a partial dish
// PATCH /api/v1/sessions/:id/dishes/:dishId
func (ctrl *DishController) UpdateDish(c *gin.Context) {
	var patch form.DishPatch
	if !bindSchema(c, validation.DishPatchSchema, &patch) {
		return
	}

	state, err := ctrl.wizardService.UpdateDish(c.Param("id"), c.Param("dishId"), patch)
	if err != nil {
		respondWithFailure(c, "Failed to update dish", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// RemoveDish removes a dish unless it is the last one
// DELETE /api/v1/sessions/:id/dishes/:dishId
func (ctrl *DishController) RemoveDish(c *gin.Context) {
	state, err := ctrl.wizardService.RemoveDish(c.Param("id"), c.Param("dishId"))
	if err != nil {
		respondWithFailure(c, "Failed to remove dish", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// SelectItemType picks a predefined type or switches to a custom one with "other"
// PUT /api/v1/sessions/:id/dishes/:dishId/item-type
func (ctrl *DishController) SelectItemType(c *gin.Context) {
	var req SelectItemTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "value is required")
		return
	}

	state, err := ctrl.wizardService.SelectItemType(c.Param("id"), c.Param("dishId"), req.Value, req.Custom)
	if err != nil {
		respondWithFailure(c, "Failed to select item type", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// AttachDishFiles adds files to one of a dish's lists
// POST /api/v1/sessions/:id/dishes/:dishId/files/:kind
func (ctrl *DishController) AttachDishFiles(c *gin.Context) {
	ctrl.attach(c, c.Param("dishId"))
}

// AttachFiles adds files to one of the flat single-item lists
// POST /api/v1/sessions/:id/files/:kind
func (ctrl *DishController) AttachFiles(c *gin.Context) {
	ctrl.attach(c, "")
}

func (ctrl *DishController) attach(c *gin.Context, dishID string) {
	log := middleware.GetLoggerFromContext(c)
	kind := c.Param("kind")
	if !form.IsFileKind(kind) {
		apperrors.BadRequest(c, apperrors.DishUnknownFileKind, "Unknown file kind")
		return
	}

	mf, err := c.MultipartForm()
	if err != nil || len(mf.File[FilesField]) == 0 {
		apperrors.BadRequest(c, apperrors.UploadNoFiles, fmt.Sprintf("Attach at least one file in the %q field", FilesField))
		return
	}

	files := make([]form.File, 0, len(mf.File[FilesField]))
	for _, fh := range mf.File[FilesField] {
		f, err := ctrl.readFile(fh, kind)
		if err != nil {
			log.Warn("Rejected upload", map[string]interface{}{
				"session_id": c.Param("id"),
				"filename":   fh.Filename,
				"error":      err.Error(),
			})
			apperrors.ParseAndRespond(c, err)
			return
		}
		files = append(files, f)
	}

	state, err := ctrl.wizardService.AttachFiles(c.Param("id"), dishID, kind, files)
	if err != nil {
		respondWithFailure(c, "Failed to attach files", err)
		return
	}

	log.Info("Files attached", map[string]interface{}{
		"session_id": c.Param("id"),
		"dish_id":    dishID,
		"kind":       kind,
		"count":      len(files),
	})
	c.JSON(http.StatusOK, gin.H{"session": state})
}

// readFile checks size, content type and that images decode.
func (ctrl *DishController) readFile(fh *multipart.FileHeader, kind string) (form.File, error) {
	if err := storage.ValidateFileSize(fh.Size, ctrl.maxFileSize); err != nil {
		return form.File{}, err
	}

	contentType := fh.Header.Get("Content-Type")
	allowed := storage.AllowedImageTypes
	if kind == form.KindBrandingMaterials {
		allowed = storage.AllowedBrandingTypes
	}
	if err := storage.ValidateContentType(contentType, allowed); err != nil {
		return form.File{}, err
	}

	src, err := fh.Open()
	if err != nil {
		return form.File{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, ctrl.maxFileSize+1))
	if err != nil {
		return form.File{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := storage.ValidateFileSize(int64(len(data)), ctrl.maxFileSize); err != nil {
		return form.File{}, err
	}
	if _, _, err := storage.InspectImage(contentType, data); err != nil {
		return form.File{}, err
	}

	return form.File{
		Name:        fh.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

// DetachDishFile removes one file from a dish's list
// DELETE /api/v1/sessions/:id/dishes/:dishId/files/:kind/:index
func (ctrl *DishController) DetachDishFile(c *gin.Context) {
	ctrl.detach(c, c.Param("dishId"))
}

// DetachFile removes one file from a flat list
// DELETE /api/v1/sessions/:id/files/:kind/:index
func (ctrl *DishController) DetachFile(c *gin.Context) {
	ctrl.detach(c, "")
}

func (ctrl *DishController) detach(c *gin.Context, dishID string) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid file index")
		return
	}

	state, err := ctrl.wizardService.DetachFile(c.Param("id"), dishID, c.Param("kind"), index)
	if err != nil {
		respondWithFailure(c, "Failed to detach file", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": state})
}
