package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cookie-cutter-backend/internal/apperr"
	"cookie-cutter-backend/internal/engine"
	"cookie-cutter-backend/internal/models"
)

// BlobStore is the slice of the storage client the handlers depend on.
type BlobStore interface {
	Upload(orderID, itemID uuid.UUID, kind models.ImageKind, filename string, data []byte) (models.FileRef, error)
	Delete(key string) error
	DeleteOrderFiles(orderID uuid.UUID) error
}

type ImagesHandler struct {
	engine        *engine.Engine
	storageClient BlobStore
}

func NewImagesHandler(eng *engine.Engine, storageClient BlobStore) *ImagesHandler {
	return &ImagesHandler{
		engine:        eng,
		storageClient: storageClient,
	}
}

// Upload godoc
// @Summary     Upload files to an item
// @Description Uploads one or more files of the given kind (inspiration, preview, stl) to an item. Files are processed sequentially and independently: a failing file does not cancel the rest, and per-file errors are reported alongside the successes.
// @Tags        images
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       item_id path string true "Item ID (UUID)"
// @Param       kind path string true "File kind" Enums(inspiration, preview, stl)
// @Param       files formData file true "Files (multiple allowed)"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id}/items/{item_id}/images/{kind} [post]
func (h *ImagesHandler) Upload(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "item_id")
	if !ok {
		return
	}

	kind := models.ImageKind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid file kind",
			Message: "kind must be inspiration, preview, or stl",
		})
		return
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}
	form := c.Request.MultipartForm
	if form == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: "multipart form is nil",
		})
		return
	}

	var files []*multipart.FileHeader
	fieldNames := []string{"files", "file", "images", "image"}
	for _, fieldName := range fieldNames {
		if f := form.File[fieldName]; len(f) > 0 {
			files = f
			break
		}
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "no files uploaded",
			Message: fmt.Sprintf("please provide files with one of these field names: %v", fieldNames),
		})
		return
	}

	var (
		uploaded       []models.FileInfo
		uploadErrors   []models.UploadErrorInfo
		order          *models.Order
		firstAttachErr error
	)
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			uploadErrors = append(uploadErrors, models.UploadErrorInfo{
				Filename: file.Filename,
				Error:    fmt.Sprintf("failed to open file: %v", err),
				Stage:    "file_open",
			})
			continue
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			uploadErrors = append(uploadErrors, models.UploadErrorInfo{
				Filename: file.Filename,
				Error:    fmt.Sprintf("failed to read file data: %v", err),
				Stage:    "file_read",
			})
			continue
		}

		ref, err := h.storageClient.Upload(orderID, itemID, kind, file.Filename, data)
		if err != nil {
			uploadErrors = append(uploadErrors, models.UploadErrorInfo{
				Filename: file.Filename,
				Error:    fmt.Sprintf("failed to store file: %v", err),
				Stage:    "storage",
			})
			continue
		}
		updated, err := h.engine.AddFile(c.Request.Context(), actor, orderID, itemID, kind, ref)
		if err != nil {
			if firstAttachErr == nil {
				firstAttachErr = err
			}
			// The blob exists but the aggregate rejected it; clean up so
			// storage does not accumulate orphans.
			if delErr := h.storageClient.Delete(ref.Key); delErr != nil {
				log.Printf("Warning: failed to remove orphaned blob %s: %v", ref.Key, delErr)
			}
			uploadErrors = append(uploadErrors, models.UploadErrorInfo{
				Filename: file.Filename,
				Error:    err.Error(),
				Stage:    "attach",
			})
			continue
		}

		order = updated
		uploaded = append(uploaded, models.FileInfo{
			Filename: file.Filename,
			Size:     file.Size,
			Key:      ref.Key,
			URL:      ref.URL,
		})
	}

	if len(uploaded) == 0 {
		// Surface the first attach failure's classification when nothing
		// landed; file and storage failures are internal faults.
		status := http.StatusInternalServerError
		if firstAttachErr != nil {
			status = apperr.HTTPStatus(firstAttachErr)
		}
		c.JSON(status, models.ErrorResponse{
			Error:   "failed to upload files",
			Message: fmt.Sprintf("%v", uploadErrors),
		})
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Order:  order,
		Files:  uploaded,
		Errors: uploadErrors,
	})
}

// DeleteImage godoc
// @Summary     Delete a file from an item
// @Description Removes the file reference from the item and the blob from storage. Unknown keys return NOT_FOUND.
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       item_id path string true "Item ID (UUID)"
// @Param       kind path string true "File kind" Enums(inspiration, preview, stl)
// @Param       key path string true "Storage key"
// @Success     200 {object} models.Order
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id}/items/{item_id}/images/{kind}/{key} [delete]
func (h *ImagesHandler) DeleteImage(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "item_id")
	if !ok {
		return
	}

	kind := models.ImageKind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid file kind",
			Message: "kind must be inspiration, preview, or stl",
		})
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing file key"})
		return
	}

	order, err := h.engine.DeleteFile(c.Request.Context(), actor, orderID, itemID, kind, key)
	if err != nil {
		respondError(c, err)
		return
	}

	// The authoritative reference is gone; blob removal is best-effort.
	if err := h.storageClient.Delete(key); err != nil {
		log.Printf("Warning: failed to delete blob %s: %v", key, err)
	}

	c.JSON(http.StatusOK, order)
}
