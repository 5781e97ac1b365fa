package handlers

import (
	"errors"
	"net/http"

	applog "recipebox/internal/log"
	"recipebox/internal/media"
)

// maxImageBytes bounds a single image upload.
const maxImageBytes = 10 << 20

type recipeImageResponse struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

// uploadRecipeImage attaches an uploaded image to an owned recipe. The
// payload must decode as an image before anything is persisted; a prior
// image is superseded and its file removed.
func uploadRecipeImage(w http.ResponseWriter, r *http.Request, recipeID, userID uint) {
	ctx := r.Context()

	if mediaStore == nil {
		applog.Debug(ctx, "image upload without media store")
		writeJSONError(ctx, w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	recipe, err := loadOwnedRecipe(ctx, recipeID, userID, false)
	if err != nil {
		if isRecordNotFound(err) {
			notFound(ctx, w)
			return
		}
		applog.Error(ctx, "failed to load recipe for image upload", "error", err, "recipeID", recipeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to upload image")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		applog.Debug(ctx, "failed to parse multipart form", "error", err)
		writeFieldErrors(ctx, w, map[string]string{"image": "a multipart image field is required"})
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		applog.Debug(ctx, "image field missing from upload", "error", err)
		writeFieldErrors(ctx, w, map[string]string{"image": "a multipart image field is required"})
		return
	}
	defer file.Close()

	ref, err := mediaStore.Save(ctx, file)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			writeFieldErrors(ctx, w, map[string]string{"image": "payload is not a valid image"})
			return
		}
		applog.Error(ctx, "failed to store image", "error", err, "recipeID", recipeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to upload image")
		return
	}

	previous := recipe.Image
	if err := database.WithContext(ctx).Model(recipe).Update("image", ref).Error; err != nil {
		applog.Error(ctx, "failed to persist image reference", "error", err, "recipeID", recipeID)
		if removeErr := mediaStore.Remove(ref); removeErr != nil {
			applog.Error(ctx, "failed to clean up orphaned image", "error", removeErr, "ref", ref)
		}
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to upload image")
		return
	}

	if previous != "" {
		if err := mediaStore.Remove(previous); err != nil {
			applog.Warn(ctx, "failed to remove superseded image", "error", err, "ref", previous)
		}
	}

	applog.Info(ctx, "recipe image stored", "recipeID", recipeID, "ref", ref)
	writeJSON(ctx, w, http.StatusOK, recipeImageResponse{ID: recipe.ID, Image: ref})
}
