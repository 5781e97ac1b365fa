package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"recipebox/internal/catalog"
	applog "recipebox/internal/log"
	"recipebox/internal/validation"
	"recipebox/models"
)

type namedResource struct {
	ID   uint   `json:"id"`
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// recipeResponse is the summary projection used by the list endpoint.
type recipeResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       float64         `json:"price"`
	Link        string          `json:"link"`
	Tags        []namedResource `json:"tags"`
	Ingredients []namedResource `json:"ingredients"`
}

// recipeDetailResponse extends the summary with the fields only the detail
// endpoints return.
type recipeDetailResponse struct {
	recipeResponse
	Description string `json:"description"`
	Image       string `json:"image"`
}

type recipeCreateRequest struct {
	Title       string          `json:"title" validate:"required,notblank,max=255"`
	TimeMinutes int             `json:"time_minutes" validate:"gte=0"`
	Price       float64         `json:"price" validate:"gte=0"`
	Link        string          `json:"link" validate:"omitempty,max=255"`
	Description string          `json:"description"`
	Tags        []namedResource `json:"tags" validate:"omitempty,dive"`
	Ingredients []namedResource `json:"ingredients" validate:"omitempty,dive"`
}

// recipeUpdateRequest uses pointer fields so an absent key can be told apart
// from an explicit empty value. A present tags/ingredients key, even an empty
// list, replaces that relation set; an absent key leaves it untouched.
type recipeUpdateRequest struct {
	Title       *string          `json:"title" validate:"omitempty,notblank,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitempty,gte=0"`
	Price       *float64         `json:"price" validate:"omitempty,gte=0"`
	Link        *string          `json:"link" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	Tags        *[]namedResource `json:"tags" validate:"omitempty,dive"`
	Ingredients *[]namedResource `json:"ingredients" validate:"omitempty,dive"`
}

func projectTags(tags []models.Tag) []namedResource {
	out := make([]namedResource, 0, len(tags))
	for _, tag := range tags {
		out = append(out, namedResource{ID: tag.ID, Name: tag.Name})
	}
	return out
}

func projectIngredients(ingredients []models.Ingredient) []namedResource {
	out := make([]namedResource, 0, len(ingredients))
	for _, ingredient := range ingredients {
		out = append(out, namedResource{ID: ingredient.ID, Name: ingredient.Name})
	}
	return out
}

func projectRecipe(recipe models.Recipe) recipeResponse {
	return recipeResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Tags:        projectTags(recipe.Tags),
		Ingredients: projectIngredients(recipe.Ingredients),
	}
}

func projectRecipeDetail(recipe models.Recipe) recipeDetailResponse {
	return recipeDetailResponse{
		recipeResponse: projectRecipe(recipe),
		Description:    recipe.Description,
		Image:          recipe.Image,
	}
}

// RecipeResource handles REST-style interactions for recipe records.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if database == nil {
		applog.Debug(ctx, "recipe request without database")
		writeJSONError(ctx, w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(ctx, "recipe request missing authenticated user")
		writeJSONError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/recipes")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			listRecipes(w, r, userID)
		case http.MethodPost:
			createRecipe(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	segments := strings.Split(path, "/")
	idValue, err := strconv.ParseUint(segments[0], 10, 64)
	if err != nil {
		applog.Debug(ctx, "invalid recipe identifier", "identifier", segments[0], "error", err)
		notFound(ctx, w)
		return
	}
	recipeID := uint(idValue)

	if len(segments) > 1 {
		if segments[1] == "image" && len(segments) == 2 {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			uploadRecipeImage(w, r, recipeID, userID)
			return
		}
		notFound(ctx, w)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showRecipe(w, r, recipeID, userID)
	case http.MethodPut, http.MethodPatch:
		updateRecipe(w, r, recipeID, userID)
	case http.MethodDelete:
		deleteRecipe(w, r, recipeID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// loadOwnedRecipe fetches a recipe scoped to its owner. Rows owned by other
// users are indistinguishable from missing ones.
func loadOwnedRecipe(ctx context.Context, recipeID, userID uint, preload bool) (*models.Recipe, error) {
	query := database.WithContext(ctx)
	if preload {
		query = query.Preload("Tags").Preload("Ingredients")
	}
	recipe := &models.Recipe{}
	err := query.Where("id = ? AND owner_id = ?", recipeID, userID).First(recipe).Error
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func listRecipes(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	query := database.WithContext(ctx).
		Preload("Tags").
		Preload("Ingredients").
		Where("owner_id = ?", userID).
		Order("id desc")

	if raw := strings.TrimSpace(r.URL.Query().Get("tags")); raw != "" {
		ids, ok := parseIDList(raw)
		if !ok {
			writeFieldErrors(ctx, w, map[string]string{"tags": "must be a comma-separated list of ids"})
			return
		}
		query = query.Where("id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN ?)", ids)
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("ingredients")); raw != "" {
		ids, ok := parseIDList(raw)
		if !ok {
			writeFieldErrors(ctx, w, map[string]string{"ingredients": "must be a comma-separated list of ids"})
			return
		}
		query = query.Where("id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN ?)", ids)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		applog.Error(ctx, "failed to list recipes", "error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to load recipes")
		return
	}

	responses := make([]recipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, projectRecipe(recipe))
	}
	writeJSON(ctx, w, http.StatusOK, responses)
}

func createRecipe(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	var req recipeCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields, err := validation.Check(req); err != nil {
		applog.Error(ctx, "failed to validate recipe payload", "error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to create recipe")
		return
	} else if fields != nil {
		writeFieldErrors(ctx, w, fields)
		return
	}

	recipe := models.Recipe{
		OwnerID:     userID,
		Title:       strings.TrimSpace(req.Title),
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        strings.TrimSpace(req.Link),
		Description: req.Description,
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}

		tags, err := resolveTags(ctx, tx, userID, req.Tags)
		if err != nil {
			return err
		}
		if len(tags) > 0 {
			if err := tx.Model(&recipe).Association("Tags").Append(&tags); err != nil {
				return err
			}
		}
		recipe.Tags = tags

		ingredients, err := resolveIngredients(ctx, tx, userID, req.Ingredients)
		if err != nil {
			return err
		}
		if len(ingredients) > 0 {
			if err := tx.Model(&recipe).Association("Ingredients").Append(&ingredients); err != nil {
				return err
			}
		}
		recipe.Ingredients = ingredients

		return nil
	})
	if err != nil {
		applog.Error(ctx, "failed to create recipe", "error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to create recipe")
		return
	}

	applog.Info(ctx, "recipe created", "recipeID", recipe.ID, "userID", userID,
		"tags", len(recipe.Tags), "ingredients", len(recipe.Ingredients))
	writeJSON(ctx, w, http.StatusCreated, projectRecipeDetail(recipe))
}

func showRecipe(w http.ResponseWriter, r *http.Request, recipeID, userID uint) {
	ctx := r.Context()

	recipe, err := loadOwnedRecipe(ctx, recipeID, userID, true)
	if err != nil {
		if isRecordNotFound(err) {
			notFound(ctx, w)
			return
		}
		applog.Error(ctx, "failed to load recipe", "error", err, "recipeID", recipeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to load recipe")
		return
	}

	writeJSON(ctx, w, http.StatusOK, projectRecipeDetail(*recipe))
}

func updateRecipe(w http.ResponseWriter, r *http.Request, recipeID, userID uint) {
	ctx := r.Context()

	recipe, err := loadOwnedRecipe(ctx, recipeID, userID, true)
	if err != nil {
		if isRecordNotFound(err) {
			notFound(ctx, w)
			return
		}
		applog.Error(ctx, "failed to load recipe for update", "error", err, "recipeID", recipeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to update recipe")
		return
	}

	var req recipeUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields, err := validation.Check(req); err != nil {
		applog.Error(ctx, "failed to validate recipe payload", "error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to update recipe")
		return
	} else if fields != nil {
		writeFieldErrors(ctx, w, fields)
		return
	}

	// Scalars are applied by assignment; the owner is never client-writable
	// and unknown payload keys are dropped during decoding.
	if req.Title != nil {
		recipe.Title = strings.TrimSpace(*req.Title)
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		recipe.Price = *req.Price
	}
	if req.Link != nil {
		recipe.Link = strings.TrimSpace(*req.Link)
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Save(recipe).Error; err != nil {
			return err
		}

		if req.Tags != nil {
			if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
				return err
			}
			tags, err := resolveTags(ctx, tx, userID, *req.Tags)
			if err != nil {
				return err
			}
			if len(tags) > 0 {
				if err := tx.Model(recipe).Association("Tags").Append(&tags); err != nil {
					return err
				}
			}
			recipe.Tags = tags
		}

		if req.Ingredients != nil {
			if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
				return err
			}
			ingredients, err := resolveIngredients(ctx, tx, userID, *req.Ingredients)
			if err != nil {
				return err
			}
			if len(ingredients) > 0 {
				if err := tx.Model(recipe).Association("Ingredients").Append(&ingredients); err != nil {
					return err
				}
			}
			recipe.Ingredients = ingredients
		}

		return nil
	})
	if err != nil {
		applog.Error(ctx, "failed to update recipe", "error", err, "recipeID", recipeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to update recipe")
		return
	}

	writeJSON(ctx, w, http.StatusOK, projectRecipeDetail(*recipe))
}

func deleteRecipe(w http.ResponseWriter, r *http.Request, recipeID, userID uint) {
	ctx := r.Context()

	recipe, err := loadOwnedRecipe(ctx, recipeID, userID, false)
	if err != nil {
		if isRecordNotFound(err) {
			notFound(ctx, w)
			return
		}
		applog.Error(ctx, "failed to load recipe for delete", "error", err, "recipeID", recipeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to delete recipe")
		return
	}

	// Only the join rows cascade; tag and ingredient rows stay available to
	// the owner's other recipes.
	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete recipe", "error", err, "recipeID", recipeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, "unable to delete recipe")
		return
	}

	applog.Info(ctx, "recipe deleted", "recipeID", recipeID, "userID", userID)
	w.WriteHeader(http.StatusNoContent)
}

// resolveTags turns named tag references into persisted rows via
// get-or-create, collapsing duplicate names to a single relation.
func resolveTags(ctx context.Context, tx *gorm.DB, userID uint, refs []namedResource) ([]models.Tag, error) {
	seen := make(map[uint]struct{}, len(refs))
	out := make([]models.Tag, 0, len(refs))
	for _, ref := range refs {
		tag, err := catalog.GetOrCreateTag(ctx, tx, userID, ref.Name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[tag.ID]; dup {
			continue
		}
		seen[tag.ID] = struct{}{}
		out = append(out, *tag)
	}
	return out, nil
}

func resolveIngredients(ctx context.Context, tx *gorm.DB, userID uint, refs []namedResource) ([]models.Ingredient, error) {
	seen := make(map[uint]struct{}, len(refs))
	out := make([]models.Ingredient, 0, len(refs))
	for _, ref := range refs {
		ingredient, err := catalog.GetOrCreateIngredient(ctx, tx, userID, ref.Name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[ingredient.ID]; dup {
			continue
		}
		seen[ingredient.ID] = struct{}{}
		out = append(out, *ingredient)
	}
	return out, nil
}

// parseIDList parses a comma-separated list of positive integer ids.
func parseIDList(raw string) ([]uint, bool) {
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		value, err := strconv.ParseUint(trimmed, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, uint(value))
	}
	if len(ids) == 0 {
		return nil, false
	}
	return ids, true
}
