package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "recipebox/internal/log"
	"recipebox/internal/validation"
	"recipebox/models"
)

type renameAttributeRequest struct {
	Name string `json:"name" validate:"required,notblank,max=255"`
}

// attributeResource is the shared list/show/update/delete handler for the
// recipe attribute entities (tags and ingredients). The two entities have
// identical API behavior, so one handler is parameterized over the entity
// type, its join table, and its field accessors.
type attributeResource[T any] struct {
	noun       string // log and error messages, e.g. "tag"
	prefix     string // route prefix, e.g. "/api/tags"
	joinTable  string // many-to-many join table, e.g. "recipe_tags"
	joinColumn string // attribute column in the join table, e.g. "tag_id"
	idOf       func(*T) uint
	nameOf     func(*T) string
	rename     func(*T, string)
}

// TagResource handles REST-style interactions for tag records.
var TagResource = (&attributeResource[models.Tag]{
	noun:       "tag",
	prefix:     "/api/tags",
	joinTable:  "recipe_tags",
	joinColumn: "tag_id",
	idOf:       func(t *models.Tag) uint { return t.ID },
	nameOf:     func(t *models.Tag) string { return t.Name },
	rename:     func(t *models.Tag, name string) { t.Name = name },
}).handle

// IngredientResource handles REST-style interactions for ingredient records.
var IngredientResource = (&attributeResource[models.Ingredient]{
	noun:       "ingredient",
	prefix:     "/api/ingredients",
	joinTable:  "recipe_ingredients",
	joinColumn: "ingredient_id",
	idOf:       func(i *models.Ingredient) uint { return i.ID },
	nameOf:     func(i *models.Ingredient) string { return i.Name },
	rename:     func(i *models.Ingredient, name string) { i.Name = name },
}).handle

func (res *attributeResource[T]) handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if database == nil {
		applog.Debug(ctx, "attribute request without database", "noun", res.noun)
		writeJSONError(ctx, w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	userID, ok := currentUserID(r)
	if !ok {
		applog.Debug(ctx, "attribute request missing authenticated user", "noun", res.noun)
		writeJSONError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, res.prefix)
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method == http.MethodGet {
			res.list(w, r, userID)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	idValue, err := strconv.ParseUint(path, 10, 64)
	if err != nil {
		applog.Debug(ctx, "invalid attribute identifier", "noun", res.noun, "identifier", path, "error", err)
		notFound(ctx, w)
		return
	}
	attributeID := uint(idValue)

	switch r.Method {
	case http.MethodGet:
		res.show(w, r, attributeID, userID)
	case http.MethodPut, http.MethodPatch:
		res.update(w, r, attributeID, userID)
	case http.MethodDelete:
		res.delete(w, r, attributeID, userID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (res *attributeResource[T]) list(w http.ResponseWriter, r *http.Request, userID uint) {
	ctx := r.Context()

	query := database.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("name desc")

	if raw := strings.TrimSpace(r.URL.Query().Get("assigned_only")); raw != "" {
		assigned, err := strconv.ParseBool(raw)
		if err != nil {
			writeFieldErrors(ctx, w, map[string]string{"assigned_only": "must be 0 or 1"})
			return
		}
		if assigned {
			// A row assigned to several recipes still yields one entry; the
			// subquery filters rather than joins.
			query = query.Where(fmt.Sprintf("id IN (SELECT %s FROM %s)", res.joinColumn, res.joinTable))
		}
	}

	var rows []T
	if err := query.Find(&rows).Error; err != nil {
		applog.Error(ctx, "failed to list attributes", "noun", res.noun, "error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, fmt.Sprintf("unable to load %ss", res.noun))
		return
	}

	responses := make([]namedResource, 0, len(rows))
	for i := range rows {
		responses = append(responses, namedResource{ID: res.idOf(&rows[i]), Name: res.nameOf(&rows[i])})
	}
	writeJSON(ctx, w, http.StatusOK, responses)
}

func (res *attributeResource[T]) loadOwned(r *http.Request, attributeID, userID uint) (*T, error) {
	row := new(T)
	err := database.WithContext(r.Context()).Where("id = ? AND owner_id = ?", attributeID, userID).First(row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (res *attributeResource[T]) show(w http.ResponseWriter, r *http.Request, attributeID, userID uint) {
	ctx := r.Context()

	row, err := res.loadOwned(r, attributeID, userID)
	if err != nil {
		if isRecordNotFound(err) {
			notFound(ctx, w)
			return
		}
		applog.Error(ctx, "failed to load attribute", "noun", res.noun, "error", err, "id", attributeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, fmt.Sprintf("unable to load %s", res.noun))
		return
	}
	writeJSON(ctx, w, http.StatusOK, namedResource{ID: res.idOf(row), Name: res.nameOf(row)})
}

func (res *attributeResource[T]) update(w http.ResponseWriter, r *http.Request, attributeID, userID uint) {
	ctx := r.Context()

	row, err := res.loadOwned(r, attributeID, userID)
	if err != nil {
		if isRecordNotFound(err) {
			notFound(ctx, w)
			return
		}
		applog.Error(ctx, "failed to load attribute for update", "noun", res.noun, "error", err, "id", attributeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, fmt.Sprintf("unable to update %s", res.noun))
		return
	}

	var req renameAttributeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields, err := validation.Check(req); err != nil {
		applog.Error(ctx, "failed to validate attribute payload", "noun", res.noun, "error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, fmt.Sprintf("unable to update %s", res.noun))
		return
	} else if fields != nil {
		writeFieldErrors(ctx, w, fields)
		return
	}

	res.rename(row, strings.TrimSpace(req.Name))
	if err := database.WithContext(ctx).Save(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeFieldErrors(ctx, w, map[string]string{"name": fmt.Sprintf("a %s with this name already exists", res.noun)})
			return
		}
		applog.Error(ctx, "failed to update attribute", "noun", res.noun, "error", err, "id", attributeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, fmt.Sprintf("unable to update %s", res.noun))
		return
	}

	writeJSON(ctx, w, http.StatusOK, namedResource{ID: res.idOf(row), Name: res.nameOf(row)})
}

func (res *attributeResource[T]) delete(w http.ResponseWriter, r *http.Request, attributeID, userID uint) {
	ctx := r.Context()

	row, err := res.loadOwned(r, attributeID, userID)
	if err != nil {
		if isRecordNotFound(err) {
			notFound(ctx, w)
			return
		}
		applog.Error(ctx, "failed to load attribute for delete", "noun", res.noun, "error", err, "id", attributeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, fmt.Sprintf("unable to delete %s", res.noun))
		return
	}

	err = database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Drop the relation rows first so no recipe keeps a dangling link.
		query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", res.joinTable, res.joinColumn)
		if err := tx.Exec(query, attributeID).Error; err != nil {
			return err
		}
		return tx.Delete(row).Error
	})
	if err != nil {
		applog.Error(ctx, "failed to delete attribute", "noun", res.noun, "error", err, "id", attributeID)
		writeJSONError(ctx, w, http.StatusInternalServerError, fmt.Sprintf("unable to delete %s", res.noun))
		return
	}

	applog.Info(ctx, "attribute deleted", "noun", res.noun, "id", attributeID, "userID", userID)
	w.WriteHeader(http.StatusNoContent)
}
