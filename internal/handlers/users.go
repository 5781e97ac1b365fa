package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "recipebox/internal/log"
	"recipebox/internal/validation"
	"recipebox/models"
)

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"max=255"`
}

type tokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
}

type userResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func projectUser(user *models.User) userResponse {
	return userResponse{ID: user.ID, Email: user.Email, Name: user.Name}
}

// CreateUser registers a new account.
func CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if database == nil {
		applog.Debug(r.Context(), "user registration without database")
		writeJSONError(r.Context(), w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields, err := validation.Check(req); err != nil {
		applog.Error(r.Context(), "failed to validate registration payload", "error", err)
		writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to process registration")
		return
	} else if fields != nil {
		writeFieldErrors(r.Context(), w, fields)
		return
	}

	if _, err := findUserByEmail(r, req.Email); err == nil {
		applog.Debug(r.Context(), "registration attempted with existing email", "email", strings.ToLower(req.Email))
		writeFieldErrors(r.Context(), w, map[string]string{"email": "an account with this email already exists"})
		return
	} else if !isRecordNotFound(err) {
		applog.Error(r.Context(), "failed to check existing user", "error", err)
		writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to process registration")
		return
	}

	user, err := createUser(r, req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeFieldErrors(r.Context(), w, map[string]string{"email": "an account with this email already exists"})
			return
		}
		applog.Error(r.Context(), "failed to create user", "error", err)
		writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to process registration")
		return
	}

	applog.Info(r.Context(), "user registered", "userID", user.ID, "email", user.Email)
	writeJSON(r.Context(), w, http.StatusCreated, projectUser(user))
}

// Token exchanges credentials for an authenticated session.
func Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager == nil || database == nil {
		applog.Debug(r.Context(), "authentication dependencies unavailable",
			"hasSession", sessionManager != nil, "hasDatabase", database != nil)
		writeJSONError(r.Context(), w, http.StatusServiceUnavailable, "authentication not available")
		return
	}

	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields, err := validation.Check(req); err != nil {
		applog.Error(r.Context(), "failed to validate token payload", "error", err)
		writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to process sign-in")
		return
	} else if fields != nil {
		writeFieldErrors(r.Context(), w, fields)
		return
	}

	user, err := findUserByEmail(r, req.Email)
	if err != nil {
		if !isRecordNotFound(err) {
			applog.Error(r.Context(), "failed to load user during sign-in", "error", err)
		}
		writeJSONError(r.Context(), w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if !user.IsActive {
		applog.Debug(r.Context(), "sign-in attempted for inactive account", "userID", user.ID)
		writeJSONError(r.Context(), w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		applog.Debug(r.Context(), "sign-in with wrong password", "email", strings.ToLower(req.Email))
		writeJSONError(r.Context(), w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := establishSession(r, user); err != nil {
		applog.Error(r.Context(), "failed to establish session", "error", err)
		writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to process sign-in")
		return
	}

	applog.Info(r.Context(), "session established", "userID", user.ID)
	writeJSON(r.Context(), w, http.StatusOK, projectUser(user))
}

// Me serves the authenticated account profile and partial updates to it.
func Me(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(r.Context(), w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	userID, ok := currentUserID(r)
	if !ok {
		writeJSONError(r.Context(), w, http.StatusUnauthorized, "authentication required")
		return
	}

	user := &models.User{}
	if err := database.WithContext(r.Context()).First(user, userID).Error; err != nil {
		if isRecordNotFound(err) {
			notFound(r.Context(), w)
			return
		}
		applog.Error(r.Context(), "failed to load profile", "error", err)
		writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to load profile")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(r.Context(), w, http.StatusOK, projectUser(user))
	case http.MethodPatch, http.MethodPut:
		updateMe(w, r, user)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func updateMe(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields, err := validation.Check(req); err != nil {
		applog.Error(r.Context(), "failed to validate profile payload", "error", err)
		writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to update profile")
		return
	} else if fields != nil {
		writeFieldErrors(r.Context(), w, fields)
		return
	}

	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			applog.Error(r.Context(), "failed to hash password", "error", err)
			writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to update profile")
			return
		}
		user.PasswordHash = string(hashed)
	}

	if err := database.WithContext(r.Context()).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeFieldErrors(r.Context(), w, map[string]string{"email": "an account with this email already exists"})
			return
		}
		applog.Error(r.Context(), "failed to update profile", "error", err)
		writeJSONError(r.Context(), w, http.StatusInternalServerError, "unable to update profile")
		return
	}

	if sessionManager != nil {
		sessionManager.Put(r.Context(), sessionUserEmailKey, user.Email)
		sessionManager.Put(r.Context(), sessionUserNameKey, user.Name)
	}

	writeJSON(r.Context(), w, http.StatusOK, projectUser(user))
}

// Logout destroys the current session.
func Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if sessionManager != nil {
		if err := sessionManager.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func createUser(r *http.Request, email, name, password string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hashed),
		IsActive:     true,
	}

	if err := database.WithContext(r.Context()).Create(user).Error; err != nil {
		return nil, err
	}

	return user, nil
}

func findUserByEmail(r *http.Request, email string) (*models.User, error) {
	if database == nil {
		return nil, gorm.ErrInvalidDB
	}

	user := &models.User{}
	err := database.WithContext(r.Context()).Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(user).Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func establishSession(r *http.Request, user *models.User) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	if err := sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	sessionManager.Put(r.Context(), sessionAuthenticatedKey, true)
	sessionManager.Put(r.Context(), sessionUserIDKey, int(user.ID))
	sessionManager.Put(r.Context(), sessionUserEmailKey, user.Email)
	sessionManager.Put(r.Context(), sessionUserNameKey, user.Name)
	return nil
}
