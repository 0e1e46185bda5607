package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avelichko/studycheck/internal/auth"
	"github.com/avelichko/studycheck/internal/storage"
)

const passwordPolicyMessage = "Пароль должен содержать 6-14 символов, одну заглавную букву и одну цифру"

type userResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         userResponse `json:"user"`
}

func toUserResponse(u *storage.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// issueAndStore creates a token pair and persists the refresh token so it
// can be matched on /api/refresh and revoked on logout.
func (s *Server) issueAndStore(r *http.Request, u *storage.User) (auth.Pair, error) {
	pair, err := s.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return auth.Pair{}, err
	}
	if err := s.store.SetRefreshToken(r.Context(), u.ID, pair.RefreshToken); err != nil {
		return auth.Pair{}, err
	}
	return pair, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Некорректное тело запроса", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		jsonError(w, "Имя, фамилия и email обязательны", http.StatusBadRequest)
		return
	}
	if !validEmail(req.Email) {
		jsonError(w, "Некорректный email", http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		jsonError(w, passwordPolicyMessage, http.StatusBadRequest)
		return
	}

	if _, err := s.store.UserByEmail(r.Context(), req.Email); err == nil {
		jsonError(w, "Пользователь с таким email уже существует", http.StatusBadRequest)
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.log.Error("register: lookup user", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error("register: hash password", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	user := &storage.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		HashedPassword: hash,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.log.Error("register: create user", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	pair, err := s.issueAndStore(r, user)
	if err != nil {
		s.log.Error("register: issue tokens", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		User:         toUserResponse(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Некорректное тело запроса", http.StatusBadRequest)
		return
	}

	user, err := s.store.UserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil || auth.CheckPassword(user.HashedPassword, req.Password) != nil {
		s.metrics.RecordLogin("bad_credentials")
		jsonError(w, "Неверная почта или пароль", http.StatusUnauthorized)
		return
	}

	pair, err := s.issueAndStore(r, user)
	if err != nil {
		s.log.Error("login: issue tokens", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	s.metrics.RecordLogin("success")

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		User:         toUserResponse(user),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Некорректное тело запроса", http.StatusBadRequest)
		return
	}

	claims, err := s.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		jsonError(w, "Невалидный refresh token", http.StatusUnauthorized)
		return
	}

	// The token must also match the one stored for the user, so a single
	// logout invalidates all previously issued refresh tokens.
	user, err := s.store.UserByID(r.Context(), claims.UserID)
	if err != nil || user.RefreshToken != req.RefreshToken {
		jsonError(w, "Refresh token не найден или устарел", http.StatusUnauthorized)
		return
	}

	pair, err := s.issueAndStore(r, user)
	if err != nil {
		s.log.Error("refresh: issue tokens", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		User:         toUserResponse(user),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := s.store.SetRefreshToken(r.Context(), claims.UserID, ""); err != nil {
		s.log.Error("logout: revoke refresh token", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Успешный выход из системы"})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	user, err := s.store.UserByID(r.Context(), claims.UserID)
	if err != nil {
		jsonError(w, "Пользователь не найден", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	user, err := s.store.UserByID(r.Context(), claims.UserID)
	if err != nil {
		jsonError(w, "Пользователь не найден", http.StatusNotFound)
		return
	}

	var req struct {
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Email     *string `json:"email"`
		Password  *string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Некорректное тело запроса", http.StatusBadRequest)
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil && *req.Email != user.Email {
		newEmail := strings.TrimSpace(*req.Email)
		if !validEmail(newEmail) {
			jsonError(w, "Некорректный email", http.StatusBadRequest)
			return
		}
		if other, err := s.store.UserByEmail(r.Context(), newEmail); err == nil && other.ID != user.ID {
			jsonError(w, "Email уже используется", http.StatusBadRequest)
			return
		}
		user.Email = newEmail
	}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			jsonError(w, passwordPolicyMessage, http.StatusBadRequest)
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			s.log.Error("profile: hash password", "error", err)
			jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}
		user.HashedPassword = hash
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		s.log.Error("profile: update user", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	if err := s.store.DeleteUser(r.Context(), claims.UserID); err != nil {
		s.log.Error("profile: delete user", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Пользователь успешно удален"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	users, err := s.store.ListUsers(r.Context(), skip, limit)
	if err != nil {
		s.log.Error("users: list", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		jsonError(w, "Некорректный идентификатор пользователя", http.StatusBadRequest)
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Некорректное тело запроса", http.StatusBadRequest)
		return
	}
	if req.Role != storage.RoleStudent && req.Role != storage.RoleAdmin {
		jsonError(w, "Недопустимая роль", http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateUserRole(r.Context(), userID, req.Role); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, "Пользователь не найден", http.StatusNotFound)
			return
		}
		s.log.Error("users: update role", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Роль пользователя изменена на " + req.Role})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		jsonError(w, "Некорректный идентификатор пользователя", http.StatusBadRequest)
		return
	}
	if userID == claims.UserID {
		jsonError(w, "Нельзя удалить самого себя", http.StatusBadRequest)
		return
	}

	if _, err := s.store.UserByID(r.Context(), userID); err != nil {
		jsonError(w, "Пользователь не найден", http.StatusNotFound)
		return
	}
	if err := s.store.DeleteUser(r.Context(), userID); err != nil {
		s.log.Error("users: delete", "error", err)
		jsonError(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Пользователь успешно удален"})
}
