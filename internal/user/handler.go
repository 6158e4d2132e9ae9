package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	ratingentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/entity"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/social"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/token"
)

const maxBodyBytes = 1 << 20

// Handler exposes the identity operations over HTTP.
type Handler struct {
	svc      *UserService
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, validate: validator.New(), logger: logger}
}

// Routes mounts the user endpoints. requireAuth guards the routes that act
// on the caller's own account.
func (h *Handler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Post("/signin", h.SignIn)
	r.Get("/duplicate", h.ValidateUserID)
	r.Get("/{id}", h.FindByID)
	r.With(requireAuth).Put("/{id}", h.Update)
	r.With(requireAuth).Delete("/{id}", h.Delete)
	r.Get("/{id}/star-ratings", h.FindRatings)
	return r
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	creds, err := ParseCredentials(req.Provider, req.UserID, req.Password, req.AccessToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	u, err := h.svc.Create(r.Context(), creds, req.profile())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decode(w, r, &req) {
		return
	}
	creds, err := ParseCredentials(req.Provider, req.UserID, req.Password, req.AccessToken)
	if err != nil {
		h.writeError(w, err)
		return
	}
	res, err := h.svc.SignIn(r.Context(), creds)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, SignInResponse{User: toUserResponse(res.User), AccessToken: res.Token})
}

func (h *Handler) ValidateUserID(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "INVALID_INPUT", Message: "userId is required"})
		return
	}
	if err := h.svc.ValidateUserID(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"available": true})
}

func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.ownsAccount(w, r, id) {
		return
	}
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	u, err := h.svc.UpdateUser(r.Context(), id, req.update())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.ownsAccount(w, r, id) {
		return
	}
	if err := h.svc.DeleteUser(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) FindRatings(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
		return
	}
	ratings, err := h.svc.FindRatingsByUserID(r.Context(), page, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ratings)
}

func pageFromQuery(r *http.Request) (ratingentity.Page, error) {
	var p ratingentity.Page
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, errors.New("page must be a non-negative integer")
		}
		p.Number = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, errors.New("size must be a positive integer")
		}
		p.Size = n
	}
	return p, nil
}

// ownsAccount rejects callers whose token subject is not id.
func (h *Handler) ownsAccount(w http.ResponseWriter, r *http.Request, id string) bool {
	sub, ok := token.SubjectFrom(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHORIZED", Message: "missing bearer token"})
		return false
	}
	if sub != id {
		h.writeJSON(w, http.StatusForbidden, ErrorResponse{Code: "FORBIDDEN", Message: "token does not belong to this account"})
		return false
	}
	return true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Debugw("invalid payload", "path", r.URL.Path, "err", err)
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "INVALID_INPUT", Message: "invalid payload"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()})
		return false
	}
	return true
}

// errorStatus maps service errors to a status and response code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict, "ID_ALREADY_EXIST"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "ROW_DOES_NOT_EXIST"
	case errors.Is(err, ErrSignInMismatch):
		return http.StatusBadRequest, "SIGNIN_DATA_DOES_NOT_MATCH"
	case errors.Is(err, ErrUnsupportedProvider):
		return http.StatusBadRequest, "UNSUPPORTED_PROVIDER"
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, ErrProviderFailure):
		return http.StatusBadGateway, "PROVIDER_FAILURE"
	case errors.Is(err, social.ErrResolverNotRegistered):
		return http.StatusInternalServerError, "PROVIDER_NOT_CONFIGURED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("request failed", "code", code, "err", err)
		msg = http.StatusText(status)
	}
	h.writeJSON(w, status, ErrorResponse{Code: code, Message: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
