package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pixoapp/pixo"
	"github.com/pixoapp/pixo/filesystem"
)

// Service is the application surface served by the handler.
type Service interface {
	Register(ctx context.Context, email, password string) (pixo.User, error)
	Authenticate(ctx context.Context, email, password string) (pixo.User, error)
	GetUser(ctx context.Context, userID string) (pixo.User, error)
	UpdateProfile(ctx context.Context, userID, email, username, lang string) (pixo.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error

	CreateAlbum(ctx context.Context, userID, title string) (pixo.Album, error)
	ListAlbums(ctx context.Context, userID string) ([]pixo.Album, error)
	GetAlbum(ctx context.Context, albumID string) (pixo.Album, []pixo.Image, error)
	RenameAlbum(ctx context.Context, albumID, userID, title string) (pixo.Album, error)
	DeleteAlbum(ctx context.Context, albumID, userID string) error

	UploadImage(ctx context.Context, userID string, file pixo.Upload, title string) (pixo.Image, error)
	ListImages(ctx context.Context, userID string) ([]pixo.Image, error)
	GetImage(ctx context.Context, imageID string) (pixo.Image, error)
	RenameImage(ctx context.Context, imageID, userID, title string) (pixo.Image, error)
	DeleteImage(ctx context.Context, imageID, userID string) error
	SetImageAlbum(ctx context.Context, imageID, userID, albumID string) (pixo.Image, error)

	ResolveGuest(cookieValue string) string
	UploadGuest(ctx context.Context, guestID string, file pixo.Upload, title string) (pixo.GuestUpload, error)
	GetGuestSlot(ctx context.Context, guestID string) (pixo.GuestSlot, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize is the upload limit in bytes (default: pixo.DefaultMaxUploadSize).
	MaxUploadSize int64
	// Files serves /files/* when objects are kept on the local filesystem.
	Files *filesystem.Store
	// SecureCookie marks the guest cookie Secure.
	SecureCookie bool
	// Logger receives request logs (default: slog.Default()).
	Logger *slog.Logger
}

// Handler provides HTTP handlers for the photo hosting API.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = pixo.DefaultMaxUploadSize
	}
	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with every API route configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.config.Logger))

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.handlePing)
		r.Post("/sign-up", h.handleSignUp)
		r.Post("/sign-in", h.handleSignIn)

		r.Post("/upload-guest", h.handleUploadGuest)
		r.Get("/guest", h.handleGetGuest)
		r.Post("/upload-user", h.handleUploadUser)

		r.Get("/gallery/{user_id}", h.handleGallery)
		r.Get("/image/{image_id}", h.handleGetImage)
		r.Post("/image/{image_id}/rename", h.handleRenameImage)
		r.Post("/image/{image_id}/delete", h.handleDeleteImage)
		r.Post("/image/{image_id}/set-album", h.handleSetImageAlbum)

		r.Post("/albums", h.handleCreateAlbum)
		r.Get("/albums/{user_id}", h.handleListAlbums)
		r.Get("/album/{album_id}", h.handleGetAlbum)
		r.Post("/album/{album_id}/rename", h.handleRenameAlbum)
		r.Post("/album/{album_id}/delete", h.handleDeleteAlbum)

		r.Get("/user/{user_id}", h.handleGetUser)
		r.Post("/user/{user_id}/update", h.handleUpdateUser)
		r.Post("/user/{user_id}/change-password", h.handleChangePassword)
	})

	if h.config.Files != nil {
		r.Get("/files/*", h.handleFile)
	}

	return r
}

func (h *Handler) handlePing(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// accountView is the user object returned by sign-up and sign-in.
type accountView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type accountResponse struct {
	Message string      `json:"message"`
	User    accountView `json:"user"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !bind(w, r, &req, "email_or_password_missing", "Email and password are required") {
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(w, err,
			override(pixo.ErrDuplicateEmail, http.StatusBadRequest, "user_exists"),
			override(pixo.ErrInvalidInput, http.StatusBadRequest, "email_or_password_missing"),
		)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, accountResponse{
		Message: "registered",
		User:    accountView{ID: user.ID, Email: user.Email},
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !bind(w, r, &req, "email_or_password_missing", "Email and password are required") {
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(w, err,
			override(pixo.ErrUserNotFound, http.StatusBadRequest, "user_not_found"),
			override(pixo.ErrInvalidInput, http.StatusBadRequest, "email_or_password_missing"),
		)
		return
	}

	_ = WriteJSON(w, http.StatusOK, accountResponse{
		Message: "ok",
		User:    accountView{ID: user.ID, Email: user.Email},
	})
}

type guestUploadResponse struct {
	Message string `json:"message"`
	pixo.GuestUpload
}

func (h *Handler) handleUploadGuest(w http.ResponseWriter, r *http.Request) {
	guestID := h.service.ResolveGuest(h.guestCookie(r))

	form, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer closeForm(form)

	if code, message, ok := form.check(); !ok {
		WriteError(w, http.StatusBadRequest, code, message)
		return
	}

	result, err := h.service.UploadGuest(r.Context(), guestID, form.upload(), form.value("title"))
	if err != nil {
		HandleError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     pixo.GuestCookieName,
		Value:    result.GuestID,
		Path:     "/",
		MaxAge:   int(pixo.GuestCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	_ = WriteJSON(w, http.StatusCreated, guestUploadResponse{
		Message:     "uploaded",
		GuestUpload: result,
	})
}

func (h *Handler) handleGetGuest(w http.ResponseWriter, r *http.Request) {
	guestID := h.guestCookie(r)
	if guestID == "" {
		WriteError(w, http.StatusNotFound, "not_found", "No guest upload")
		return
	}

	slot, err := h.service.GetGuestSlot(r.Context(), guestID)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"guest_id": guestID, "upload": slot})
}

func (h *Handler) guestCookie(r *http.Request) string {
	c, err := r.Cookie(pixo.GuestCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

type imageResponse struct {
	Message string     `json:"message,omitempty"`
	Image   pixo.Image `json:"image"`
}

func (h *Handler) handleUploadUser(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	defer closeForm(form)

	userID := form.value("user_id")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, "user_id_missing", "User id is required")
		return
	}

	if code, message, ok := form.check(); !ok {
		WriteError(w, http.StatusBadRequest, code, message)
		return
	}

	img, err := h.service.UploadImage(r.Context(), userID, form.upload(), form.value("title"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, imageResponse{Message: "uploaded", Image: img})
}

// readUpload parses a multipart upload, writing file_too_large when the body
// exceeds the limit.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*uploadForm, bool) {
	form, err := parseUploadForm(w, r, h.config.MaxUploadSize)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			WriteError(w, http.StatusBadRequest, "file_too_large", "File too large")
			return nil, false
		}
		HandleError(w, err)
		return nil, false
	}
	return form, true
}

func closeForm(form *uploadForm) {
	if err := form.Close(); err != nil {
		slog.Warn("failed to release upload form", "error", err)
	}
}

func (h *Handler) handleGallery(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.ListImages(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"images": images})
}

func (h *Handler) handleGetImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.service.GetImage(r.Context(), chi.URLParam(r, "image_id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, imageResponse{Image: img})
}

func (h *Handler) handleRenameImage(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !bind(w, r, &req, "user_id_or_title_missing", "User id and title are required") {
		return
	}

	img, err := h.service.RenameImage(r.Context(), chi.URLParam(r, "image_id"), req.UserID, req.Title)
	if err != nil {
		HandleError(w, err, override(pixo.ErrInvalidInput, http.StatusBadRequest, "user_id_or_title_missing"))
		return
	}

	_ = WriteJSON(w, http.StatusOK, imageResponse{Message: "ok", Image: img})
}

func (h *Handler) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if !bind(w, r, &req, "user_id_missing", "User id is required") {
		return
	}

	if err := h.service.DeleteImage(r.Context(), chi.URLParam(r, "image_id"), req.UserID); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "deleted"})
}

func (h *Handler) handleSetImageAlbum(w http.ResponseWriter, r *http.Request) {
	var req setAlbumRequest
	if !bind(w, r, &req, "user_id_missing", "User id is required") {
		return
	}

	img, err := h.service.SetImageAlbum(r.Context(), chi.URLParam(r, "image_id"), req.UserID, req.AlbumID)
	if err != nil {
		HandleError(w, err, override(pixo.ErrInvalidInput, http.StatusBadRequest, "user_id_missing"))
		return
	}

	_ = WriteJSON(w, http.StatusOK, imageResponse{Message: "ok", Image: img})
}

type albumResponse struct {
	Message string     `json:"message,omitempty"`
	Album   pixo.Album `json:"album"`
}

func (h *Handler) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !bind(w, r, &req, "user_id_or_title_missing", "User id and title are required") {
		return
	}

	album, err := h.service.CreateAlbum(r.Context(), req.UserID, req.Title)
	if err != nil {
		HandleError(w, err, override(pixo.ErrInvalidInput, http.StatusBadRequest, "user_id_or_title_missing"))
		return
	}

	_ = WriteJSON(w, http.StatusCreated, albumResponse{Album: album})
}

func (h *Handler) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.service.ListAlbums(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"albums": albums})
}

func (h *Handler) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	album, images, err := h.service.GetAlbum(r.Context(), chi.URLParam(r, "album_id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{"album": album, "images": images})
}

func (h *Handler) handleRenameAlbum(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !bind(w, r, &req, "user_id_or_title_missing", "User id and title are required") {
		return
	}

	album, err := h.service.RenameAlbum(r.Context(), chi.URLParam(r, "album_id"), req.UserID, req.Title)
	if err != nil {
		HandleError(w, err, override(pixo.ErrInvalidInput, http.StatusBadRequest, "user_id_or_title_missing"))
		return
	}

	_ = WriteJSON(w, http.StatusOK, albumResponse{Message: "ok", Album: album})
}

func (h *Handler) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if !bind(w, r, &req, "user_id_missing", "User id is required") {
		return
	}

	if err := h.service.DeleteAlbum(r.Context(), chi.URLParam(r, "album_id"), req.UserID); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "deleted"})
}

type profileResponse struct {
	Message string       `json:"message,omitempty"`
	User    pixo.Profile `json:"user"`
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, profileResponse{User: user.Profile()})
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !bind(w, r, &req, "invalid_input", "Invalid input") {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), chi.URLParam(r, "user_id"), req.Email, req.Username, req.Lang)
	if err != nil {
		HandleError(w, err)
		return
	}

	profile := user.Profile()
	profile.CreatedAt = ""
	_ = WriteJSON(w, http.StatusOK, profileResponse{Message: "ok", User: profile})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !bind(w, r, &req, "old_or_new_missing", "Old and new password are required") {
		return
	}

	err := h.service.ChangePassword(r.Context(), chi.URLParam(r, "user_id"), req.OldPassword, req.NewPassword)
	if err != nil {
		HandleError(w, err,
			override(pixo.ErrWrongCredential, http.StatusBadRequest, "wrong_old_password"),
			override(pixo.ErrInvalidInput, http.StatusBadRequest, "old_or_new_missing"),
		)
		return
	}

	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "ok"})
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if !isServableKey(key) {
		WriteError(w, http.StatusNotFound, "not_found", "Object not found")
		return
	}

	content, err := h.config.Files.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, pixo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Object not found")
			return
		}
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("Content-Type", filesystem.ContentType(key))
	http.ServeContent(w, r, key, time.Time{}, content)
}

// isServableKey rejects empty keys and any segment that is empty or starts
// with a dot, which covers traversal and in-flight temp files.
func isServableKey(key string) bool {
	if key == "" {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || strings.HasPrefix(seg, ".") {
			return false
		}
	}
	return true
}
