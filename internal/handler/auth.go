package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/msomdec/skillmatch-auth/internal/domain"
	"github.com/msomdec/skillmatch-auth/internal/metrics"
	"github.com/msomdec/skillmatch-auth/internal/service"
)

// Response messages.
const (
	msgRegistered       = "Registration successful"
	msgLoggedIn         = "Login successful"
	msgIdentity         = "Logged in User"
	msgRefreshed        = "Successfully refreshed"
	msgLoggedOut        = "Successfully logged out"
	msgProfileUpdated   = "Profile updated"
	msgValidationFailed = "Validation failed"
	msgInvalidBody      = "Invalid request body"
	msgNotFound         = "Account not found"
	msgBadPassword      = "Password does not match"
	msgUnauthenticated  = "Unauthenticated"
	msgTokenIssuance    = "Failed to generate token"
	msgInternal         = "Internal Server Error"
)

// Upload limit for update-profile: the photo itself plus room for the other
// form fields and multipart framing.
const maxProfileBodyBytes = service.MaxPhotoSize + 1<<20

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth    *service.AuthService
	metrics *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{auth: auth, metrics: m}
}

// HandleRegister processes a JSON registration request.
// POST /auth/register
// Request:  {"name":"...","email":"...","password":"...","role":"student|client"}
// Response: 201 {"user": {...}, "token": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := readJSON(w, r, &req); err != nil {
		h.record("register", metrics.OutcomeInvalid)
		writeEnvelope(w, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	user, session, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}

	h.record("register", metrics.OutcomeSuccess)
	writeEnvelope(w, http.StatusCreated, msgRegistered, RegisterDTO{
		User:  toUserDTO(user),
		Token: session.Token,
	})
}

// HandleLogin processes a JSON login request.
// POST /auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"type":"Bearer","token":"...","expires":"2006-01-02 15:04:05"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		h.record("login", metrics.OutcomeInvalid)
		writeEnvelope(w, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	session, err := h.auth.Authenticate(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}

	h.record("login", metrics.OutcomeSuccess)
	writeEnvelope(w, http.StatusOK, msgLoggedIn, toSessionDTO(session))
}

// HandleMe returns the identity behind the bearer token.
// GET /auth/me
// Response: {"name":"...","email":"...","exp":"..."} or 401
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth.Introspect(r.Context(), bearerToken(r))
	if err != nil {
		h.fail(w, r, "me", err)
		return
	}

	h.record("me", metrics.OutcomeSuccess)
	writeEnvelope(w, http.StatusOK, msgIdentity, IdentityDTO{
		Name:  identity.Name,
		Email: identity.Email,
		Exp:   identity.Exp,
	})
}

// HandleRefresh exchanges the bearer token for a new one.
// POST /auth/refresh
// Response: {"type":"Bearer","token":"...","expires":"..."} or 401
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	session, err := h.auth.Refresh(r.Context(), bearerToken(r))
	if err != nil {
		h.fail(w, r, "refresh", err)
		return
	}

	h.record("refresh", metrics.OutcomeSuccess)
	writeEnvelope(w, http.StatusOK, msgRefreshed, toSessionDTO(session))
}

// HandleLogout invalidates the bearer token if one was sent.
// POST /auth/logout
// Response: 200 with no data, also when no usable token was provided.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Invalidate(r.Context(), bearerToken(r)); err != nil {
		h.fail(w, r, "logout", err)
		return
	}

	h.record("logout", metrics.OutcomeSuccess)
	writeEnvelope(w, http.StatusOK, msgLoggedOut, nil)
}

// HandleUpdateProfile updates the authenticated user's profile. It must be
// mounted behind RequireAuth.
// POST /auth/update-profile
// Request:  multipart/form-data (name, email, password, phone, skills, photo)
//
//	or JSON {"name","email","password","phone","skills"}
//
// Response: the updated user
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		h.record("update_profile", metrics.OutcomeUnauthenticated)
		writeEnvelope(w, http.StatusUnauthorized, msgUnauthenticated, nil)
		return
	}

	in, err := readProfileInput(w, r)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.fail(w, r, "update_profile", err)
			return
		}
		h.record("update_profile", metrics.OutcomeInvalid)
		writeEnvelope(w, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	updated, err := h.auth.UpdateProfile(r.Context(), user, in)
	if err != nil {
		h.fail(w, r, "update_profile", err)
		return
	}

	h.record("update_profile", metrics.OutcomeSuccess)
	writeEnvelope(w, http.StatusOK, msgProfileUpdated, toUserDTO(updated))
}

// readProfileInput builds a ProfileInput from a multipart form or a JSON body.
func readProfileInput(w http.ResponseWriter, r *http.Request) (service.ProfileInput, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" && mediaType != "application/x-www-form-urlencoded" {
		var req struct {
			Name     string  `json:"name"`
			Email    string  `json:"email"`
			Password string  `json:"password"`
			Phone    *string `json:"phone"`
			Skills   *string `json:"skills"`
		}
		if err := readJSON(w, r, &req); err != nil {
			return service.ProfileInput{}, err
		}
		return service.ProfileInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
			Skills:   req.Skills,
		}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProfileBodyBytes)
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxProfileBodyBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return service.ProfileInput{}, photoTooLarge()
			}
			return service.ProfileInput{}, err
		}
		defer r.MultipartForm.RemoveAll()
	} else if err := r.ParseForm(); err != nil {
		return service.ProfileInput{}, err
	}

	in := service.ProfileInput{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Phone:    formValue(r, "phone"),
		Skills:   formValue(r, "skills"),
	}

	if mediaType == "multipart/form-data" {
		photo, err := readPhoto(r)
		if err != nil {
			return service.ProfileInput{}, err
		}
		in.Photo = photo
	}
	return in, nil
}

// formValue returns nil when the field was not sent at all.
func formValue(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok {
		if r.MultipartForm == nil {
			return nil
		}
		if values, ok = r.MultipartForm.Value[key]; !ok {
			return nil
		}
	}
	v := ""
	if len(values) > 0 {
		v = values[0]
	}
	return &v
}

func readPhoto(r *http.Request) (*service.PhotoUpload, error) {
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxPhotoSize+1))
	if err != nil {
		return nil, err
	}
	return &service.PhotoUpload{
		Filename:    header.Filename,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func photoTooLarge() error {
	verr := &domain.ValidationError{}
	verr.Add("photo", "The photo may not be greater than 2048 kilobytes.")
	return verr
}

// fail maps a service error to its envelope and records the outcome.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.record(op, metrics.OutcomeInvalid)
		writeEnvelope(w, http.StatusBadRequest, msgValidationFailed, verr.Fields)
	case errors.Is(err, domain.ErrNotFound):
		h.record(op, metrics.OutcomeNotFound)
		writeEnvelope(w, http.StatusNotFound, msgNotFound, nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.record(op, metrics.OutcomeUnauthenticated)
		writeEnvelope(w, http.StatusUnauthorized, msgBadPassword, nil)
	case errors.Is(err, domain.ErrUnauthenticated):
		h.record(op, metrics.OutcomeUnauthenticated)
		writeEnvelope(w, http.StatusUnauthorized, msgUnauthenticated, nil)
	case errors.Is(err, domain.ErrTokenIssuance):
		h.record(op, metrics.OutcomeError)
		slog.ErrorContext(r.Context(), "issue token", "operation", op, "error", err)
		writeEnvelope(w, http.StatusInternalServerError, msgTokenIssuance, nil)
	default:
		h.record(op, metrics.OutcomeError)
		slog.ErrorContext(r.Context(), "auth operation failed", "operation", op, "error", err)
		writeEnvelope(w, http.StatusInternalServerError, msgInternal, nil)
	}
}

func (h *AuthHandler) record(op, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordAuth(op, outcome)
	}
}
