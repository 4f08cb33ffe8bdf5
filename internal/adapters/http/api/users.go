package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/accounts/internal/adapters/repository"
	"github.com/okian/accounts/internal/domain/model"
	"github.com/okian/accounts/pkg/logger"
)

// maxBodyBytes caps request bodies at 100 KiB.
const maxBodyBytes = 100 << 10

// Public response messages.
const (
	msgCreated       = "Account created successfully"
	msgMissingFields = "Missing required fields: id, username, or password."
	msgInvalidJSON   = "Request body must be a JSON object."
	msgInvalidField  = "Fields id, username and password must be strings or numbers; warnings must be numeric."
	msgTooLarge      = "Request body too large."
	msgDuplicate     = "Username already exists."
	msgCreateFailed  = "Database error during account creation."
	msgListFailed    = "Database error fetching users."
)

// createUserRequest mirrors the body of POST /api/user.
type createUserRequest struct {
	ID       fieldText     `json:"id"`
	Username fieldText     `json:"username"`
	Password fieldText     `json:"password"`
	Warnings warningsCount `json:"warnings"`
}

// validate checks presence only; values are stored exactly as received.
func (r createUserRequest) validate() error {
	if r.ID == "" || r.Username == "" || r.Password == "" {
		return ErrMissingFields
	}
	return nil
}

func (r createUserRequest) user() model.User {
	return model.User{
		ID:       string(r.ID),
		Username: string(r.Username),
		Password: string(r.Password),
		Warnings: int(r.Warnings),
	}
}

var jsonNull = []byte("null")

// fieldText accepts a JSON string or number. A number keeps its literal
// text; null and zero count as absent.
type fieldText string

func (f *fieldText) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, jsonNull):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = fieldText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return ErrFieldType
	}
	if v, err := n.Float64(); err == nil && v == 0 {
		*f = ""
		return nil
	}
	*f = fieldText(n.String())
	return nil
}

// warningsCount accepts a JSON number or a numeric string, rounded to the
// nearest integer. null and "" are zero.
type warningsCount int

func (w *warningsCount) UnmarshalJSON(b []byte) error {
	text := string(b)
	switch {
	case bytes.Equal(b, jsonNull):
		*w = 0
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		text = strings.TrimSpace(s)
		if text == "" {
			*w = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return ErrFieldType
	}
	*w = warningsCount(math.Round(v))
	return nil
}

// decodeBody decodes exactly one JSON value from r. An empty body leaves v
// untouched.
func decodeBody(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return ErrTrailingData
		}
		return err
	}
	return nil
}

type createUserResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// UsersHandler serves account creation and listing.
type UsersHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps Dependencies, l logger.Logger) *UsersHandler {
	return &UsersHandler{deps: deps, logger: l}
}

// HandleCreateUser handles POST /api/user requests.
func (h *UsersHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_user"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req createUserRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeBody(body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", msgTooLarge)
		case errors.Is(err, ErrFieldType):
			h.logger.Debug(r.Context(), "rejecting field of unsupported type", logger.Error(WrapKind(op, ErrBadRequest, err)))
			writeError(w, http.StatusBadRequest, "bad_request", msgInvalidField)
		default:
			h.logger.Debug(r.Context(), "rejecting malformed body", logger.Error(WrapKind(op, ErrBadRequest, err)))
			writeError(w, http.StatusBadRequest, "bad_request", msgInvalidJSON)
		}
		return
	}
	if err := req.validate(); err != nil {
		h.logger.Debug(r.Context(), "rejecting incomplete request", logger.Error(NewKind(op, err)))
		writeError(w, http.StatusBadRequest, "bad_request", msgMissingFields)
		return
	}

	if err := h.deps.CreateUser(r.Context(), req.user()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			h.logger.Warn(r.Context(), "account already exists",
				logger.String("requestId", RequestIDFromContext(r.Context())),
				logger.String("userId", string(req.ID)),
				logger.Error(NewKind(op, err)))
			writeError(w, http.StatusConflict, "conflict", msgDuplicate)
			return
		}
		h.logger.Error(r.Context(), "account creation failed",
			logger.String("requestId", RequestIDFromContext(r.Context())),
			logger.String("kind", repository.KindOf(err).String()),
			logger.Error(WrapKind(op, ErrUnavailable, err)))
		writeError(w, http.StatusInternalServerError, "internal_error", msgCreateFailed)
		return
	}
	writeJSON(w, http.StatusCreated, createUserResponse{Message: msgCreated, UserID: string(req.ID)})
}

// HandleListUsers handles GET /api/users requests.
func (h *UsersHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_users"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	users, err := h.deps.ListUsers(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "listing users failed",
			logger.String("requestId", RequestIDFromContext(r.Context())),
			logger.String("kind", repository.KindOf(err).String()),
			logger.Error(WrapKind(op, ErrUnavailable, err)))
		writeError(w, http.StatusInternalServerError, "internal_error", msgListFailed)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
