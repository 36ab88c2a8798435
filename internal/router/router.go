// Package router maps the HTTP surface of the notes service onto the
// service layer: registration, token issuance, owner-scoped note CRUD and
// the anonymous share lookup.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/notesvc/internal/auth"
	"github.com/patric-chuzhbe/notesvc/internal/authenticator"
	"github.com/patric-chuzhbe/notesvc/internal/logger"
	"github.com/patric-chuzhbe/notesvc/internal/models"
	"github.com/patric-chuzhbe/notesvc/internal/note"
)

type noteService interface {
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	ListNotes(ctx context.Context, ownerID string) ([]note.Note, error)
	CreateNote(ctx context.Context, ownerID, title, content string) (*note.Note, error)
	UpdateNote(ctx context.Context, ownerID string, noteID int64, patch *models.NoteUpdateRequest) (*note.Note, error)
	DeleteNote(ctx context.Context, ownerID string, noteID int64) error
	GetSharedNote(ctx context.Context, shareID string) (*note.Note, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Router holds the handler dependencies.
type Router struct {
	service  noteService
	db       pinger
	validate *validator.Validate
}

// New builds the chi mux with the full route table.
// Note routes are grouped under the authentication middleware.
func New(
	service noteService,
	db pinger,
	theAuth authenticator.Authenticator,
) *chi.Mux {
	myRouter := &Router{
		service:  service,
		db:       db,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)

	router.Post(`/register`, myRouter.PostRegister)
	router.Post(`/token`, myRouter.PostToken)
	router.Get(`/shared/{share_id}`, myRouter.GetSharedNote)
	router.Get(`/ping`, myRouter.GetPing)

	router.Group(func(router chi.Router) {
		router.Use(theAuth.AuthenticateUser)
		router.Get(`/notes`, myRouter.GetNotes)
		router.Post(`/notes`, myRouter.PostNotes)
		router.Put(`/notes/{id}`, myRouter.PutNote)
		router.Delete(`/notes/{id}`, myRouter.DeleteNote)
	})

	return router
}

// PostRegister handles POST /register.
func (rt *Router) PostRegister(res http.ResponseWriter, req *http.Request) {
	var request models.RegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		writeError(res, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := rt.validate.Struct(request); err != nil {
		writeError(res, http.StatusBadRequest, err.Error())
		return
	}

	err := rt.service.Register(req.Context(), request.Username, request.Email, request.Password)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			writeError(res, http.StatusBadRequest, "Username or email already registered")
			return
		}
		writeInternalError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, models.MessageResponse{Message: "User created successfully"})
}

// PostToken handles POST /token. The body is form-encoded, matching the
// OAuth2 password flow shape.
func (rt *Router) PostToken(res http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeError(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := req.PostFormValue("username")
	password := req.PostFormValue("password")
	if username == "" || password == "" {
		writeError(res, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := rt.service.Login(req.Context(), username, password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			res.Header().Set("WWW-Authenticate", "Bearer")
			writeError(res, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		writeInternalError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// GetNotes handles GET /notes.
func (rt *Router) GetNotes(res http.ResponseWriter, req *http.Request) {
	usr, ok := auth.UserFromContext(req.Context())
	if !ok {
		writeError(res, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	notes, err := rt.service.ListNotes(req.Context(), usr.ID)
	if err != nil {
		writeInternalError(res, err)
		return
	}

	responses := funk.Map(notes, func(n note.Note) models.NoteResponse {
		return noteToResponse(&n)
	}).([]models.NoteResponse)

	writeJSON(res, http.StatusOK, responses)
}

// PostNotes handles POST /notes.
func (rt *Router) PostNotes(res http.ResponseWriter, req *http.Request) {
	usr, ok := auth.UserFromContext(req.Context())
	if !ok {
		writeError(res, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var request models.NoteCreateRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		writeError(res, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := rt.validate.Struct(request); err != nil {
		writeError(res, http.StatusBadRequest, err.Error())
		return
	}

	created, err := rt.service.CreateNote(req.Context(), usr.ID, request.Title, request.Content)
	if err != nil {
		writeInternalError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, noteToResponse(created))
}

// PutNote handles PUT /notes/{id}.
func (rt *Router) PutNote(res http.ResponseWriter, req *http.Request) {
	usr, ok := auth.UserFromContext(req.Context())
	if !ok {
		writeError(res, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	noteID, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		writeError(res, http.StatusNotFound, "Note not found")
		return
	}

	var patch models.NoteUpdateRequest
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
		writeError(res, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := rt.service.UpdateNote(req.Context(), usr.ID, noteID, &patch)
	if err != nil {
		if errors.Is(err, models.ErrNoteNotFound) {
			writeError(res, http.StatusNotFound, "Note not found")
			return
		}
		writeInternalError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, noteToResponse(updated))
}

// DeleteNote handles DELETE /notes/{id}.
func (rt *Router) DeleteNote(res http.ResponseWriter, req *http.Request) {
	usr, ok := auth.UserFromContext(req.Context())
	if !ok {
		writeError(res, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	noteID, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		writeError(res, http.StatusNotFound, "Note not found")
		return
	}

	err = rt.service.DeleteNote(req.Context(), usr.ID, noteID)
	if err != nil {
		if errors.Is(err, models.ErrNoteNotFound) {
			writeError(res, http.StatusNotFound, "Note not found")
			return
		}
		writeInternalError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, models.MessageResponse{Message: "Note deleted successfully"})
}

// GetSharedNote handles GET /shared/{share_id}. No authentication: the token
// is the only thing the caller knows, and only public notes resolve.
func (rt *Router) GetSharedNote(res http.ResponseWriter, req *http.Request) {
	shareID := chi.URLParam(req, "share_id")

	n, err := rt.service.GetSharedNote(req.Context(), shareID)
	if err != nil {
		if errors.Is(err, models.ErrNoteNotFound) {
			writeError(res, http.StatusNotFound, "Note not found or not public")
			return
		}
		writeInternalError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, models.SharedNoteResponse{
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// GetPing handles GET /ping and reports storage connectivity.
func (rt *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := rt.db.Ping(req.Context()); err != nil {
		writeInternalError(res, err)
		return
	}

	res.WriteHeader(http.StatusOK)
}

func noteToResponse(n *note.Note) models.NoteResponse {
	return models.NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		IsPublic:  n.IsPublic,
		ShareID:   n.ShareID,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func writeJSON(res http.ResponseWriter, status int, body interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(body); err != nil {
		logger.Log.Debugln("Error encoding the response body: ", err)
	}
}

func writeError(res http.ResponseWriter, status int, detail string) {
	writeJSON(res, status, models.ErrorResponse{Detail: detail})
}

func writeInternalError(res http.ResponseWriter, err error) {
	logger.Log.Debugln("Internal error while handling the request: ", err)
	writeError(res, http.StatusInternalServerError, "Internal server error")
}
