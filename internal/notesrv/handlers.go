package notesrv

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eversync/eversync/internal/notesdk"
)

const maxPageSize = 250

type handler struct {
	store *Store
}

func abortWithError(ctx *gin.Context, status int, code string, err error, payload any) {
	ctx.Abort()
	_ = ctx.Error(err)
	ctx.PureJSON(status, &notesdk.APIError{
		Code:    code,
		Message: err.Error(),
		Payload: payload,
	})
}

func bearerAuth(token string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token == "" {
			ctx.Next()
			return
		}

		got, ok := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !ok || got != token {
			abortWithError(ctx, http.StatusUnauthorized, notesdk.CodeAuthInvalidCredentials, errors.New("invalid token"), nil)
			return
		}
		ctx.Next()
	}
}

func (h *handler) ListNotebooks(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, &notesdk.NotebookListResponse{
		Notebooks: h.store.ListNotebooks(),
	})
}

func (h *handler) CreateNotebook(ctx *gin.Context) {
	var params notesdk.CreateNotebookParams
	if err := ctx.ShouldBindJSON(&params); err != nil {
		abortWithError(ctx, http.StatusBadRequest, notesdk.CodeInvalidRequest, err, nil)
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		abortWithError(ctx, http.StatusBadRequest, notesdk.CodeDataValidation, errors.New("notebook name missing"), params)
		return
	}

	nb, err := h.store.CreateNotebook(params.Name, params.Default)
	if errors.Is(err, ErrNotebookExists) {
		abortWithError(ctx, http.StatusConflict, notesdk.CodeNotebookConflict, err, params)
		return
	}
	if err != nil {
		abortWithError(ctx, http.StatusInternalServerError, notesdk.CodeInternalError, err, nil)
		return
	}

	ctx.PureJSON(http.StatusCreated, nb)
}

func (h *handler) FindNotes(ctx *gin.Context) {
	offset, err := queryInt(ctx, "offset", 0)
	if err != nil || offset < 0 {
		abortWithError(ctx, http.StatusBadRequest, notesdk.CodeInvalidRequest, errors.New("invalid offset"), nil)
		return
	}
	limit, err := queryInt(ctx, "limit", maxPageSize)
	if err != nil || limit <= 0 {
		abortWithError(ctx, http.StatusBadRequest, notesdk.CodeInvalidRequest, errors.New("invalid limit"), nil)
		return
	}
	limit = min(limit, maxPageSize)

	filter := notesdk.NoteFilter{
		NotebookGUID: ctx.Query("notebook"),
		Words:        ctx.Query("words"),
	}
	notes, total := h.store.FindNotes(filter, offset, limit)

	ctx.PureJSON(http.StatusOK, &notesdk.NoteList{
		Notes:  notes,
		Offset: offset,
		Total:  total,
	})
}

func (h *handler) GetNote(ctx *gin.Context) {
	note, err := h.store.GetNote(ctx.Param("guid"))
	if err != nil {
		abortWithError(ctx, http.StatusNotFound, notesdk.CodeNotFound, err, nil)
		return
	}
	ctx.PureJSON(http.StatusOK, note)
}

func (h *handler) CreateNote(ctx *gin.Context) {
	var note notesdk.Note
	if err := ctx.ShouldBindJSON(&note); err != nil {
		abortWithError(ctx, http.StatusBadRequest, notesdk.CodeInvalidRequest, err, nil)
		return
	}
	if !h.validNote(ctx, &note) {
		return
	}

	created, err := h.store.CreateNote(note)
	if errors.Is(err, ErrNotebookNotFound) {
		abortWithError(ctx, http.StatusNotFound, notesdk.CodeNotFound, err, nil)
		return
	}
	if err != nil {
		abortWithError(ctx, http.StatusInternalServerError, notesdk.CodeInternalError, err, nil)
		return
	}

	ctx.PureJSON(http.StatusCreated, created)
}

func (h *handler) UpdateNote(ctx *gin.Context) {
	var note notesdk.Note
	if err := ctx.ShouldBindJSON(&note); err != nil {
		abortWithError(ctx, http.StatusBadRequest, notesdk.CodeInvalidRequest, err, nil)
		return
	}
	note.GUID = ctx.Param("guid")
	if !h.validNote(ctx, &note) {
		return
	}

	updated, err := h.store.UpdateNote(note)
	if errors.Is(err, ErrNoteNotFound) {
		abortWithError(ctx, http.StatusNotFound, notesdk.CodeNotFound, err, nil)
		return
	}
	if err != nil {
		abortWithError(ctx, http.StatusInternalServerError, notesdk.CodeInternalError, err, nil)
		return
	}

	ctx.PureJSON(http.StatusOK, updated)
}

func (h *handler) DeleteNote(ctx *gin.Context) {
	if err := h.store.DeleteNote(ctx.Param("guid")); err != nil {
		abortWithError(ctx, http.StatusNotFound, notesdk.CodeNotFound, err, nil)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// validNote rejects notes the service would not accept, echoing the payload
// back so the client can report what was refused.
func (h *handler) validNote(ctx *gin.Context, note *notesdk.Note) bool {
	if strings.TrimSpace(note.Title) == "" {
		abortWithError(ctx, http.StatusBadRequest, notesdk.CodeDataValidation, errors.New("note title missing"), note)
		return false
	}
	if err := ValidateENML(note.Content); err != nil {
		abortWithError(ctx, http.StatusBadRequest, notesdk.CodeDataValidation, err, note)
		return false
	}
	return true
}

func queryInt(ctx *gin.Context, key string, def int) (int, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
