package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"atrium-api/datatable"
	"atrium-api/repository"
	"atrium-api/types"

	"github.com/gin-gonic/gin"
)

// SavedViewsHandler stores per-user snapshots of datatable state: the
// filters, search, sort, and page size a user wants to come back to.
type SavedViewsHandler struct {
	viewsRepo *repository.SavedViewsRepository
	tables    map[string]*datatable.Table
}

func NewSavedViewsHandler(viewsRepo *repository.SavedViewsRepository, tables map[string]*datatable.Table) *SavedViewsHandler {
	return &SavedViewsHandler{viewsRepo: viewsRepo, tables: tables}
}

func (h *SavedViewsHandler) Create(c *gin.Context) {
	userID := c.GetInt("userId")
	var req struct {
		Table  string          `json:"table" binding:"required"`
		Name   string          `json:"name" binding:"required"`
		Params json.RawMessage `json:"params" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if _, ok := h.tables[req.Table]; !ok {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Unknown table"))
		return
	}
	if !json.Valid(req.Params) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "params must be valid JSON"))
		return
	}
	view, err := h.viewsRepo.Create(userID, req.Table, req.Name, req.Params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, types.NewSuccessResponse(view))
}

func (h *SavedViewsHandler) Update(c *gin.Context) {
	userID := c.GetInt("userId")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid view id"))
		return
	}
	var req struct {
		Name   *string          `json:"name"`
		Params *json.RawMessage `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if req.Name == nil && req.Params == nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Nothing to update"))
		return
	}
	if req.Params != nil && !json.Valid(*req.Params) {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "params must be valid JSON"))
		return
	}
	view, err := h.viewsRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if view == nil || view.IsDeleted || view.UserID != userID {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "View not found"))
		return
	}
	if err := h.viewsRepo.Update(id, req.Name, req.Params); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	updated, err := h.viewsRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(updated))
}

func (h *SavedViewsHandler) Delete(c *gin.Context) {
	h.setDeleted(c, true)
}

func (h *SavedViewsHandler) Restore(c *gin.Context) {
	h.setDeleted(c, false)
}

func (h *SavedViewsHandler) setDeleted(c *gin.Context, deleted bool) {
	userID := c.GetInt("userId")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid view id"))
		return
	}
	view, err := h.viewsRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if view == nil || view.UserID != userID {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "View not found"))
		return
	}
	if err := h.viewsRepo.SetDeleted(id, deleted); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SavedViewsHandler) List(c *gin.Context) {
	userID := c.GetInt("userId")
	table := c.Query("table")
	if _, ok := h.tables[table]; !ok {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Unknown table"))
		return
	}
	p := types.ParsePaginationParams(c)
	views, total, err := h.viewsRepo.ListForUser(userID, table, p.Page, p.PerPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(p.BuildResponse(views, total)))
}
