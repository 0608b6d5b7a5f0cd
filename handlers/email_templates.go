package handlers

import (
	"net/http"
	"strconv"

	"atrium-api/policy"
	"atrium-api/repository"
	"atrium-api/types"

	"github.com/gin-gonic/gin"
)

type EmailTemplatesHandler struct {
	templatesRepo *repository.EmailTemplatesRepository
	auth          *policy.Authorizer
}

func NewEmailTemplatesHandler(templatesRepo *repository.EmailTemplatesRepository, auth *policy.Authorizer) *EmailTemplatesHandler {
	return &EmailTemplatesHandler{templatesRepo: templatesRepo, auth: auth}
}

func (h *EmailTemplatesHandler) require(c *gin.Context, permission string) bool {
	allowed, err := h.auth.Can(c.GetInt("userId"), permission)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Insufficient permissions"))
		return false
	}
	return true
}

func (h *EmailTemplatesHandler) Create(c *gin.Context) {
	if !h.require(c, "email_templates.create") {
		return
	}
	var req struct {
		Key     string `json:"key" binding:"required"`
		Name    string `json:"name" binding:"required"`
		Subject string `json:"subject" binding:"required"`
		Body    string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	existing, err := h.templatesRepo.GetByKey(req.Key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, types.NewErrorResponse(types.ErrorCodeConflict, "Template key already exists"))
		return
	}
	tpl, err := h.templatesRepo.Create(req.Key, req.Name, req.Subject, req.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, types.NewSuccessResponse(tpl))
}

func (h *EmailTemplatesHandler) Get(c *gin.Context) {
	if !h.require(c, "email_templates.read") {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid template id"))
		return
	}
	tpl, err := h.templatesRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if tpl == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Template not found"))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(tpl))
}

func (h *EmailTemplatesHandler) List(c *gin.Context) {
	if !h.require(c, "email_templates.read") {
		return
	}
	p := types.ParsePaginationParams(c)
	items, total, err := h.templatesRepo.List(p.Offset, p.PerPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(p.BuildResponse(items, total)))
}

func (h *EmailTemplatesHandler) Update(c *gin.Context) {
	if !h.require(c, "email_templates.update") {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid template id"))
		return
	}
	var req struct {
		Name    *string `json:"name"`
		Subject *string `json:"subject"`
		Body    *string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if req.Name == nil && req.Subject == nil && req.Body == nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Nothing to update"))
		return
	}
	tpl, err := h.templatesRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if tpl == nil || tpl.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Template not found"))
		return
	}
	if err := h.templatesRepo.Update(id, req.Name, req.Subject, req.Body); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	updated, err := h.templatesRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(updated))
}

func (h *EmailTemplatesHandler) Delete(c *gin.Context) {
	if !h.require(c, "email_templates.delete") {
		return
	}
	h.setDeleted(c, true)
}

func (h *EmailTemplatesHandler) Restore(c *gin.Context) {
	if !h.require(c, "email_templates.delete") {
		return
	}
	h.setDeleted(c, false)
}

func (h *EmailTemplatesHandler) setDeleted(c *gin.Context, deleted bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid template id"))
		return
	}
	tpl, err := h.templatesRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if tpl == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Template not found"))
		return
	}
	if err := h.templatesRepo.SetDeleted(id, deleted); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// Preview renders a template with caller-supplied sample data. Unknown
// placeholders stay visible so editors can spot typos.
func (h *EmailTemplatesHandler) Preview(c *gin.Context) {
	if !h.require(c, "email_templates.read") {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid template id"))
		return
	}
	var req struct {
		Data map[string]string `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	tpl, err := h.templatesRepo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if tpl == nil || tpl.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Template not found"))
		return
	}
	subject, body := tpl.Render(req.Data)
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{
		"subject": subject,
		"body":    body,
	}))
}
