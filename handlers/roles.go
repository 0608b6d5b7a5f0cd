package handlers

import (
	"net/http"
	"strconv"

	"atrium-api/policy"
	"atrium-api/repository"
	"atrium-api/types"

	"github.com/gin-gonic/gin"
)

type RolesHandler struct {
	rolesRepo *repository.RolesRepository
	auth      *policy.Authorizer
}

func NewRolesHandler(rolesRepo *repository.RolesRepository, auth *policy.Authorizer) *RolesHandler {
	return &RolesHandler{rolesRepo: rolesRepo, auth: auth}
}

func (h *RolesHandler) require(c *gin.Context, permission string) bool {
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

func (h *RolesHandler) ListRoles(c *gin.Context) {
	if !h.require(c, "roles.read") {
		return
	}
	roles, err := h.rolesRepo.ListRoles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(roles))
}

func (h *RolesHandler) ListPermissions(c *gin.Context) {
	if !h.require(c, "roles.read") {
		return
	}
	perms, err := h.rolesRepo.ListPermissions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(perms))
}

func (h *RolesHandler) AssignRole(c *gin.Context) {
	if !h.require(c, "roles.update") {
		return
	}
	h.changeUserRole(c, h.rolesRepo.AssignRoleToUser)
}

func (h *RolesHandler) RemoveRole(c *gin.Context) {
	if !h.require(c, "roles.update") {
		return
	}
	h.changeUserRole(c, h.rolesRepo.RemoveRoleFromUser)
}

func (h *RolesHandler) changeUserRole(c *gin.Context, apply func(userID, roleID int) error) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid user id"))
		return
	}
	var req struct {
		RoleID int `json:"roleId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	role, err := h.rolesRepo.GetRoleByID(req.RoleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if role == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Role not found"))
		return
	}
	if err := apply(userID, req.RoleID); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RolesHandler) GrantPermission(c *gin.Context) {
	if !h.require(c, "roles.update") {
		return
	}
	h.changeRolePermission(c, h.rolesRepo.GrantPermissionToRole)
}

func (h *RolesHandler) RevokePermission(c *gin.Context) {
	if !h.require(c, "roles.update") {
		return
	}
	h.changeRolePermission(c, h.rolesRepo.RevokePermissionFromRole)
}

func (h *RolesHandler) changeRolePermission(c *gin.Context, apply func(roleID, permissionID int) error) {
	roleID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid role id"))
		return
	}
	var req struct {
		PermissionID int `json:"permissionId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if err := apply(roleID, req.PermissionID); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
