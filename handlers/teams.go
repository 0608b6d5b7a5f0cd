package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"atrium-api/globals"
	"atrium-api/pkg/notify"
	"atrium-api/policy"
	"atrium-api/repository"
	"atrium-api/types"

	"github.com/gin-gonic/gin"
)

type TeamsHandler struct {
	teamsRepo *repository.TeamsRepository
	usersRepo *repository.UsersRepository
	rolesRepo *repository.RolesRepository
	auth      *policy.Authorizer
	notifier  *notify.Notifier
}

func NewTeamsHandler(
	teamsRepo *repository.TeamsRepository,
	usersRepo *repository.UsersRepository,
	rolesRepo *repository.RolesRepository,
	auth *policy.Authorizer,
	notifier *notify.Notifier,
) *TeamsHandler {
	return &TeamsHandler{teamsRepo: teamsRepo, usersRepo: usersRepo, rolesRepo: rolesRepo, auth: auth, notifier: notifier}
}

func (h *TeamsHandler) CreateTeam(c *gin.Context) {
	actorID := c.GetInt("userId")
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	team, err := h.teamsRepo.CreateTeam(req.Name, actorID, globals.AdminRoleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, "Failed to create team"))
		return
	}
	c.JSON(http.StatusCreated, types.NewSuccessResponse(team))
}

func (h *TeamsHandler) GetTeam(c *gin.Context) {
	actorID := c.GetInt("userId")
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid team id"))
		return
	}
	team, err := h.teamsRepo.GetTeamByID(teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if team == nil || team.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Team not found"))
		return
	}
	member, err := h.teamsRepo.IsTeamMember(actorID, teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !member {
		allowed, err := h.auth.Can(actorID, "teams.read")
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to this team"))
			return
		}
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(team))
}

func (h *TeamsHandler) ListMyTeams(c *gin.Context) {
	actorID := c.GetInt("userId")
	p := types.ParsePaginationParams(c)
	teams, total, err := h.teamsRepo.GetTeamsForUserPaginated(actorID, p.Offset, p.PerPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(p.BuildResponse(teams, total)))
}

func (h *TeamsHandler) UpdateTeam(c *gin.Context) {
	actorID := c.GetInt("userId")
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid team id"))
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	team, err := h.teamsRepo.GetTeamByID(teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if team == nil || team.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Team not found"))
		return
	}
	allowed, err := h.auth.CanManageTeam(actorID, team.OwnerID, "update")
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Cannot update this team"))
		return
	}
	if err := h.teamsRepo.UpdateTeamName(teamID, req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	// Members learn about the rename through the team channel.
	if err := h.notifier.Info("Team renamed").
		Content("The team is now called " + req.Name + ".").
		ToTeam(teamID).
		Send(); err != nil {
		slog.Error("team rename toast not delivered", "teamId", teamID, "error", err)
	}

	updated, err := h.teamsRepo.GetTeamByID(teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(updated))
}

func (h *TeamsHandler) DeleteTeam(c *gin.Context) {
	h.setTeamDeleted(c, true, "delete")
}

func (h *TeamsHandler) RestoreTeam(c *gin.Context) {
	h.setTeamDeleted(c, false, "restore")
}

func (h *TeamsHandler) setTeamDeleted(c *gin.Context, deleted bool, action string) {
	actorID := c.GetInt("userId")
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid team id"))
		return
	}
	team, err := h.teamsRepo.GetTeamByID(teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if team == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Team not found"))
		return
	}
	allowed, err := h.auth.CanManageTeam(actorID, team.OwnerID, action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Cannot "+action+" this team"))
		return
	}
	if err := h.teamsRepo.SetTeamDeleted(teamID, deleted); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TeamsHandler) ListMembers(c *gin.Context) {
	actorID := c.GetInt("userId")
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid team id"))
		return
	}
	member, err := h.teamsRepo.IsTeamMember(actorID, teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !member {
		allowed, err := h.auth.Can(actorID, "teams.read")
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to this team"))
			return
		}
	}
	p := types.ParsePaginationParams(c)
	members, total, err := h.teamsRepo.GetMembersPaginated(teamID, p.Offset, p.PerPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(p.BuildResponse(members, total)))
}

// InviteMember adds a registered user to the team and fans out two
// notifications: a persisted toast to the invitee and a live toast to
// the team channel.
func (h *TeamsHandler) InviteMember(c *gin.Context) {
	actorID := c.GetInt("userId")
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid team id"))
		return
	}
	var req struct {
		Email  string `json:"email" binding:"required,email"`
		RoleID int    `json:"roleId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	team, err := h.teamsRepo.GetTeamByID(teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if team == nil || team.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Team not found"))
		return
	}
	allowed, err := h.auth.CanManageTeam(actorID, team.OwnerID, "members")
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Cannot manage members of this team"))
		return
	}

	invitee, err := h.usersRepo.GetUserByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if invitee == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "No user with this email"))
		return
	}
	roleID := req.RoleID
	if roleID == 0 {
		roleID = globals.MemberRoleID
	}
	if err := h.teamsRepo.AddMember(teamID, invitee.ID, roleID); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	if err := h.notifier.Success("You joined "+team.Name).
		Content("You were added to the team " + team.Name + ".").
		Link("/teams/" + strconv.Itoa(teamID)).
		ToUser(invitee.ID).
		Persist().
		Send(); err != nil {
		slog.Error("invite notification not delivered", "teamId", teamID, "userId", invitee.ID, "error", err)
	}
	if err := h.notifier.Info("New member").
		Content(invitee.Name + " joined the team.").
		ToTeam(teamID).
		Send(); err != nil {
		slog.Error("member joined toast not delivered", "teamId", teamID, "error", err)
	}

	c.Status(http.StatusNoContent)
}

func (h *TeamsHandler) RemoveMember(c *gin.Context) {
	actorID := c.GetInt("userId")
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid team id"))
		return
	}
	memberID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid user id"))
		return
	}
	team, err := h.teamsRepo.GetTeamByID(teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if team == nil || team.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Team not found"))
		return
	}
	if memberID == team.OwnerID {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "The owner cannot be removed from the team"))
		return
	}
	allowed, err := h.auth.CanManageTeam(actorID, team.OwnerID, "members")
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Cannot manage members of this team"))
		return
	}
	if err := h.teamsRepo.RemoveMember(teamID, memberID); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TeamsHandler) SetMemberRole(c *gin.Context) {
	actorID := c.GetInt("userId")
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid team id"))
		return
	}
	memberID, err := strconv.Atoi(c.Param("userId"))
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
	team, err := h.teamsRepo.GetTeamByID(teamID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if team == nil || team.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "Team not found"))
		return
	}
	allowed, err := h.auth.CanManageTeam(actorID, team.OwnerID, "members")
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Cannot manage members of this team"))
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
	if err := h.teamsRepo.SetMemberRole(teamID, memberID, req.RoleID); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
