package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"atrium-api/initializers"
	"atrium-api/policy"
	"atrium-api/repository"
	"atrium-api/types"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type UsersHandler struct {
	usersRepo *repository.UsersRepository
	auth      *policy.Authorizer
}

func NewUsersHandler(usersRepo *repository.UsersRepository, auth *policy.Authorizer) *UsersHandler {
	return &UsersHandler{usersRepo: usersRepo, auth: auth}
}

func (h *UsersHandler) Me(c *gin.Context) {
	userID := c.GetInt("userId")
	user, err := h.usersRepo.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if user == nil || user.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "User not found"))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(user))
}

func (h *UsersHandler) GetUser(c *gin.Context) {
	actorID := c.GetInt("userId")
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid user id"))
		return
	}
	if actorID != targetID {
		allowed, err := h.auth.Can(actorID, "users.read")
		if err != nil {
			c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "No access to this user"))
			return
		}
	}
	user, err := h.usersRepo.GetUserByID(targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "User not found"))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(user))
}

func (h *UsersHandler) UpdateUser(c *gin.Context) {
	actorID := c.GetInt("userId")
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid user id"))
		return
	}
	allowed, err := h.auth.CanManageUser(actorID, targetID, "update")
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Cannot update this user"))
		return
	}

	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	target, err := h.usersRepo.GetUserByID(targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if target == nil || target.IsDeleted {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "User not found"))
		return
	}
	if err := h.usersRepo.UpdateUser(targetID, req.Name, req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	updated, err := h.usersRepo.GetUserByID(targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(updated))
}

func (h *UsersHandler) DeleteUser(c *gin.Context) {
	h.setDeleted(c, true, "delete")
}

func (h *UsersHandler) RestoreUser(c *gin.Context) {
	h.setDeleted(c, false, "restore")
}

func (h *UsersHandler) setDeleted(c *gin.Context, deleted bool, action string) {
	actorID := c.GetInt("userId")
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "Invalid user id"))
		return
	}
	allowed, err := h.auth.CanManageUser(actorID, targetID, action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, types.NewErrorResponse(types.ErrorCodeForbidden, "Cannot "+action+" this user"))
		return
	}
	target, err := h.usersRepo.GetUserByID(targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, types.NewErrorResponse(types.ErrorCodeNotFound, "User not found"))
		return
	}
	if err := h.usersRepo.SetUserDeleted(targetID, deleted); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadAvatar stores a profile image for the authenticated user. The
// real content type is sniffed from the stream, never trusted from the
// multipart header.
func (h *UsersHandler) UploadAvatar(c *gin.Context) {
	userID := c.GetInt("userId")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, initializers.Conf.MaxAvatarSize+1)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, "File is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	defer src.Close()

	mime, err := mimetype.DetectReader(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	if err := initializers.CheckAvatarAllowed(fileHeader.Size, mime.String()); err != nil {
		c.JSON(http.StatusBadRequest, types.NewErrorResponse(types.ErrorCodeValidation, err.Error()))
		return
	}
	if _, err := src.Seek(0, 0); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	objectPath := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), mime.Extension())
	_, err = initializers.MinioClient.PutObject(
		context.Background(),
		initializers.Conf.Bucket,
		objectPath,
		src,
		fileHeader.Size,
		minio.PutObjectOptions{ContentType: mime.String()},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, "Failed to store avatar"))
		return
	}
	if err := h.usersRepo.SetAvatarPath(userID, objectPath); err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}

	url, err := initializers.AvatarURL(objectPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.NewErrorResponse(types.ErrorCodeInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.NewSuccessResponse(gin.H{
		"avatarPath": objectPath,
		"avatarUrl":  url,
	}))
}
