package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/splitroomhq/splitroom_backend/internal/core/ports/services"
	"github.com/splitroomhq/splitroom_backend/internal/dto"
	"github.com/splitroomhq/splitroom_backend/internal/middleware"
)

// roomHandler handles HTTP requests related to rooms and their rosters.
type roomHandler struct {
	roomService portssvc.RoomSvcFacade
}

// newRoomHandler creates a new roomHandler.
func newRoomHandler(rs portssvc.RoomSvcFacade) *roomHandler {
	return &roomHandler{
		roomService: rs,
	}
}

// registerRoomRoutes registers all room-related routes.
func registerRoomRoutes(rg *gin.RouterGroup, roomService portssvc.RoomSvcFacade) {
	h := newRoomHandler(roomService)

	rooms := rg.Group("/rooms")
	{
		rooms.POST("", h.createRoom)
		rooms.GET("", h.listRooms)
		rooms.POST("/join", h.joinRoom)
		rooms.GET("/:room_id", h.getRoom)
		rooms.DELETE("/:room_id", h.deactivateRoom)
		rooms.POST("/:room_id/leave", h.leaveRoom)
		rooms.GET("/:room_id/users", h.listRoomUsers)

		rooms.GET("/:room_id/members", h.listRoomMembers)
		rooms.POST("/:room_id/members", h.addMember)
		rooms.PUT("/:room_id/members/:member_id", h.renameMember)
		rooms.DELETE("/:room_id/members/:member_id", h.removeMember)
	}
}

// requestingUser pulls the authenticated user ID out of the context, replying
// 401 itself when it is missing.
func requestingUser(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// createRoom godoc
// @Summary Create a room
// @Description Creates a new room; the creator becomes its admin and first roster member.
// @Tags rooms
// @Accept json
// @Produce json
// @Param room body dto.CreateRoomRequest true "Room details"
// @Success 201 {object} dto.RoomResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create room"
// @Security BearerAuth
// @Router /rooms [post]
func (h *roomHandler) createRoom(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for create room request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), req.Name, req.Password, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to create room")
		return
	}

	logger.Info("Room created", slog.String("room_id", room.RoomID), slog.String("creator_user_id", userID))
	c.JSON(http.StatusCreated, dto.ToRoomResponse(room))
}

// listRooms godoc
// @Summary List the user's rooms
// @Description Retrieves all rooms the authenticated user belongs to.
// @Tags rooms
// @Produce json
// @Success 200 {object} dto.ListRoomsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list rooms"
// @Security BearerAuth
// @Router /rooms [get]
func (h *roomHandler) listRooms(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	rooms, err := h.roomService.ListUserRooms(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list rooms")
		return
	}

	c.JSON(http.StatusOK, dto.ToListRoomsResponse(rooms))
}

// joinRoom godoc
// @Summary Join a room
// @Description Joins a room identified by join code, after verifying the room password.
// @Tags rooms
// @Accept json
// @Produce json
// @Param join body dto.JoinRoomRequest true "Join code and room password"
// @Success 200 {object} dto.RoomResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Wrong room password"
// @Failure 404 {object} map[string]string "Room not found"
// @Failure 409 {object} map[string]string "Already a member"
// @Security BearerAuth
// @Router /rooms/join [post]
func (h *roomHandler) joinRoom(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for join room request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	room, err := h.roomService.JoinRoom(c.Request.Context(), req.JoinCode, req.Password, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to join room")
		return
	}

	logger.Info("User joined room", slog.String("room_id", room.RoomID), slog.String("user_id", userID))
	c.JSON(http.StatusOK, dto.ToRoomResponse(room))
}

// getRoom godoc
// @Summary Get a room
// @Description Retrieves a room's details. Members only.
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 200 {object} dto.RoomResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id} [get]
func (h *roomHandler) getRoom(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	room, err := h.roomService.GetRoomByID(c.Request.Context(), roomID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to retrieve room")
		return
	}

	c.JSON(http.StatusOK, dto.ToRoomResponse(room))
}

// deactivateRoom godoc
// @Summary Deactivate a room
// @Description Marks a room inactive so it no longer accepts joins or expenses. Admin only.
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden (caller is not admin)"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id} [delete]
func (h *roomHandler) deactivateRoom(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	if err := h.roomService.DeactivateRoom(c.Request.Context(), roomID, userID); err != nil {
		respondWithError(c, logger, err, "Failed to deactivate room")
		return
	}

	logger.Info("Room deactivated", slog.String("room_id", roomID), slog.String("user_id", userID))
	c.Status(http.StatusNoContent)
}

// leaveRoom godoc
// @Summary Leave a room
// @Description Removes the authenticated user from the room. A user with an outstanding balance cannot leave.
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room or membership not found"
// @Failure 409 {object} map[string]string "Outstanding balance"
// @Security BearerAuth
// @Router /rooms/{room_id}/leave [post]
func (h *roomHandler) leaveRoom(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	if err := h.roomService.LeaveRoom(c.Request.Context(), roomID, userID); err != nil {
		respondWithError(c, logger, err, "Failed to leave room")
		return
	}

	logger.Info("User left room", slog.String("room_id", roomID), slog.String("user_id", userID))
	c.Status(http.StatusNoContent)
}

// listRoomUsers godoc
// @Summary List a room's users
// @Description Retrieves all user accounts and their roles for a room. Members only.
// @Tags rooms
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 200 {object} dto.ListRoomUsersResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/users [get]
func (h *roomHandler) listRoomUsers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	users, err := h.roomService.ListRoomUsers(c.Request.Context(), roomID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list room users")
		return
	}

	c.JSON(http.StatusOK, dto.ToListRoomUsersResponse(users))
}

// listRoomMembers godoc
// @Summary List a room's roster
// @Description Retrieves the roster of settlement participants. Members only.
// @Tags members
// @Produce json
// @Param room_id path string true "Room ID"
// @Success 200 {object} dto.ListMembersResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/members [get]
func (h *roomHandler) listRoomMembers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	members, err := h.roomService.ListRoomMembers(c.Request.Context(), roomID, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to list room members")
		return
	}

	c.JSON(http.StatusOK, dto.ToListMembersResponse(members))
}

// addMember godoc
// @Summary Add a roster member
// @Description Adds an unlinked roster member by display name. Admin only.
// @Tags members
// @Accept json
// @Produce json
// @Param room_id path string true "Room ID"
// @Param member body dto.AddMemberRequest true "Member name"
// @Success 201 {object} dto.MemberResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden (caller is not admin)"
// @Failure 404 {object} map[string]string "Room not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/members [post]
func (h *roomHandler) addMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for add member request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	member, err := h.roomService.AddMember(c.Request.Context(), roomID, req.Name, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to add member")
		return
	}

	logger.Info("Roster member added", slog.String("room_id", roomID), slog.String("member_id", member.MemberID))
	c.JSON(http.StatusCreated, dto.ToMemberResponse(member))
}

// renameMember godoc
// @Summary Rename a roster member
// @Description Changes a roster member's display name. Admin only.
// @Tags members
// @Accept json
// @Produce json
// @Param room_id path string true "Room ID"
// @Param member_id path string true "Member ID"
// @Param member body dto.RenameMemberRequest true "New member name"
// @Success 200 {object} dto.MemberResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden (caller is not admin)"
// @Failure 404 {object} map[string]string "Room or member not found"
// @Security BearerAuth
// @Router /rooms/{room_id}/members/{member_id} [put]
func (h *roomHandler) renameMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")
	memberID := c.Param("member_id")

	var req dto.RenameMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for rename member request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	member, err := h.roomService.RenameMember(c.Request.Context(), roomID, memberID, req.Name, userID)
	if err != nil {
		respondWithError(c, logger, err, "Failed to rename member")
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberResponse(member))
}

// removeMember godoc
// @Summary Remove a roster member
// @Description Soft-deletes a roster member. Admin only; blocked while the member has an outstanding balance.
// @Tags members
// @Produce json
// @Param room_id path string true "Room ID"
// @Param member_id path string true "Member ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden (caller is not admin)"
// @Failure 404 {object} map[string]string "Room or member not found"
// @Failure 409 {object} map[string]string "Outstanding balance"
// @Security BearerAuth
// @Router /rooms/{room_id}/members/{member_id} [delete]
func (h *roomHandler) removeMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	roomID := c.Param("room_id")
	memberID := c.Param("member_id")

	userID, ok := requestingUser(c, logger)
	if !ok {
		return
	}

	if err := h.roomService.RemoveMember(c.Request.Context(), roomID, memberID, userID); err != nil {
		respondWithError(c, logger, err, "Failed to remove member")
		return
	}

	logger.Info("Roster member removed", slog.String("room_id", roomID), slog.String("member_id", memberID))
	c.Status(http.StatusNoContent)
}
