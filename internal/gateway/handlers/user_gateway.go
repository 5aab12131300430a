package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	user "brewstock-system/internal/services/user/handler"
)

type UserHTTPHandler struct {
	users *user.UserHandler
}

func NewUserHTTPHandler(userHandler *user.UserHandler) *UserHTTPHandler {
	return &UserHTTPHandler{
		users: userHandler,
	}
}

func (s *UserHTTPHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := s.users.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, created)
}

func (s *UserHTTPHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.users.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, resp)
}

func (s *UserHTTPHandler) GetUser(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	found, err := s.users.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, found)
}

func (s *UserHTTPHandler) ListUsers(c *gin.Context) {
	users, err := s.users.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, users)
}
