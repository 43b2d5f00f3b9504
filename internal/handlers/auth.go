package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/middlewares"
	"github.com/zarathustragosling/project-management/internal/models"
)

// LoginPage shows the login form, or sends an already-authenticated user home.
func (h *Handlers) LoginPage(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, "/user/")
		return
	}
	render(c, "login", gin.H{})
}

// Login authenticates by email and password and issues a session.
func (h *Handlers) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	if email == "" || password == "" {
		redirectWithError(c, "/auth/login", "Пожалуйста, заполните все поля")
		return
	}

	var user models.User
	err := h.db.Where("email = ?", email).First(&user).Error
	if err != nil || !user.CheckPassword(password) {
		if err != nil && err != gorm.ErrRecordNotFound {
			log.Printf("Login lookup failed for %s: %v", email, err)
		}
		redirectWithError(c, "/auth/login", "Неверный email или пароль")
		return
	}

	session := models.Session{
		UserID:    user.ID,
		Token:     models.NewSessionToken(),
		ExpiresAt: time.Now().Add(h.config.SessionDuration),
	}
	if err := h.db.Create(&session).Error; err != nil {
		log.Printf("Failed to create session for user %d: %v", user.ID, err)
		internalError(c)
		return
	}

	c.SetCookie(middlewares.SessionCookie, session.Token,
		int(h.config.SessionDuration.Seconds()), "/", "", false, true)

	if middlewares.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": session.Token})
		return
	}
	redirectWithNotice(c, "/user/", "Вы успешно вошли в систему")
}

// Logout revokes the current session and clears the cookie.
func (h *Handlers) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(middlewares.SessionCookie); err == nil && cookie != "" {
		if err := h.db.Where("token = ?", cookie).Delete(&models.Session{}).Error; err != nil {
			log.Printf("Failed to revoke session: %v", err)
		}
	}
	c.SetCookie(middlewares.SessionCookie, "", -1, "/", "", false, true)
	redirectWithNotice(c, "/auth/login", "Вы вышли из системы")
}

// RegisterPage shows the registration form.
func (h *Handlers) RegisterPage(c *gin.Context) {
	if currentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, "/user/")
		return
	}
	render(c, "register", gin.H{})
}

// Register creates a new account. Duplicate usernames and emails are
// validation failures, not crashes.
func (h *Handlers) Register(c *gin.Context) {
	username := c.PostForm("username")
	email := c.PostForm("email")
	password := c.PostForm("password")
	passwordConfirm := c.PostForm("password_confirm")

	if username == "" || email == "" || password == "" {
		redirectWithError(c, "/auth/register", "Пожалуйста, заполните все обязательные поля")
		return
	}
	if passwordConfirm != "" && password != passwordConfirm {
		redirectWithError(c, "/auth/register", "Пароли не совпадают")
		return
	}

	var count int64
	h.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		redirectWithError(c, "/auth/register", "Пользователь с таким email уже существует")
		return
	}
	h.db.Model(&models.User{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		redirectWithError(c, "/auth/register", "Пользователь с таким именем уже существует")
		return
	}

	user := models.User{Username: username, Email: email}
	if err := user.SetPassword(password); err != nil {
		log.Printf("Failed to hash password: %v", err)
		internalError(c)
		return
	}
	if err := h.db.Create(&user).Error; err != nil {
		// Unique index race still surfaces as a user-visible conflict.
		redirectWithError(c, "/auth/register", "Пользователь с такими данными уже существует")
		return
	}

	redirectWithNotice(c, "/auth/login", "Регистрация успешна! Теперь вы можете войти в систему")
}
