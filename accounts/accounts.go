package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"travelblog/cache"
	"travelblog/forms"
	"travelblog/models"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AccountsModule struct {
	db         *gorm.DB
	bcryptCost int
	logger     *slog.Logger
}

func NewAccountsModule(db *gorm.DB, bcryptCost int, logger *slog.Logger) *AccountsModule {
	return &AccountsModule{
		db:         db,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (a *AccountsModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/register/", a.registerPage)
	router.POST("/register/", a.registerPost)
	router.GET("/login/", cache.Never(), a.loginPage)
	router.POST("/login/", cache.Never(), a.loginPost)
	router.GET("/logout/", cache.Never(), a.logout)
	router.POST("/logout/", cache.Never(), a.logout)
}

// Identity loads the signed-in user for every request. A session that points
// at a user who no longer exists is cleared.
func (a *AccountsModule) Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get("user_id").(uint)
		if !ok {
			c.Next()
			return
		}

		var user models.User
		err := a.db.WithContext(c.Request.Context()).First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			session.Clear()
			if err := session.Save(); err != nil {
				a.logger.WarnContext(c.Request.Context(), "clear stale session", slog.Any("error", err))
			}
			c.Next()
			return
		}
		if err != nil {
			a.logger.ErrorContext(c.Request.Context(), "load session user", slog.Any("error", err))
			c.Next()
			return
		}

		c.Set("user", &user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// CurrentUser returns the signed-in user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get("user"); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// Register creates an account. Validation problems come back as
// forms.Errors, anything else as a plain error.
func (a *AccountsModule) Register(ctx context.Context, form forms.RegisterForm) (*models.User, error) {
	form, errs := forms.CleanRegistration(form)
	if form.Username != "" && !errs.Has("username", forms.KindInvalid) {
		taken, err := a.usernameTaken(ctx, form.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("username", forms.KindTaken, "A user with that username already exists.")
		}
	}
	if !errs.OK() {
		return nil, errs
	}

	hash, err := hashPassword(form.Password1, a.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
	}
	if err := a.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Lost a race for the same username.
		taken, lookupErr := a.usernameTaken(ctx, form.Username)
		if lookupErr != nil {
			a.logger.ErrorContext(ctx, "recheck username after failed insert", slog.Any("error", lookupErr))
			return nil, fmt.Errorf("create user: %w", errors.Join(err, lookupErr))
		}
		if taken {
			var errs forms.Errors
			errs.Add("username", forms.KindTaken, "A user with that username already exists.")
			return nil, errs
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (a *AccountsModule) usernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", username).
		Count(&count).Error
	return count > 0, err
}

// Authenticate returns the user for username and password. Unknown users and
// wrong passwords both yield ErrInvalidCredentials after a bcrypt comparison.
func (a *AccountsModule) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		checkPasswordHash(password, a.dummyHash())
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (a *AccountsModule) registerPage(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "register.html", gin.H{
		"title":  "Sign up",
		"form":   forms.RegisterForm{},
		"errors": forms.Errors(nil),
	})
}

func (a *AccountsModule) registerPost(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	var form forms.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"error": "Invalid form submission."})
		return
	}

	user, err := a.Register(c.Request.Context(), form)
	var errs forms.Errors
	if errors.As(err, &errs) {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"title":  "Sign up",
			"form":   form.Redisplay(),
			"errors": errs,
		})
		return
	}
	if err != nil {
		a.logger.ErrorContext(c.Request.Context(), "register user", slog.Any("error", err))
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Could not create the account."})
		return
	}

	if err := a.startSession(c, user); err != nil {
		a.logger.ErrorContext(c.Request.Context(), "start session", slog.Any("error", err))
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Could not sign you in."})
		return
	}

	a.logger.InfoContext(c.Request.Context(), "user registered", slog.Any("user_id", user.ID))
	c.Redirect(http.StatusFound, "/")
}

func (a *AccountsModule) loginPage(c *gin.Context) {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{
		"title":  "Log in",
		"form":   forms.LoginForm{},
		"errors": forms.Errors(nil),
	})
}

func (a *AccountsModule) loginPost(c *gin.Context) {
	var form forms.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"error": "Invalid form submission."})
		return
	}

	form, errs := forms.CleanLogin(form)
	if !errs.OK() {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"title":  "Log in",
			"form":   forms.LoginForm{Username: form.Username},
			"errors": errs,
		})
		return
	}

	user, err := a.Authenticate(c.Request.Context(), form.Username, form.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"title":  "Log in",
			"form":   forms.LoginForm{Username: form.Username},
			"errors": forms.LoginFailed(),
		})
		return
	}
	if err != nil {
		a.logger.ErrorContext(c.Request.Context(), "authenticate", slog.Any("error", err))
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Could not sign you in."})
		return
	}

	if err := a.startSession(c, user); err != nil {
		a.logger.ErrorContext(c.Request.Context(), "start session", slog.Any("error", err))
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"error": "Could not sign you in."})
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// startSession drops whatever the session held before and binds it to user.
func (a *AccountsModule) startSession(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set("user_id", user.ID)
	return session.Save()
}

func (a *AccountsModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		a.logger.WarnContext(c.Request.Context(), "clear session", slog.Any("error", err))
	}

	c.Redirect(http.StatusFound, "/")
}
