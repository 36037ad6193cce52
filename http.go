package identity

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// HTTPControllerRoutes holds the mount points for the JSON API.
type HTTPControllerRoutes struct {
	Register       string
	Login          string
	Token          string
	Profile        string
	Password       string
	Flag           string
	Delete         string
	Forgot         string
	Reset          string
	AdminUsers     string
	AdminUser      string
	AdminPassword  string
	AdminUserCount string
}

// HTTPController exposes the person, admin and recovery services over a
// fiber app as a JSON API. Bearer tokens travel in the Authorization
// header.
type HTTPController struct {
	Logger   Logger
	Persons  *PersonService
	Admins   *AdminService
	Recovery *RecoveryService
	Routes   *HTTPControllerRoutes
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func WithHTTPLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Logger = logger
		return c
	}
}

func WithPersonService(svc *PersonService) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Persons = svc
		return c
	}
}

func WithAdminService(svc *AdminService) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Admins = svc
		return c
	}
}

func WithRecoveryService(svc *RecoveryService) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Recovery = svc
		return c
	}
}

func NewHTTPController(opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger: defLogger{},
		Routes: &HTTPControllerRoutes{
			Register:       "/auth/register",
			Login:          "/auth/login",
			Token:          "/auth/token",
			Profile:        "/auth/profile",
			Password:       "/auth/password",
			Flag:           "/auth/flags/:flag",
			Delete:         "/auth/account",
			Forgot:         "/auth/password/forgot",
			Reset:          "/auth/password/reset",
			AdminUsers:     "/admin/users",
			AdminUser:      "/admin/users/:id",
			AdminPassword:  "/admin/users/:id/password",
			AdminUserCount: "/admin/users-count",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Persons == nil {
		panic("Missing PersonService in identity controller...")
	}

	return c
}

// RegisterRoutes mounts every handler on the app. Admin and recovery
// routes are skipped when the matching service is absent.
func RegisterRoutes(app *fiber.App, opts ...HTTPControllerOption) *HTTPController {
	c := NewHTTPController(opts...)

	app.Post(c.Routes.Register, c.RegisterPost)
	app.Post(c.Routes.Login, c.LoginPost)
	app.Get(c.Routes.Token, c.TokenGet)
	app.Put(c.Routes.Profile, c.ProfilePut)
	app.Put(c.Routes.Password, c.PasswordPut)
	app.Put(c.Routes.Flag, c.FlagPut)
	app.Delete(c.Routes.Flag, c.FlagDelete)
	app.Delete(c.Routes.Delete, c.AccountDelete)

	if c.Recovery != nil {
		app.Post(c.Routes.Forgot, c.ForgotPost)
		app.Post(c.Routes.Reset, c.ResetPost)
	}

	if c.Admins != nil {
		app.Post(c.Routes.AdminUsers, c.AdminCreatePost)
		app.Get(c.Routes.AdminUsers, c.AdminListGet)
		app.Get(c.Routes.AdminUserCount, c.AdminCountGet)
		app.Put(c.Routes.AdminUser, c.AdminUpdatePut)
		app.Put(c.Routes.AdminPassword, c.AdminPasswordPut)
		app.Delete(c.Routes.AdminUser, c.AdminDeleteDelete)
	}

	return c
}

func (c *HTTPController) ok(ctx *fiber.Ctx, body fiber.Map) error {
	if body == nil {
		body = fiber.Map{}
	}
	body["ok"] = true
	return ctx.JSON(body)
}

func (c *HTTPController) fail(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal error"
	code := ""

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		message = rich.Message
		code = rich.TextCode
		switch rich.Category {
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			status = fiber.StatusBadRequest
		case goerrors.CategoryAuth:
			status = fiber.StatusUnauthorized
		case goerrors.CategoryAuthz:
			status = fiber.StatusForbidden
		case goerrors.CategoryNotFound:
			status = fiber.StatusNotFound
		case goerrors.CategoryConflict:
			status = fiber.StatusConflict
		case goerrors.CategoryRateLimit:
			status = fiber.StatusTooManyRequests
		default:
			status = fiber.StatusInternalServerError
		}
	}

	if status == fiber.StatusInternalServerError {
		c.Logger.Error("request failed: %v", err)
	}

	return ctx.Status(status).JSON(fiber.Map{
		"ok":    false,
		"error": message,
		"code":  code,
	})
}

func bearerToken(ctx *fiber.Ctx) string {
	header := ctx.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

// RegisterPayload is the sign up body.
type RegisterPayload struct {
	Email           string `json:"email"`
	UserName        string `json:"user_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(validateStringEquals(r.Password)),
		),
	)
}

func (c *HTTPController) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}
	if err := payload.Validate(); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	user, err := c.Persons.Register(ctx.Context(), payload.Email, payload.UserName, payload.Password, payload.ConfirmPassword)
	if err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, fiber.Map{"user": user})
}

// LoginPayload carries credentials.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (c *HTTPController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}
	if err := payload.Validate(); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	token, err := c.Persons.CheckCredentials(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, fiber.Map{"token": token})
}

func (c *HTTPController) TokenGet(ctx *fiber.Ctx) error {
	user, err := c.Persons.ResolveToken(ctx.Context(), bearerToken(ctx))
	if err != nil {
		return c.fail(ctx, err)
	}
	return c.ok(ctx, fiber.Map{"user": user})
}

// ProfilePayload carries the mutable profile fields. Absent fields stay
// untouched.
type ProfilePayload struct {
	Email    *string `json:"email"`
	UserName *string `json:"user_name"`
}

func (c *HTTPController) ProfilePut(ctx *fiber.Ctx) error {
	payload := new(ProfilePayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}

	user, err := c.Persons.UpdateProfile(ctx.Context(), bearerToken(ctx), ProfileUpdate{
		Email:    payload.Email,
		UserName: payload.UserName,
	})
	if err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, fiber.Map{"user": user})
}

// PasswordPayload carries a password change for the token holder.
type PasswordPayload struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (c *HTTPController) PasswordPut(ctx *fiber.Ctx) error {
	payload := new(PasswordPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}

	if err := c.Persons.ChangePassword(ctx.Context(), bearerToken(ctx), payload.Password, payload.ConfirmPassword); err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, nil)
}

func (c *HTTPController) FlagPut(ctx *fiber.Ctx) error {
	user, err := c.Persons.AddFlag(ctx.Context(), bearerToken(ctx), ctx.Params("flag"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return c.ok(ctx, fiber.Map{"user": user})
}

func (c *HTTPController) FlagDelete(ctx *fiber.Ctx) error {
	user, err := c.Persons.RemoveFlag(ctx.Context(), bearerToken(ctx), ctx.Params("flag"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return c.ok(ctx, fiber.Map{"user": user})
}

// DeletePayload confirms account deletion either by password or by an
// explicit confirmation.
type DeletePayload struct {
	Password  string `json:"password"`
	Confirmed bool   `json:"confirmed"`
}

func (c *HTTPController) AccountDelete(ctx *fiber.Ctx) error {
	payload := new(DeletePayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}

	if err := c.Persons.DeleteAccount(ctx.Context(), bearerToken(ctx), payload.Password, payload.Confirmed); err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, nil)
}

// ForgotPayload starts the recovery flow.
type ForgotPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (c *HTTPController) ForgotPost(ctx *fiber.Ctx) error {
	payload := new(ForgotPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}
	if err := payload.Validate(); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	if err := c.Recovery.ForgotPassword(ctx.Context(), payload.Email); err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, nil)
}

// ResetPayload trades a recovery token for a new password.
type ResetPayload struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (c *HTTPController) ResetPost(ctx *fiber.Ctx) error {
	payload := new(ResetPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}

	if err := c.Recovery.ResetPassword(ctx.Context(), payload.Token, payload.Password, payload.ConfirmPassword); err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, nil)
}

// AdminCreatePayload is the admin user creation body. An empty ID lets
// the store mint one.
type AdminCreatePayload struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (c *HTTPController) AdminCreatePost(ctx *fiber.Ctx) error {
	payload := new(AdminCreatePayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}

	user, err := c.Admins.CreateUser(ctx.Context(), bearerToken(ctx), payload.ID, payload.Email, payload.Password, payload.ConfirmPassword)
	if err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, fiber.Map{"user": user})
}

func (c *HTTPController) AdminListGet(ctx *fiber.Ctx) error {
	users, err := c.Admins.ListUsers(ctx.Context(), bearerToken(ctx))
	if err != nil {
		return c.fail(ctx, err)
	}
	return c.ok(ctx, fiber.Map{"users": users})
}

func (c *HTTPController) AdminCountGet(ctx *fiber.Ctx) error {
	count, err := c.Admins.CountUsers(ctx.Context(), bearerToken(ctx))
	if err != nil {
		return c.fail(ctx, err)
	}
	return c.ok(ctx, fiber.Map{"count": count})
}

func (c *HTTPController) AdminUpdatePut(ctx *fiber.Ctx) error {
	payload := new(ProfilePayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}

	user, err := c.Admins.UpdateUser(ctx.Context(), bearerToken(ctx), ctx.Params("id"), ProfileUpdate{
		Email:    payload.Email,
		UserName: payload.UserName,
	})
	if err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, fiber.Map{"user": user})
}

func (c *HTTPController) AdminPasswordPut(ctx *fiber.Ctx) error {
	payload := new(PasswordPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.fail(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "could not parse the request body"))
	}

	if err := c.Admins.UpdateUserPassword(ctx.Context(), bearerToken(ctx), ctx.Params("id"), payload.Password, payload.ConfirmPassword); err != nil {
		return c.fail(ctx, err)
	}

	return c.ok(ctx, nil)
}

func (c *HTTPController) AdminDeleteDelete(ctx *fiber.Ctx) error {
	deleted, err := c.Admins.DeleteUser(ctx.Context(), bearerToken(ctx), ctx.Params("id"))
	if err != nil {
		return c.fail(ctx, err)
	}
	return c.ok(ctx, fiber.Map{"deleted": deleted})
}

func validateStringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return ErrPasswordConfirmMismatch
		}
		return nil
	}
}
