package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
)

type (
	classroomApi struct {
		svc      *classroom.Service
		validate *validator.Validate
	}

	// VerifyCodeResponse is the success-shaped body of the public code
	// verification path; callers branch on Valid, an unknown code is not
	// a server error.
	VerifyCodeResponse struct {
		Valid     bool                  `json:"valid"`
		Classroom *classroom.PublicInfo `json:"classroom,omitempty"`
		Error     string                `json:"error,omitempty"`
	}

	JoinResponse struct {
		Success   bool                 `json:"success"`
		Message   string               `json:"message"`
		Classroom classroom.PublicInfo `json:"classroom"`
	}
)

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *classroom.Service, validate *validator.Validate) {
	api := classroomApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/classrooms")

	// un-authed endpoints
	cg.GET("/verify", api.verifyCode)

	// authed endpoints
	ag := cg.Group("", jwt)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.POST("/join", api.join)
}

// Handlers

func (api *classroomApi) create(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data classroom.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), principal, data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}

	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classroomApi) query(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	filter := new(classroom.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	classrooms, err := api.svc.Query(ctx.Request().Context(), principal, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if classrooms == nil {
		classrooms = []classroom.Classroom{}
	}
	return ctx.JSON(http.StatusOK, classrooms)
}

func (api *classroomApi) verifyCode(ctx echo.Context) error {
	code := core.CleanString(ctx.QueryParam("code"))
	if code == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "code", Error: "this field is required"})
	}

	cls, err := api.svc.VerifyCode(ctx.Request().Context(), code)
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return ctx.JSON(http.StatusNotFound, VerifyCodeResponse{Valid: false, Error: "invalid code"})
		}
		return errors.Wrap(err, "verifying classroom code")
	}

	info := cls.PublicInfo()
	return ctx.JSON(http.StatusOK, VerifyCodeResponse{Valid: true, Classroom: &info})
}

func (api *classroomApi) join(ctx echo.Context) error {
	if _, err := getContextPrincipal(ctx); err != nil {
		return err
	}

	var data classroom.JoinClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Join(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "joining classroom")
	}

	return ctx.JSON(http.StatusOK, JoinResponse{
		Success:   true,
		Message:   "joined classroom successfully",
		Classroom: cls.PublicInfo(),
	})
}
