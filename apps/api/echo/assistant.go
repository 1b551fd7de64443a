package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
)

type assistantApi struct {
	auth     *authenticator
	service  *assistant.Service
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, auth *authenticator, svc *assistant.Service, validate *validator.Validate) {
	api := assistantApi{auth: auth, service: svc, validate: validate}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)

	// authed endpoints
	mg := ag.Group("", auth.middleware())
	mg.GET("/me", api.meRetrieve)
	mg.PUT("/me", api.meUpdate)

	sg := mg.Group("/assistants", adminMiddleware())
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *assistantApi) login(ctx echo.Context) error {
	data := new(LoginRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.service.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return err
	}
	token, err := api.auth.generateToken(a)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *assistantApi) meRetrieve(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	actor, err := core.RequireActor(reqCtx)
	if err != nil {
		return err
	}
	a, err := api.service.GetByID(reqCtx, actor.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assistantApi) meUpdate(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	actor, err := core.RequireActor(reqCtx)
	if err != nil {
		return err
	}
	data := new(assistant.UpdateAssistant)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	a, err := api.service.Update(reqCtx, actor.ID, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assistantApi) query(ctx echo.Context) error {
	assistants, err := api.service.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assistants)
}

func (api *assistantApi) create(ctx echo.Context) error {
	data := new(assistant.NewAssistant)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	a, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assistantApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	a, err := api.service.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assistantApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	data := new(assistant.UpdateAssistant)
	if err = ctx.Bind(data); err != nil {
		return err
	}
	a, err := api.service.Update(ctx.Request().Context(), id, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assistantApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.service.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
