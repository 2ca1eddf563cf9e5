package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("/schools", jwt)
	sg.POST("", api.create, roleMiddleware(core.RoleAdmin))
	sg.GET("/current", api.retrieveCurrent)

	dg := sg.Group("/:id")
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, roleMiddleware(core.RoleAdmin))
}

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	sch, err := api.svc.CreateSchool(ctx.Request().Context(), rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

// retrieveCurrent returns the caller's own school; other schools are not
// addressable through the API.
func (api *schoolApi) retrieveCurrent(ctx echo.Context) error {
	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	sch, err := api.svc.GetSchool(ctx.Request().Context(), rctx)
	if err != nil {
		return errors.Wrap(err, "finding school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	sch, err := api.svc.UpdateSchool(ctx.Request().Context(), rctx, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteSchool(ctx.Request().Context(), rctx, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}
