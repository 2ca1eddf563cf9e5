package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/school"
)

type classApi struct {
	svc *school.Service
}

func registerClassAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := classApi{svc: svc}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create, roleMiddleware(core.RolePrincipal, core.RoleAdmin))
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple, roleMiddleware(core.RolePrincipal, core.RoleAdmin))

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
}

func (api *classApi) create(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	cls, err := api.svc.CreateClass(ctx.Request().Context(), rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	classes, err := api.svc.QueryClasses(ctx.Request().Context(), rctx, *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	cls, err := api.svc.GetClassByID(ctx.Request().Context(), rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	var data school.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	cls, err := api.svc.UpdateClass(ctx.Request().Context(), rctx, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteClasses(ctx.Request().Context(), rctx, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting classes")
	}
	return ctx.NoContent(http.StatusNoContent)
}
