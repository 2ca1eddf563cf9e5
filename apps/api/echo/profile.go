package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
)

type profileApi struct {
	svc *account.Service
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *account.Service) {
	api := profileApi{svc: svc}

	pg := g.Group("/profiles", jwt)
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.GET("/me", api.retrieveOwn)
	pg.DELETE("", api.destroyMultiple, roleMiddleware(core.RoleAdmin))

	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
}

func (api *profileApi) create(ctx echo.Context) error {
	var data account.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	prof, err := api.svc.Create(ctx.Request().Context(), rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating profile")
	}
	return ctx.JSON(http.StatusCreated, prof)
}

func (api *profileApi) query(ctx echo.Context) error {
	filter := new(account.QueryFilter)
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
	profs, err := api.svc.Query(ctx.Request().Context(), rctx, *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying profiles")
	}
	if profs == nil {
		profs = []account.UserProfile{}
	}
	return ctx.JSON(http.StatusOK, profs)
}

func (api *profileApi) retrieveOwn(ctx echo.Context) error {
	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	prof, err := api.svc.GetByUser(ctx.Request().Context(), rctx)
	if err != nil {
		return errors.Wrap(err, "finding own profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	prof, err := api.svc.GetByID(ctx.Request().Context(), rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding profile by ID")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) update(ctx echo.Context) error {
	var data account.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	prof, err := api.svc.Update(ctx.Request().Context(), rctx, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *profileApi) destroyMultiple(ctx echo.Context) error {
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
	if err := api.svc.Delete(ctx.Request().Context(), rctx, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting profiles")
	}
	return ctx.NoContent(http.StatusNoContent)
}
