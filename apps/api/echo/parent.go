package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/family"
)

type parentApi struct {
	svc *family.Service
}

func registerParentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *family.Service) {
	api := parentApi{svc: svc}

	pg := g.Group("/parents", jwt)
	pg.POST("", api.create)
	pg.GET("", api.query)
	pg.DELETE("", api.destroyMultiple)

	dg := pg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PUT("/payment-status", api.overridePaymentStatus, roleMiddleware(core.RoleAdmin))
}

func (api *parentApi) create(ctx echo.Context) error {
	var data family.NewParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	par, err := api.svc.CreateParent(ctx.Request().Context(), rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating parent")
	}
	return ctx.JSON(http.StatusCreated, par)
}

func (api *parentApi) query(ctx echo.Context) error {
	filter := new(family.ParentFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to ParentFilter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	parents, err := api.svc.QueryParents(ctx.Request().Context(), rctx, *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying parents")
	}
	if parents == nil {
		parents = []family.Parent{}
	}
	return ctx.JSON(http.StatusOK, parents)
}

func (api *parentApi) retrieve(ctx echo.Context) error {
	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	par, err := api.svc.GetParentByID(ctx.Request().Context(), rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding parent by ID")
	}
	return ctx.JSON(http.StatusOK, par)
}

func (api *parentApi) update(ctx echo.Context) error {
	var data family.UpdateParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParent")
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	par, err := api.svc.UpdateParent(ctx.Request().Context(), rctx, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating parent")
	}
	return ctx.JSON(http.StatusOK, par)
}

type PaymentStatusOverrideRequest struct {
	Paid bool `json:"paid"`
}

// overridePaymentStatus is the administrative escape hatch for the derived
// payment flags; the regular path is recording a payment.
func (api *parentApi) overridePaymentStatus(ctx echo.Context) error {
	var data PaymentStatusOverrideRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentStatusOverrideRequest")
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.OverridePaymentStatus(ctx.Request().Context(), rctx, ctx.Param("id"), data.Paid); err != nil {
		return errors.Wrap(err, "overriding payment status")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *parentApi) destroyMultiple(ctx echo.Context) error {
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
	if err := api.svc.DeleteParents(ctx.Request().Context(), rctx, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting parents")
	}
	return ctx.NoContent(http.StatusNoContent)
}
