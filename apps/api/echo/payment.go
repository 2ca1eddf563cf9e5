package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/billing"
)

type paymentApi struct {
	svc *billing.Service
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *billing.Service) {
	api := paymentApi{svc: svc}

	pg := g.Group("/payments", jwt)
	// payments are append-only; no update or delete routes exist
	pg.POST("", api.create, roleMiddleware(core.RoleTreasurer, core.RoleAdmin))
	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
}

func (api *paymentApi) create(ctx echo.Context) error {
	var data billing.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	pmt, err := api.svc.Create(ctx.Request().Context(), rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *paymentApi) query(ctx echo.Context) error {
	filter := new(billing.QueryFilter)
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
	payments, err := api.svc.Query(ctx.Request().Context(), rctx, *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []billing.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	rctx, err := requestContext(ctx)
	if err != nil {
		return err
	}
	pmt, err := api.svc.GetByID(ctx.Request().Context(), rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding payment by ID")
	}
	return ctx.JSON(http.StatusOK, pmt)
}
