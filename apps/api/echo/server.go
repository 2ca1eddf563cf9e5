package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
	"github.com/trezcool/wazazi/core/billing"
	"github.com/trezcool/wazazi/core/family"
	"github.com/trezcool/wazazi/core/school"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf   *core.Config
		Logger core.Logger

		AccountSvc *account.Service
		SchoolSvc  *school.Service
		FamilySvc  *family.Service
		BillingSvc *billing.Service

		// SignalShutdown is called when a request surfaces an unrecoverable
		// error and the server must be brought down gracefully.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf
	appJWTConfig.SigningKey = []byte(conf.SecretKey)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerProfileAPI(v1, jwt, s.opts.AccountSvc)
	registerSchoolAPI(v1, jwt, s.opts.SchoolSvc)
	registerClassAPI(v1, jwt, s.opts.SchoolSvc)
	registerParentAPI(v1, jwt, s.opts.FamilySvc)
	registerStudentAPI(v1, jwt, s.opts.FamilySvc)
	registerPaymentAPI(v1, jwt, s.opts.BillingSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Wazazi API!")
}
