package devapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/restaurant-backoffice/internal/api/http"
	"github.com/spec-kit/restaurant-backoffice/internal/api/http/handlers"
	"github.com/spec-kit/restaurant-backoffice/internal/auth"
	"github.com/spec-kit/restaurant-backoffice/internal/config"
	"github.com/spec-kit/restaurant-backoffice/internal/events"
	"github.com/spec-kit/restaurant-backoffice/internal/observability"
	"github.com/spec-kit/restaurant-backoffice/internal/persistence"
	"github.com/spec-kit/restaurant-backoffice/internal/repository"
	"github.com/spec-kit/restaurant-backoffice/internal/service"
	"github.com/spec-kit/restaurant-backoffice/internal/worker"
)

const broadcastQueueSize = 512

// Dependencies are the infrastructure handles the server is built on.
// Postgres and Redis may be nil.
type Dependencies struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
}

// Server is the development backend: the REST API and the STOMP broker
// behind one listener.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	app     *fiber.App
	broker  *Broker
	fanout  *worker.BroadcastWorker
	auth    *service.AuthService
	catalog *service.CatalogService
	handler http.Handler
	httpSrv *http.Server
}

// NewServer wires repositories, services, the broker and the routes.
func NewServer(deps Dependencies) *Server {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		users  repository.UserRepository
		orders repository.OrderRepository
	)
	if deps.Postgres.Enabled() {
		users = repository.NewUserRepository(deps.Postgres.PoolHandle())
		orders = repository.NewOrderRepository(deps.Postgres.PoolHandle())
	} else {
		users = repository.NewMemoryUserRepository()
		orders = repository.NewMemoryOrderRepository()
	}
	catalogRepo := repository.NewMemoryCatalogRepository()
	deliveryRepo := repository.NewMemoryDeliveryRepository()

	dispatcher := events.NewInMemoryDispatcher(logger.Named("events"))

	authService := service.NewAuthService(cfg.Auth, users)
	userService := service.NewUserService(users, authService, cfg.Auth.BcryptCost)
	catalogService := service.NewCatalogService(catalogRepo)
	orderService := service.NewOrderService(service.OrderDependencies{
		OrderRepo:   orders,
		CatalogRepo: catalogRepo,
		Dispatcher:  dispatcher,
	})
	deliveryService := service.NewDeliveryService(service.DeliveryDependencies{
		DeliveryRepo: deliveryRepo,
		UserRepo:     users,
		Orders:       orderService,
		Dispatcher:   dispatcher,
	})
	dashboardService := service.NewDashboardService(users, catalogRepo, orders)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), users)
	broker := NewBroker(authMiddleware, logger.Named("broker"), BrokerOptions{
		Heartbeat: cfg.Realtime.Heartbeat(),
		Metrics:   deps.Metrics,
	})
	fanout := worker.NewBroadcastWorker(broker, broadcastQueueSize, logger.Named("broadcast"))
	fanout.Start()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, fanout, logger.Named("notifications")))

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, deps.Metrics, cfg.API.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Postgres, deps.Redis),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Orders:         handlers.NewOrdersHandler(orderService),
		Deliveries:     handlers.NewDeliveriesHandler(deliveryService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: authMiddleware,
	})

	mux := http.NewServeMux()
	mux.Handle(cfg.Realtime.Path, broker)
	mux.Handle("/", adaptor.FiberApp(app))

	return &Server{
		cfg:     cfg,
		logger:  logger,
		app:     app,
		broker:  broker,
		fanout:  fanout,
		auth:    authService,
		catalog: catalogService,
		handler: mux,
	}
}

// App exposes the fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Broker exposes the STOMP broker.
func (s *Server) Broker() *Broker { return s.broker }

// Handler serves REST and websocket traffic. The websocket path bypasses
// fiber because fasthttp connections cannot be hijacked by gorilla.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe blocks serving on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("devapi listening", zap.String("addr", addr), zap.String("ws", s.cfg.Realtime.Path))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, flushes the broadcast queue and drops
// realtime sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.fanout.Stop()
	s.broker.Close()
	return err
}
