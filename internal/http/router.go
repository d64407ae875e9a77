package router

import (
	"log"
	"net/http"

	"github.com/craftline/marketplace/internal/logger"
	"github.com/craftline/marketplace/internal/middlewares"
	"github.com/craftline/marketplace/internal/models"
	"github.com/go-chi/chi/v5"
)

type Config struct {
	Endpoint string
}

type Router struct {
	config          Config
	authService     models.AuthService
	jwtService      models.JWTService
	orderService    models.OrderService
	notifierService models.NotifierService
}

func New(
	config Config,
	authService models.AuthService,
	jwtService models.JWTService,
	orderService models.OrderService,
	notifierService models.NotifierService,
) *Router {
	return &Router{
		config,
		authService,
		jwtService,
		orderService,
		notifierService,
	}
}

func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middlewares.ServiceInjectorMiddleware(
			router.authService,
			router.jwtService,
			router.orderService,
			router.notifierService,
		),
		logger.RequestLogger,
		middlewares.AuthMiddleware().WithExcludedPaths(
			"/api/user/register",
			"/api/user/login",
		).Middleware,
	)

	r.Route("/api", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.UnknownAccount]).Post("/user/register", Register)
		r.With(middlewares.JSONMiddleware[models.UnknownAccount]).Post("/user/login", Login)

		r.Route("/orders", func(r chi.Router) {
			r.With(middlewares.JSONMiddleware[models.CheckoutRequest]).Post("/", Checkout)
			r.Get("/", GetOrders)

			r.Route("/{number}", func(r chi.Router) {
				r.Get("/", GetOrder)
				r.Get("/actions", GetActions)
				r.With(middlewares.JSONMiddleware[models.TransitionRequest]).Post("/status", ChangeStatus)
				r.With(middlewares.TextMiddleware).Post("/notes", AddNote)
				r.With(middlewares.JSONMiddleware[models.PaymentRequest]).Put("/payment", SetPaymentStatus)
			})
		})
	})

	return r
}

func (router *Router) Run() {
	log.Fatal(http.ListenAndServe(router.config.Endpoint, router.get()))
}
