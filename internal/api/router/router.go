package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "gomarket/docs" // registra o doc.json servido em /swagger
	"gomarket/internal/api/admin"
	"gomarket/internal/api/category"
	"gomarket/internal/api/course"
	"gomarket/internal/api/enrollment"
	"gomarket/internal/api/product"
	"gomarket/internal/api/user"
	"gomarket/internal/domain"
	"gomarket/internal/pkg/cache"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/pkg/middleware"
)

// Handlers agrupa os handlers já inicializados por injeção de dependências.
type Handlers struct {
	User       *user.Handler
	Admin      *admin.Handler
	Category   *category.Handler
	Product    *product.Handler
	Course     *course.Handler
	Enrollment *enrollment.Handler
}

// Options são os parâmetros de infraestrutura do roteador.
// Cache nil desliga o rate limiting.
type Options struct {
	Tokens             middleware.TokenService
	Cache              cache.Client
	RateLimitRequests  int
	RateLimitPeriod    time.Duration
	CORSAllowedOrigins []string
	Logger             logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP, middleware.RequestLogger(opts.Logger), chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if opts.Cache != nil {
		r.Use(middleware.RateLimiter(opts.Cache, opts.RateLimitRequests, opts.RateLimitPeriod, opts.Logger))
	}

	r.Get("/ping", PingHandler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	auth := middleware.NewAuth(opts.Tokens, opts.Logger)

	r.Route("/v1", func(r chi.Router) {
		// Rotas públicas: a identidade é anexada quando há token (donos e admins veem rascunhos).
		r.Group(func(r chi.Router) {
			r.Use(auth.Optional)

			r.Post("/register", h.User.RegisterUserHandler)
			r.Post("/login", h.User.LoginUserHandler)
			r.Post("/password/forgot", h.User.ForgotPasswordHandler)
			r.Post("/password/reset", h.User.ResetPasswordHandler)

			r.Get("/categories", h.Category.ListCategoriesHandler)

			r.Get("/products", h.Product.ListProductsHandler)
			r.Get("/products/{id}", h.Product.GetProductByIDHandler)
			r.Get("/products/{id}/related", h.Product.RelatedProductsHandler)

			r.Get("/courses", h.Course.ListCoursesHandler)
			r.Get("/courses/{id}", h.Course.GetCourseByIDHandler)
		})

		// Rotas autenticadas. Posse do recurso é verificada no serviço.
		r.Group(func(r chi.Router) {
			r.Use(auth.Required)

			r.Get("/me", h.User.MeHandler)
			r.Get("/me/enrollments", h.Enrollment.ListMyEnrollmentsHandler)

			r.Put("/products/{id}", h.Product.UpdateProductHandler)
			r.Patch("/products/{id}/status", h.Product.ChangeStatusHandler)
			r.Delete("/products/{id}", h.Product.DeleteProductHandler)
			r.Post("/products/{id}/stock", h.Product.AdjustStockHandler)

			r.Put("/courses/{id}", h.Course.UpdateCourseHandler)
			r.Patch("/courses/{id}/status", h.Course.ChangeStatusHandler)
			r.Post("/courses/{id}/enroll", h.Enrollment.EnrollHandler)
			r.Post("/courses/{id}/lessons/{lessonId}/complete", h.Enrollment.CompleteLessonHandler)
			r.Get("/courses/{id}/progress", h.Enrollment.ProgressHandler)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles(domain.RoleSeller, domain.RoleAdmin))
				r.Post("/products", h.Product.CreateProductHandler)
				r.Get("/seller/products", h.Product.ListMyProductsHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles(domain.RoleInstructor, domain.RoleAdmin))
				r.Post("/courses", h.Course.CreateCourseHandler)
				r.Get("/instructor/courses", h.Course.ListMyCoursesHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles(domain.RoleAdmin))
				r.Get("/admin/users", h.Admin.ListUsersHandler)
				r.Patch("/admin/users/{id}/status", h.Admin.UpdateUserStatusHandler)
			})
		})
	})

	return r
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
