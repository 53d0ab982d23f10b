package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"

	_ "github.com/aussiebroadwan/accounts/api/accounts" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	Directory *service.Directory
}

func NewRouter(buildVersion string, st store.Store, dir *service.Directory, logger *slog.Logger) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		Directory:    dir,
		middlewares: []httpx.Middleware{
			slogx.HTTPMiddleware(logger),
			httpx.Recover(),
		},
	}
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Account Directory API
//	@version		0.1.0
//	@description	Stores user accounts and verifies username/password credentials.
//	@description	Passwords are hashed with argon2id or bcrypt and never returned.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/accounts
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	accounts := &AccountsHandler{Directory: r.Directory}
	authenticate := &AuthenticateHandler{Directory: r.Directory}

	r.Mux.HandleFunc("GET /api/user", accounts.HandleList)
	r.Mux.HandleFunc("POST /api/user", accounts.HandleCreate)
	r.Mux.HandleFunc("GET /api/user/{id}", accounts.HandleGet)
	r.Mux.HandleFunc("PUT /api/user/{id}", accounts.HandleUpdate)
	r.Mux.Handle("POST /api/user/authenticate", authenticate)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
