package router

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	mem "vet-clinic/internal/adapters/storage/memory"
	pg "vet-clinic/internal/adapters/storage/postgres"
	"vet-clinic/internal/app/account"
	"vet-clinic/internal/app/admin"
	"vet-clinic/internal/domain/auth"
	"vet-clinic/internal/domain/owners"
	"vet-clinic/internal/domain/pets"
	"vet-clinic/internal/domain/vaccines"
	"vet-clinic/internal/middleware"
	"vet-clinic/internal/platform/config"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/platform/metrics"
)

type Options struct {
	Cfg config.Config
	Log logger.Logger

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log))
	r.Use(metrics.Middleware(opts.Cfg.AppName))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	var (
		ownersRepo   owners.Repository
		petsRepo     pets.Repository
		vaccinesRepo vaccines.Repository
		credsRepo    auth.CredentialRepository
		sessionsRepo auth.SessionRepository
		resetsRepo   auth.ResetTokenRepository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil && opts.Cfg.DBDSN != "" {
		if opened, err := pg.Open(opts.Cfg.DBDSN); err == nil {
			db = opened
		} else {
			log.Warn("postgres unavailable, using in-memory repos", map[string]any{"error": err.Error()})
		}
	}

	if db != nil {
		ownersRepo = pg.NewOwnersRepo(db)
		petsRepo = pg.NewPetsRepo(db)
		vaccinesRepo = pg.NewVaccinesRepo(db)
		credsRepo = pg.NewCredentialsRepo(db)
		sessionsRepo = pg.NewSessionsRepo(db)
		resetsRepo = pg.NewResetTokensRepo(db)
	} else {
		ownersRepo = mem.NewOwnersRepo()
		petsRepo = mem.NewPetsRepo()
		vaccinesRepo = mem.NewVaccinesRepo()
		credsRepo = mem.NewCredentialsRepo()
		sessionsRepo = mem.NewSessionsRepo()
		resetsRepo = mem.NewResetTokensRepo()
	}

	// Services por módulo
	authSvc := auth.NewService(credsRepo, sessionsRepo, resetsRepo)
	if opts.Cfg.SessionTTL > 0 {
		authSvc.SessionTTL = opts.Cfg.SessionTTL
	}
	if opts.Cfg.RememberTTL > 0 {
		authSvc.RememberTTL = opts.Cfg.RememberTTL
	}
	if opts.Cfg.ResetTokenTTL > 0 {
		authSvc.ResetTTL = opts.Cfg.ResetTokenTTL
	}

	ownersSvc := owners.NewService(ownersRepo, authSvc)
	petsSvc := pets.NewService(petsRepo)
	vaccinesSvc := vaccines.NewService(vaccinesRepo)

	seedAdmin(ownersRepo, authSvc, opts.Cfg, log)

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.SessionContext(authSvc))
		gr.Use(middleware.AntiForgery)

		svcs := account.Services{
			Owners:   ownersSvc,
			Pets:     petsSvc,
			Vaccines: vaccinesSvc,
			Auth:     authSvc,
			Log:      log,
		}
		account.RegisterRoutes(gr, svcs)
		admin.RegisterRoutes(gr, admin.Services{
			Owners:   svcs.Owners,
			Pets:     svcs.Pets,
			Vaccines: svcs.Vaccines,
			Auth:     svcs.Auth,
			Log:      svcs.Log,
		})
	})

	return r
}

// seedAdmin garantiza la cuenta administrativa al arranque; si ya
// existe no toca nada.
func seedAdmin(repo owners.Repository, authSvc *auth.Service, cfg config.Config, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	email := auth.NormalizeEmail(cfg.AdminEmail)
	if _, err := authSvc.GetCredentialByEmail(ctx, email); err == nil {
		return
	} else if !errors.Is(err, auth.ErrNotFound) {
		log.Error("admin seed lookup failed", map[string]any{"error": err.Error()})
		return
	}

	now := time.Now()
	o := owners.Owner{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: "Clinic",
		LastName:  "Admin",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, o); err != nil {
		log.Error("admin seed: owner insert failed", map[string]any{"error": err.Error()})
		return
	}

	roles := []auth.Role{auth.RoleAdmin, auth.RoleUser}
	if err := authSvc.CreateCredential(ctx, o.ID, email, cfg.AdminPassword, roles); err != nil {
		log.Error("admin seed: credential insert failed", map[string]any{"error": err.Error()})
		return
	}

	log.Info("admin account seeded", map[string]any{"email": email})
}
