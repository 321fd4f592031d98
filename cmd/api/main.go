package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appsigning "github.com/jhoicas/firmador-ais/internal/application/signing"
	domsigning "github.com/jhoicas/firmador-ais/internal/domain/signing"
	infraais "github.com/jhoicas/firmador-ais/internal/infrastructure/ais"
	"github.com/jhoicas/firmador-ais/internal/infrastructure/document"
	"github.com/jhoicas/firmador-ais/internal/infrastructure/postgres"
	"github.com/jhoicas/firmador-ais/internal/infrastructure/tracker"
	httpRouter "github.com/jhoicas/firmador-ais/internal/interfaces/http"
	"github.com/jhoicas/firmador-ais/pkg/config"
	"github.com/jhoicas/firmador-ais/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if err := cfg.AIS.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración del servicio de firma")
	}
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}
	zl := log.Zerolog()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	jobRepo := postgres.NewSignatureJobRepository(pool)

	// Cliente mTLS del servicio de firma: credenciales cargadas una sola vez.
	client, err := infraais.NewClient(infraais.TransportConfig{
		CertFile:     cfg.AIS.CertFile,
		KeyFile:      cfg.AIS.CertKey,
		CertPassword: cfg.AIS.CertPassword,
		CAFile:       cfg.AIS.CAFile,
		Timeout:      cfg.AIS.Timeout(),
	}, zl)
	if err != nil {
		log.Fatal().Err(err).Msg("cliente del servicio de firma")
	}

	// Motor: hash → petición → polling → paquete ZIP; eventos al trabajo en DB
	engine := appsigning.NewEngine(appsigning.EngineConfig{
		Endpoint:        cfg.AIS.URL,
		DigestAlgorithm: cfg.AIS.Digest(),
		Customer:        cfg.AIS.Customer,
		KeyStatic:       cfg.AIS.KeyStatic,
		KeyOnDemand:     cfg.AIS.KeyOnDemand,
		PollInterval:    cfg.AIS.PollInterval(),
		PollRetries:     cfg.AIS.PollRetries,
	}, client, document.NewBundleEngine(zl), tracker.NewJobTracker(jobRepo, zl), zl)

	jobsUC := appsigning.NewJobUseCase(jobRepo, domsigning.NewSelector(zl), engine, appsigning.JobConfig{
		WorkDir: cfg.App.WorkDir,
		Timeout: cfg.AIS.OperationTimeout(),
	}, zl)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    64 * 1024 * 1024, // documentos en Base64
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Firmador AIS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		SignatureJobs: jobsUC,
		JWTSecret:     cfg.JWT.Secret,
		Log:           zl,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Los trabajos en curso se interrumpen y guardan su estado antes de cerrar el pool.
	log.Info().Msg("interrumpiendo trabajos de firma en curso...")
	jobsUC.Shutdown()

	log.Info().Msg("aplicación detenida")
}
