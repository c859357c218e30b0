package cmd

import (
	"strings"
	"time"

	"github.com/AzielCF/az-hub/ui/rest"
	"github.com/AzielCF/az-hub/ui/rest/middleware"
	"github.com/AzielCF/az-hub/ui/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the hub HTTP API",
	Long:  `Starts the admin panel API, the per-instance northbound API and the bridge webhook endpoint.`,
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	if cfg.Security.SecretKey == "" {
		logrus.Fatalln("APP_SECRET_KEY is required. Nothing should be public; please set APP_SECRET_KEY and restart.")
	}

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		BodyLimit:               64 * 1024 * 1024,
		Network:                 "tcp",
		AppName:                 "Az-Hub Engine",
		DisableStartupMessage:   false,
		ServerHeader:            "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Api-Key, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	base := app.Group(cfg.App.BasePath)
	rest.InitRestApp(base, rest.AppDeps{
		AdminKey:      cfg.Security.SecretKey,
		WebhookAPIKey: cfg.Bridge.WebhookAPIKey,

		Bridge:   bridgeClient,
		Sessions: sessionManager,

		Instances: instanceRepo,
		Tenants:   tenantRepo,
		Plans:     planRepo,
		Messages:  messageRepo,
		ErrorLogs: errorLogRepo,

		PlanService: planService,
		Processor:   processor,
		Media:       mediaService,

		Templates:      templateRepo,
		ContactGroups:  groupRepo,
		Campaigns:      campaignService,
		DispatchWorker: dispatchWorker,

		BotConfigs:  botConfigRepo,
		BotContacts: botContactRepo,
		BotCatalog:  botCatalogRepo,
	})

	// Websocket del panel.
	websocket.SetValkeyClient(vkClient, cfg.App.ServerID)
	websocket.RegisterRoutes(base)
	go websocket.RunHub()

	app.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})

	shutdownOnSignal(func() {
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	})

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
