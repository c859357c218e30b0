package cmd

import (
	"os"
	"time"

	"github.com/AzielCF/az-hub/botengine"
	botApp "github.com/AzielCF/az-hub/botengine/application"
	botDomain "github.com/AzielCF/az-hub/botengine/domain"
	botRepo "github.com/AzielCF/az-hub/botengine/repository"
	"github.com/AzielCF/az-hub/botengine/providers"
	"github.com/AzielCF/az-hub/bridge"
	coreconfig "github.com/AzielCF/az-hub/core/config"
	coreDB "github.com/AzielCF/az-hub/core/database"
	dispatchApp "github.com/AzielCF/az-hub/dispatch/application"
	dispatchRepo "github.com/AzielCF/az-hub/dispatch/repository"
	"github.com/AzielCF/az-hub/infrastructure/valkey"
	instancesApp "github.com/AzielCF/az-hub/instances/application"
	instancesRepo "github.com/AzielCF/az-hub/instances/repository"
	mediaApp "github.com/AzielCF/az-hub/media/application"
	mediaRepo "github.com/AzielCF/az-hub/media/repository"
	"github.com/AzielCF/az-hub/media/storage"
	messagesRepo "github.com/AzielCF/az-hub/messages/repository"
	"github.com/AzielCF/az-hub/pkg/crypto"
	"github.com/AzielCF/az-hub/pkg/msgworker"
	"github.com/AzielCF/az-hub/pkg/utils"
	tenantsApp "github.com/AzielCF/az-hub/tenants/application"
	tenantsRepo "github.com/AzielCF/az-hub/tenants/repository"
	uiWebsocket "github.com/AzielCF/az-hub/ui/websocket"
	webhookApp "github.com/AzielCF/az-hub/webhook/application"
	webhookRepo "github.com/AzielCF/az-hub/webhook/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// Componentes compartidos por todos los subcomandos. Se cablean una sola
// vez en initApp.
var (
	cfg *coreconfig.Config
	db  *gorm.DB

	vkClient *valkey.Client

	bridgeClient *bridge.Client

	instanceRepo  *instancesRepo.InstanceGormRepository
	tenantRepo    *tenantsRepo.TenantGormRepository
	planRepo      *tenantsRepo.PlanGormRepository
	messageRepo   *messagesRepo.MessageGormRepository
	mediaFileRepo *mediaRepo.MediaGormRepository
	errorLogRepo  *webhookRepo.ErrorLogGormRepository

	templateRepo *dispatchRepo.TemplateGormRepository
	groupRepo    *dispatchRepo.GroupGormRepository
	campaignRepo *dispatchRepo.CampaignGormRepository
	stateRepo    *dispatchRepo.DispatchStateGormRepository

	botConfigRepo  *botRepo.ChatbotGormRepository
	botContactRepo *botRepo.ContactGormRepository
	botCatalogRepo *botRepo.MediaCatalogGormRepository

	planService     *tenantsApp.PlanService
	sessionManager  *instancesApp.SessionManager
	mediaService    *mediaApp.MediaService
	campaignService *dispatchApp.CampaignService
	dispatchWorker  *dispatchApp.Worker
	botEngine       *botengine.Engine
	processor       *webhookApp.Processor
)

var rootCmd = &cobra.Command{
	Use:   "azhub",
	Short: "Multi-tenant WhatsApp automation hub",
	Long: `az-hub manages WhatsApp instances for multiple accounts on top of a
Node bridge: sessions and QR pairing, inbound event ingestion, AI
chatbots, paced bulk campaigns and a per-instance HTTP API.`,
}

func init() {
	utils.LoadConfig(".")
	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	initFlags()
	cobra.OnInitialize(initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringP("port", "p", "", "HTTP port for the rest subcommand | example: --port=8080")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose logging | example: --debug=true")
	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initApp() {
	var err error
	cfg, err = coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[APP] Config load failed: %v", err)
	}

	if envPort := viper.GetString("app_port"); envPort != "" {
		cfg.App.Port = envPort
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if cfg.Security.SecretKey != "" {
		_ = crypto.SetEncryptionKey(cfg.Security.SecretKey)
	}

	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[APP] Database init failed: %v", err)
	}

	if cfg.Database.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Warnf("[APP] Valkey unavailable, falling back to in-memory caches: %v", err)
			vkClient = nil
		}
	}

	bridgeClient = bridge.NewClient(cfg)

	// Repositorios.
	instanceRepo = instancesRepo.NewInstanceGormRepository(db)
	tenantRepo = tenantsRepo.NewTenantGormRepository(db)
	planRepo = tenantsRepo.NewPlanGormRepository(db)
	messageRepo = messagesRepo.NewMessageGormRepository(db)
	mediaFileRepo = mediaRepo.NewMediaGormRepository(db)
	errorLogRepo = webhookRepo.NewErrorLogGormRepository(db)
	templateRepo = dispatchRepo.NewTemplateGormRepository(db)
	groupRepo = dispatchRepo.NewGroupGormRepository(db)
	campaignRepo = dispatchRepo.NewCampaignGormRepository(db)
	stateRepo = dispatchRepo.NewDispatchStateGormRepository(db)
	botConfigRepo = botRepo.NewChatbotGormRepository(db)
	botContactRepo = botRepo.NewContactGormRepository(db)
	botCatalogRepo = botRepo.NewMediaCatalogGormRepository(db)

	// Servicios.
	planService = tenantsApp.NewPlanService(tenantRepo, planRepo, instanceRepo, botConfigRepo)

	var qrCache instancesApp.QRCache
	if vkClient != nil {
		qrCache = instancesApp.NewValkeyQRCache(vkClient, 2*time.Minute)
	}
	sessionManager = instancesApp.NewSessionManager(instanceRepo, tenantRepo, planService, bridgeClient, qrCache)
	bridgeClient.SetHealFunc(sessionManager.SyncToken)

	mediaService = mediaApp.NewMediaService(mediaFileRepo, storage.NewBlobStore())

	planner := dispatchApp.NewPlanner(campaignRepo, templateRepo, groupRepo)
	campaignService = dispatchApp.NewCampaignService(campaignRepo, instanceRepo, planner)
	dispatchWorker = dispatchApp.NewWorker(campaignRepo, stateRepo, instanceRepo, mediaService, bridgeClient)

	botEngine = botengine.NewEngine(botengine.EngineDeps{
		Configs:  botConfigRepo,
		Contacts: botContactRepo,
		Catalog:  botCatalogRepo,
		History:  messageRepo,
		Media:    mediaService,
		Bridge:   bridgeClient,
		Providers: map[botDomain.ProviderKind]botDomain.Provider{
			botDomain.ProviderOpenAI: providers.NewOpenAIProvider(),
			botDomain.ProviderGemini: providers.NewGeminiProvider(),
		},
		Enricher: botApp.NewWebsiteEnricher(),
	})

	processor = webhookApp.NewProcessor(webhookApp.ProcessorDeps{
		Instances: instanceRepo,
		Tenants:   tenantRepo,
		Messages:  messageRepo,
		Plans:     planService,
		Healer:    sessionManager,
		Engine:    botEngine,
		Acks:      dispatchWorker,
		Notifier:  uiWebsocket.NewNotifier(),
		Forwarder: webhookApp.NewForwarder(errorLogRepo),
		Pool:      msgworker.GetGlobalPool(),
		ErrorLogs: errorLogRepo,
	})
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of shared subsystems.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	msgworker.StopGlobalPool()

	if vkClient != nil {
		vkClient.Close()
	}
	if sqlDB, err := coreDB.GetSQLDB(); err == nil {
		_ = sqlDB.Close()
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
