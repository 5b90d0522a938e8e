package main

import (
	"context"
	"time"

	"github.com/gheggie/silverware-mailchimp/internal/handlers"
	"github.com/gheggie/silverware-mailchimp/internal/lists"
	"github.com/gheggie/silverware-mailchimp/internal/mailchimp"
	"github.com/gheggie/silverware-mailchimp/internal/membership"
	"github.com/gheggie/silverware-mailchimp/pkg/cache"
	"github.com/gheggie/silverware-mailchimp/pkg/config"
	"github.com/gheggie/silverware-mailchimp/pkg/logging"
	"github.com/gheggie/silverware-mailchimp/pkg/monitoring"
	"github.com/gheggie/silverware-mailchimp/pkg/server"
	"github.com/gheggie/silverware-mailchimp/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("signup")
	config.LoadEnv(logger)

	port := config.GetEnv("PORT", "18035")
	apiKey := config.GetEnv("MAILCHIMP_API_KEY", "")
	listID := config.GetEnv("MAILCHIMP_LIST_ID", "")

	formConfig := handlers.FormConfig{
		ListID:           listID,
		ShowFirstName:    config.GetEnvBool("SHOW_FIRST_NAME", true),
		ShowLastName:     config.GetEnvBool("SHOW_LAST_NAME", true),
		RequireFirstName: config.GetEnvBool("REQUIRE_FIRST_NAME", false),
		RequireLastName:  config.GetEnvBool("REQUIRE_LAST_NAME", false),
		UsePlaceholders:  config.GetEnvBool("USE_PLACEHOLDERS", false),
		ButtonLabel:      config.GetEnv("BUTTON_LABEL", ""),
	}

	messages := membership.DefaultMessages()
	messages.OnSubscribe = config.GetEnv("MESSAGE_ON_SUBSCRIBE", messages.OnSubscribe)
	messages.OnAlreadySubscribed = config.GetEnv("MESSAGE_ON_ALREADY_SUBSCRIBED", messages.OnAlreadySubscribed)
	messages.OnUnsubscribe = config.GetEnv("MESSAGE_ON_UNSUBSCRIBE", messages.OnUnsubscribe)
	messages.OnNotFound = config.GetEnv("MESSAGE_ON_NOT_FOUND", messages.OnNotFound)
	messages.OnError = config.GetEnv("MESSAGE_ON_ERROR", messages.OnError)

	// A bad or missing key leaves the client nil; the service then reports
	// unavailability per request instead of refusing to start.
	apiClient, err := mailchimp.NewClient(apiKey)
	if err != nil {
		apiClient = nil
		logger.WithError(err).Warn("MailChimp client not configured, signup disabled")
	}

	healthChecker := monitoring.NewHealthChecker("signup", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("signup", version.Version, version.GitCommit)

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"MAILCHIMP_API_KEY": apiKey,
		"MAILCHIMP_LIST_ID": listID,
	}))

	var pingable interface{ Ping(context.Context) error }
	if apiClient != nil {
		pingable = apiClient
	}
	healthChecker.AddCheck("mailchimp", monitoring.RemoteAPIHealthCheck("mailchimp", pingable))

	cacheHits, cacheMisses, cacheStores := metricsCollector.CreateCacheMetrics()
	listCache := cache.New(cache.Options{
		TTL: time.Duration(config.GetEnvInt("LIST_CACHE_TTL", 300)) * time.Second,
	}, cache.MetricsHooks{
		OnHit:   func(map[string]string) { cacheHits.WithLabelValues("lists").Inc() },
		OnMiss:  func(map[string]string) { cacheMisses.WithLabelValues("lists").Inc() },
		OnStore: func(map[string]string) { cacheStores.WithLabelValues("lists").Inc() },
	})

	signupMetrics := &handlers.SignupMetrics{
		SyncRequests: metricsCollector.NewCounter(
			"signup_sync_requests_total",
			"Membership sync requests by operation and outcome",
			[]string{"operation", "outcome"},
		),
		ListRequests: metricsCollector.NewCounter(
			"signup_list_requests_total",
			"Audience list requests by status",
			[]string{"status"},
		),
	}

	var syncClient membership.Client
	var listClient lists.Client
	if apiClient != nil {
		syncClient = apiClient
		listClient = apiClient
	}

	syncService := membership.NewService(
		syncClient,
		messages,
		config.GetEnvBool("VERBOSE_ERRORS", false),
		logger,
	)
	directory := lists.NewDirectory(listClient, listCache, logger)

	app := server.SetupServiceRouter(logger, "signup", healthChecker, metricsCollector)

	membershipHandler := handlers.NewMembershipHandler(syncService, formConfig, logger, signupMetrics)
	listsHandler := handlers.NewListsHandler(directory, logger, signupMetrics)
	formHandler := handlers.NewFormHandler(formConfig)

	app.POST("/api/signup", membershipHandler.HandleSignup)
	app.POST("/api/subscribe", membershipHandler.HandleSubscribe)
	app.POST("/api/unsubscribe", membershipHandler.HandleUnsubscribe)
	app.GET("/api/lists", listsHandler.HandleLists)
	app.POST("/api/lists/flush", listsHandler.HandleFlush)
	app.GET("/api/form", formHandler.HandleForm)

	serverConfig := server.DefaultConfig("signup", port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}
