package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/sitestock/internal/config"
	"github.com/mamadbah2/sitestock/internal/repository/memory"
	"github.com/mamadbah2/sitestock/internal/repository/mongodb"
	"github.com/mamadbah2/sitestock/internal/repository/sheets"
	"github.com/mamadbah2/sitestock/internal/service/audit"
	commandsvc "github.com/mamadbah2/sitestock/internal/service/commands"
	"github.com/mamadbah2/sitestock/internal/service/notify"
	"github.com/mamadbah2/sitestock/internal/service/records"
	reportingsvc "github.com/mamadbah2/sitestock/internal/service/reporting"
	"github.com/mamadbah2/sitestock/internal/service/stock"
	whatsappsvc "github.com/mamadbah2/sitestock/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/sitestock/pkg/clients/whatsapp"
	"github.com/mamadbah2/sitestock/pkg/logger"
)

const connectTimeout = 10 * time.Second

// app holds the wired services shared by the serve and export commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	trail     *audit.Log
	latest    *notify.Latest
	records   *records.Service
	reporting *reportingsvc.Service
	messaging *whatsappsvc.MetaWhatsAppService
	notifier  notify.Notifier
	notifiers []*notify.WhatsAppNotifier
	closers   []func(context.Context) error
}

func newApp(ctx context.Context, envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	baseLogger, err := logger.New(cfg.Server.LogLevel)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(baseLogger)

	a := &app{cfg: cfg, logger: baseLogger, latest: notify.NewLatest()}

	var remote records.RecordStore
	auditOpts := []audit.Option{audit.WithLogger(baseLogger.Named("svc.audit"))}
	if cfg.MongoDB.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		cancel()
		if err != nil {
			baseLogger.Warn("mongodb unavailable, records stay local to this process", zap.Error(err))
		} else {
			remote = mongoRepo
			auditOpts = append(auditOpts, audit.WithSink(mongoRepo))
			a.closers = append(a.closers, mongoRepo.Close)
		}
	} else {
		baseLogger.Warn("MONGODB_URI not set, records stay local to this process")
	}

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Warn("google sheets unavailable, report publishing disabled", zap.Error(err))
		} else {
			sheetsRepo = repo
		}
	}

	var waClient *whatsappclient.APIClient
	notifiers := notify.Multi{notify.NewLogNotifier(baseLogger.Named("notify")), a.latest}
	if cfg.WhatsApp.Enabled() {
		waClient = whatsappclient.NewClient(cfg.WhatsApp)
	}

	a.trail = audit.New(cfg.Inventory.AuditLogCapacity, auditOpts...)

	mode, ok := stock.ParseValuationMode(cfg.Inventory.ValuationMode)
	if !ok {
		return nil, fmt.Errorf("unknown valuation mode %q", cfg.Inventory.ValuationMode)
	}

	// notifiers gains the WhatsApp notifier below, once messaging exists.
	a.notifier = &notifiers
	a.records = records.NewService(remote, memory.NewRepository(), a.trail, a.notifier, records.Options{
		Valuation:                mode,
		ValidateConsumptionEdits: cfg.Inventory.ValidateConsumptionEdits,
		StoreTimeout:             cfg.Store.Timeout,
	}, logger.Named(baseLogger, "svc.records"))
	a.reporting = reportingsvc.NewService(a.records, sheetsRepo, logger.Named(baseLogger, "svc.reporting"))

	if waClient != nil {
		dispatcher := commandsvc.NewService(a.records, a.reporting, logger.Named(baseLogger, "svc.commands"))
		a.messaging = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, waClient, dispatcher, logger.Named(baseLogger, "svc.whatsapp"))
		if cfg.WhatsApp.ManagerID != "" {
			waNotifier := notify.NewWhatsAppNotifier(a.messaging, cfg.WhatsApp.ManagerID, baseLogger.Named("notify.whatsapp"))
			notifiers = append(notifiers, waNotifier)
			a.notifiers = append(a.notifiers, waNotifier)
		}
	}

	return a, nil
}

// close flushes pending notifications and releases connections.
func (a *app) close(ctx context.Context) {
	for _, n := range a.notifiers {
		n.Wait()
	}
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil {
			a.logger.Error("failed to close resource", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
