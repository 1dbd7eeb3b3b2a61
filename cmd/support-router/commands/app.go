package commands

import (
	"context"
	"fmt"
	"time"

	"support-router/internal/capability"
	"support-router/internal/common/aws"
	"support-router/internal/common/config"
	"support-router/internal/common/database"
	"support-router/internal/common/logger"
	"support-router/internal/common/observability"
	"support-router/internal/datasource"
	"support-router/internal/handlers/faq"
	"support-router/internal/handlers/order"
	"support-router/internal/handlers/refine"
	"support-router/internal/models"
	"support-router/internal/notify"
	"support-router/internal/router"

	"go.uber.org/zap"
)

const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

// app holds everything the commands share: config, logging, infrastructure clients and the
// loaded reference data.
type app struct {
	cfg    *config.Config
	zap    *zap.Logger
	log    logger.Logger
	obs    *observability.Observability
	pg     *database.PostgresClient
	es     *database.ElasticsearchClient
	redis  *database.RedisClient
	kb     *models.KnowledgeBase
	orders models.OrderBook
}

type appOptions struct {
	// quiet sends logs to stderr at warn so the console stays readable.
	quiet bool
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	level, output := cfg.Logging.Level, cfg.Logging.Output
	if opts.quiet {
		if logger.ParseLevel(level) < zap.WarnLevel {
			level = "warn"
		}
		output = "stderr"
	}
	zapLog := logger.New(level, cfg.Logging.Format, output)

	a := &app{
		cfg: cfg,
		zap: zapLog,
		log: logger.NewZapAdapter(zapLog),
	}
	a.obs = observability.New(observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	}, a.log)

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.loadData(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) needsPostgres() bool {
	return a.cfg.Data.KnowledgeBase.Source == config.SourcePostgres || a.cfg.Data.Orders.Source == config.SourcePostgres
}

func (a *app) needsRedis() bool {
	return a.cfg.Router.SessionStore == config.SessionStoreRedis || a.cfg.Capability.CacheTTL > 0
}

// connect opens only the infrastructure the configured components use.
func (a *app) connect(ctx context.Context) error {
	if a.needsPostgres() {
		pg, err := database.NewPostgres(a.cfg.Database.Postgres)
		if err != nil {
			return err
		}
		a.pg = pg
		if err := database.Connect(ctx, "PostgreSQL connection", connectAttempts, connectDelay, a.log, pg.Ping); err != nil {
			return err
		}
		a.log.Info("PostgreSQL connected", nil)
	}

	if a.cfg.Data.KnowledgeBase.Source == config.SourceElasticsearch {
		es, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		a.es = es
		if err := database.Connect(ctx, "Elasticsearch connection", connectAttempts, connectDelay, a.log, es.Ping); err != nil {
			return err
		}
		a.log.Info("Elasticsearch connected", nil)
	}

	if a.needsRedis() {
		rdb, err := database.NewRedis(a.cfg.Database.Redis)
		if err != nil {
			return err
		}
		a.redis = rdb
		if err := database.Connect(ctx, "Redis connection", connectAttempts, connectDelay, a.log, rdb.Ping); err != nil {
			return err
		}
		a.log.Info("Redis connected", nil)
	}
	return nil
}

func (a *app) loadData(ctx context.Context) error {
	clients := datasource.Clients{}
	if a.pg != nil {
		clients.DB = a.pg.DB
	}
	if a.es != nil {
		clients.Elasticsearch = a.es.Client
	}

	kbSource, err := datasource.NewKnowledgeSource(a.cfg.Data.KnowledgeBase, clients)
	if err != nil {
		return err
	}
	if a.kb, err = kbSource.LoadKnowledgeBase(ctx); err != nil {
		return err
	}

	orderSource, err := datasource.NewOrderSource(a.cfg.Data.Orders, clients)
	if err != nil {
		return err
	}
	if a.orders, err = orderSource.LoadOrders(ctx); err != nil {
		return err
	}

	a.log.Info("reference data loaded", map[string]interface{}{
		"knowledgeBase": kbSource.Describe(),
		"topics":        a.kb.Len(),
		"orderSource":   orderSource.Describe(),
		"orders":        len(a.orders),
	})
	return nil
}

type routerOptions struct {
	backend string
	// isolated forces an in-memory session store and no notifier.
	isolated bool
}

// newRouter wires a router for one capability backend.
func (a *app) newRouter(ctx context.Context, opts routerOptions) (*router.Router, error) {
	backend := opts.backend
	if backend == "" {
		backend = a.cfg.Capability.Backend
	}

	gen, err := capability.NewGenerator(backend, a.cfg.Capability.Backends[backend])
	if err != nil {
		return nil, err
	}

	var classifier capability.Classifier = capability.NewStructuredClassifier(gen, a.log)
	if a.cfg.Capability.CacheTTL > 0 && a.redis != nil {
		ttl := time.Duration(a.cfg.Capability.CacheTTL) * time.Second
		classifier = capability.NewCachedClassifier(classifier, a.redis.Client, ttl, a.log)
	}

	var rewriter capability.Rewriter
	if a.cfg.Capability.RewriteEnabled {
		rewriter = capability.NewTextRewriter(gen)
	}

	faqHandler := faq.NewHandler(a.kb, refine.New(rewriter, faq.RewriteTemplate, a.log), a.log)
	orderHandler := order.NewHandler(a.orders, refine.New(rewriter, order.RewriteTemplate, a.log), a.log)

	routerOpts := []router.Option{
		router.WithHandler(models.IntentFAQ, faqHandler),
		router.WithHandler(models.IntentOrderStatus, orderHandler),
		router.WithThreshold(a.cfg.Router.ConfidenceThreshold),
		router.WithObservability(a.obs),
	}

	if !opts.isolated {
		routerOpts = append(routerOpts, router.WithSessionStore(a.sessionStore()))

		notifier, err := a.notifier(ctx)
		if err != nil {
			return nil, err
		}
		if notifier != nil {
			routerOpts = append(routerOpts, router.WithNotifier(notifier))
		}
	}

	return router.New(classifier, a.log, routerOpts...), nil
}

func (a *app) sessionStore() router.SessionStore {
	if a.cfg.Router.SessionStore == config.SessionStoreRedis && a.redis != nil {
		ttl := time.Duration(a.cfg.Router.SessionTTL) * time.Second
		return router.NewRedisSessionStore(a.redis.Client, a.cfg.Router.SessionKeyPrefix, ttl)
	}
	return router.NewMemorySessionStore()
}

// notifier returns nil when no channel is enabled.
func (a *app) notifier(ctx context.Context) (*notify.Notifier, error) {
	n := a.cfg.Notifications
	if !n.Enabled() {
		return nil, nil
	}

	clients, err := aws.NewClients(ctx, n.AWS.Region, n.Email.Enabled, n.SNS.Enabled)
	if err != nil {
		return nil, fmt.Errorf("escalation notifier: %w", err)
	}

	var (
		email notify.EmailSender
		topic notify.TopicPublisher
	)
	if clients.SES != nil {
		email = clients.SES
	}
	if clients.SNS != nil {
		topic = clients.SNS
	}

	return notify.New(notify.Config{
		FromEmail: n.Email.FromEmail,
		ToEmail:   n.Email.ToEmail,
		TopicARN:  n.SNS.TopicARN,
	}, email, topic, a.log), nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.obs.Shutdown(ctx); err != nil {
		a.log.Warn("observability shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	_ = a.zap.Sync()
}
