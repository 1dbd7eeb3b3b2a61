// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"support-router/internal/common/camunda"
	"support-router/internal/common/config"
	"support-router/internal/common/database"
	"support-router/internal/common/logger"
	"support-router/internal/datasource"
	"support-router/internal/handlers/faq"
	"support-router/internal/handlers/order"
	"support-router/internal/models"
	"support-router/internal/router"
	resetsession "support-router/internal/workers/customer-service/reset-session"
	routequery "support-router/internal/workers/customer-service/route-query"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The suite needs a running Zeebe gateway and Redis:
//
//	E2E_ZEEBE_ADDRESS=localhost:26500 E2E_REDIS_ADDRESS=localhost:6379 go test ./test/e2e/...
const (
	envZeebe = "E2E_ZEEBE_ADDRESS"
	envRedis = "E2E_REDIS_ADDRESS"

	processID = "customer-service-query"
)

type environment struct {
	zeebe  *camunda.Client
	redis  *database.RedisClient
	kb     *models.KnowledgeBase
	orders models.OrderBook
	log    logger.Logger
}

func setup(t *testing.T) *environment {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	zeebeAddr, redisAddr := os.Getenv(envZeebe), os.Getenv(envRedis)
	if zeebeAddr == "" || redisAddr == "" {
		t.Skipf("set %s and %s to run the E2E suite", envZeebe, envRedis)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env := &environment{log: logger.NewTestLogger(t)}

	zc, err := camunda.NewClient(ctx, config.CamundaConfig{BrokerAddress: zeebeAddr, RequestTimeout: 10000}, camunda.DefaultRetryConfig)
	require.NoError(t, err, "❌ Zeebe connection failed")
	t.Cleanup(func() { _ = zc.Close() })
	env.zeebe = zc
	t.Log("✅ Zeebe connected")

	rdb, err := database.NewRedis(config.RedisConfig{Address: redisAddr})
	require.NoError(t, err)
	require.NoError(t, rdb.Ping(ctx), "❌ Redis ping failed")
	t.Cleanup(func() { _ = rdb.Close() })
	env.redis = rdb
	t.Log("✅ Redis connected")

	root := filepath.Join("..", "..")
	env.kb, err = datasource.FileKnowledgeSource{Path: filepath.Join(root, "data", "faq_knowledge_base.json")}.LoadKnowledgeBase(ctx)
	require.NoError(t, err)
	env.orders, err = datasource.FileOrderSource{Path: filepath.Join(root, "data", "orders_database.json")}.LoadOrders(ctx)
	require.NoError(t, err)

	return env
}

// ==========================
// Test Doubles
// ==========================

// keywordClassifier stands in for the language model so the suite needs no API key.
type keywordClassifier struct{}

func (keywordClassifier) Classify(_ context.Context, query, _ string) (models.ClassificationResult, error) {
	if id := order.ExtractOrderID(query); id != "" {
		return models.ClassificationResult{
			Intent:     models.IntentOrderStatus,
			Confidence: 0.95,
			Entities:   map[string]string{models.EntityOrderID: id},
		}, nil
	}
	return models.ClassificationResult{Intent: models.IntentUnclear, Confidence: 0.9}, nil
}

func (env *environment) newRouter(prefix string) *router.Router {
	return router.New(keywordClassifier{}, env.log,
		router.WithHandler(models.IntentFAQ, faq.NewHandler(env.kb, nil, env.log)),
		router.WithHandler(models.IntentOrderStatus, order.NewHandler(env.orders, nil, env.log)),
		router.WithSessionStore(router.NewRedisSessionStore(env.redis.Client, prefix, time.Minute)),
	)
}

// ==========================
// Tests
// ==========================

func TestWorkers_SharedSessionAcrossInstances(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	prefix := "e2e:" + uuid.NewString() + ":"

	// Two routers share one Redis session store, as two service replicas would.
	routeA := routequery.NewHandler(routequery.LoadConfig(nil), env.newRouter(prefix), nil, env.log)
	routeB := routequery.NewHandler(routequery.LoadConfig(nil), env.newRouter(prefix), nil, env.log)
	resetRouter := env.newRouter(prefix)
	reset := resetsession.NewHandler(resetsession.LoadConfig(nil), resetRouter, env.log)

	session := "e2e-" + uuid.NewString()

	first, err := routeA.Execute(ctx, &routequery.Input{Query: "hmm", SessionID: session})
	require.NoError(t, err)
	assert.False(t, first.Escalated)
	assert.Equal(t, router.ClarificationMessage, first.Response)

	second, err := routeB.Execute(ctx, &routequery.Input{Query: "still hmm", SessionID: session})
	require.NoError(t, err)
	assert.True(t, second.Escalated)

	_, err = reset.Execute(ctx, &resetsession.Input{SessionID: session})
	require.NoError(t, err)

	third, err := routeA.Execute(ctx, &routequery.Input{Query: "hmm again", SessionID: session})
	require.NoError(t, err)
	assert.False(t, third.Escalated, "reset must clear the shared counter")
}

func TestWorkers_ProcessInstance(t *testing.T) {
	env := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := env.zeebe.Zeebe().NewDeployResourceCommand().
		AddResourceFile(filepath.Join("testdata", "customer-service.bpmn")).
		Send(ctx)
	require.NoError(t, err, "❌ BPMN deployment failed")

	h := routequery.NewHandler(routequery.LoadConfig(nil), env.newRouter("e2e:"+uuid.NewString()+":"), nil, env.log)
	w := camunda.StartWorker(env.zeebe.Zeebe(), routequery.TaskType, config.WorkerConfig{MaxJobsActive: 1, Timeout: 10000}, h, env.log)
	defer w.Stop()

	cmd, err := env.zeebe.Zeebe().NewCreateInstanceCommand().
		BPMNProcessId(processID).
		LatestVersion().
		VariablesFromMap(map[string]interface{}{
			"query":     "Where is my order ORD-12345?",
			"sessionId": "e2e-" + uuid.NewString(),
		})
	require.NoError(t, err)

	result, err := cmd.WithResult().Send(ctx)
	require.NoError(t, err, "❌ process instance did not complete")

	var out routequery.Output
	require.NoError(t, json.Unmarshal([]byte(result.GetVariables()), &out))
	assert.Equal(t, "order_status", out.Intent)
	assert.False(t, out.Escalated)
	assert.Contains(t, out.Response, "shipped")
	t.Log("✅ process instance routed the query")
}
