package datasource

import (
	"database/sql"
	"fmt"

	"support-router/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// Clients carries the shared connections a source may need. Unused ones may be nil.
type Clients struct {
	DB            *sql.DB
	Elasticsearch *elasticsearch.Client
}

func NewKnowledgeSource(cfg config.KnowledgeBaseConfig, clients Clients) (KnowledgeSource, error) {
	switch cfg.Source {
	case "", config.SourceFile:
		return FileKnowledgeSource{Path: cfg.Path}, nil
	case config.SourcePostgres:
		if clients.DB == nil {
			return nil, fmt.Errorf("knowledge base source postgres needs a database connection")
		}
		return PostgresKnowledgeSource{DB: clients.DB, Table: cfg.Table}, nil
	case config.SourceElasticsearch:
		if clients.Elasticsearch == nil {
			return nil, fmt.Errorf("knowledge base source elasticsearch needs a client")
		}
		return ElasticsearchKnowledgeSource{Client: clients.Elasticsearch, Index: cfg.Index}, nil
	default:
		return nil, fmt.Errorf("unknown knowledge base source %q", cfg.Source)
	}
}

func NewOrderSource(cfg config.OrdersConfig, clients Clients) (OrderSource, error) {
	switch cfg.Source {
	case "", config.SourceFile:
		return FileOrderSource{Path: cfg.Path}, nil
	case config.SourcePostgres:
		if clients.DB == nil {
			return nil, fmt.Errorf("order source postgres needs a database connection")
		}
		return PostgresOrderSource{DB: clients.DB, Table: cfg.Table}, nil
	default:
		return nil, fmt.Errorf("unknown order source %q", cfg.Source)
	}
}
