// Package datasource loads the read-only knowledge base and order book from files, Postgres
// or Elasticsearch.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	apperrors "support-router/internal/common/errors"
	"support-router/internal/models"
)

var (
	ErrKnowledgeBaseLoad = errors.New("KNOWLEDGE_BASE_LOAD_FAILED")
	ErrOrderRecordsLoad  = errors.New("ORDER_RECORDS_LOAD_FAILED")
)

// KnowledgeSource loads topics in their source order.
type KnowledgeSource interface {
	LoadKnowledgeBase(ctx context.Context) (*models.KnowledgeBase, error)
	Describe() string
}

// OrderSource loads every order record.
type OrderSource interface {
	LoadOrders(ctx context.Context) (models.OrderBook, error)
	Describe() string
}

func knowledgeBaseError(source string, err error) error {
	return fmt.Errorf("%w: %w", ErrKnowledgeBaseLoad, apperrors.NewKnowledgeBaseLoadFailedError(source, err))
}

func orderRecordsError(source string, err error) error {
	return fmt.Errorf("%w: %w", ErrOrderRecordsLoad, apperrors.NewOrderRecordsLoadFailedError(source, err))
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// checkIdentifier guards table names that are interpolated into SQL.
func checkIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}
