package datasource

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"support-router/internal/models"

	"github.com/lib/pq"
)

// PostgresKnowledgeSource reads faq_topics(name, keywords text[], answer, position).
type PostgresKnowledgeSource struct {
	DB    *sql.DB
	Table string
}

func (s PostgresKnowledgeSource) Describe() string { return "postgres:" + s.Table }

func (s PostgresKnowledgeSource) LoadKnowledgeBase(ctx context.Context) (*models.KnowledgeBase, error) {
	if err := checkIdentifier(s.Table); err != nil {
		return nil, knowledgeBaseError(s.Describe(), err)
	}

	query := fmt.Sprintf(`SELECT name, keywords, answer FROM %s ORDER BY position, name`, s.Table)
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, knowledgeBaseError(s.Describe(), err)
	}
	defer rows.Close()

	kb := &models.KnowledgeBase{}
	for rows.Next() {
		var t models.Topic
		var keywords pq.StringArray
		if err := rows.Scan(&t.Name, &keywords, &t.Answer); err != nil {
			return nil, knowledgeBaseError(s.Describe(), err)
		}
		t.Keywords = []string(keywords)
		kb.Topics = append(kb.Topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, knowledgeBaseError(s.Describe(), err)
	}
	return kb, nil
}

// PostgresOrderSource reads orders(order_id, status, items jsonb, tracking, delivery_date).
type PostgresOrderSource struct {
	DB    *sql.DB
	Table string
}

func (s PostgresOrderSource) Describe() string { return "postgres:" + s.Table }

func (s PostgresOrderSource) LoadOrders(ctx context.Context) (models.OrderBook, error) {
	if err := checkIdentifier(s.Table); err != nil {
		return nil, orderRecordsError(s.Describe(), err)
	}

	query := fmt.Sprintf(`SELECT order_id, status, items, COALESCE(tracking, ''), COALESCE(delivery_date::text, '') FROM %s`, s.Table)
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, orderRecordsError(s.Describe(), err)
	}
	defer rows.Close()

	book := make(models.OrderBook)
	for rows.Next() {
		var o models.Order
		var items []byte
		if err := rows.Scan(&o.OrderID, &o.Status, &items, &o.Tracking, &o.DeliveryDate); err != nil {
			return nil, orderRecordsError(s.Describe(), err)
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &o.Items); err != nil {
				return nil, orderRecordsError(s.Describe(), fmt.Errorf("order %s items: %w", o.OrderID, err))
			}
		}
		book[o.OrderID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, orderRecordsError(s.Describe(), err)
	}
	return book, nil
}
