package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"support-router/internal/common/validation"
	"support-router/internal/models"

	"github.com/tidwall/gjson"
)

var knowledgeBaseSchema = validation.MustCompile("knowledge_base", `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["keywords", "answer"],
    "properties": {
      "keywords": {"type": "array", "items": {"type": "string"}},
      "answer": {"type": "string", "minLength": 1}
    }
  }
}`)

var orderBookSchema = validation.MustCompile("order_book", `{
  "type": "object",
  "propertyNames": {"pattern": "^ORD-[0-9]{5}$"},
  "additionalProperties": {
    "type": "object",
    "required": ["status"],
    "properties": {
      "order_id": {"type": "string"},
      "status": {"type": "string"},
      "items": {
        "type": ["array", "null"],
        "items": {
          "anyOf": [
            {"type": "string"},
            {"type": "object", "properties": {"name": {"type": "string"}}}
          ]
        }
      },
      "tracking": {"type": ["string", "null"]},
      "delivery_date": {"type": ["string", "null"]}
    }
  }
}`)

// ParseKnowledgeBase reads {"topic": {"keywords": [...], "answer": "..."}, ...} keeping the
// document order of the topics.
func ParseKnowledgeBase(data []byte) (*models.KnowledgeBase, error) {
	if err := knowledgeBaseSchema.ValidateBytes(data); err != nil {
		return nil, err
	}

	kb := &models.KnowledgeBase{}
	gjson.ParseBytes(data).ForEach(func(name, value gjson.Result) bool {
		topic := models.Topic{
			Name:   name.String(),
			Answer: value.Get("answer").String(),
		}
		for _, kw := range value.Get("keywords").Array() {
			topic.Keywords = append(topic.Keywords, kw.String())
		}
		kb.Topics = append(kb.Topics, topic)
		return true
	})
	return kb, nil
}

// ParseOrderBook reads {"ORD-12345": {...}, ...}. Records without an order_id take their key.
func ParseOrderBook(data []byte) (models.OrderBook, error) {
	if err := orderBookSchema.ValidateBytes(data); err != nil {
		return nil, err
	}

	var book models.OrderBook
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, err
	}
	for id, o := range book {
		if o.OrderID == "" {
			o.OrderID = id
			book[id] = o
		}
	}
	return book, nil
}

// FileKnowledgeSource reads the knowledge base from a JSON file.
type FileKnowledgeSource struct {
	Path string
}

func (s FileKnowledgeSource) Describe() string { return "file:" + s.Path }

func (s FileKnowledgeSource) LoadKnowledgeBase(_ context.Context) (*models.KnowledgeBase, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, knowledgeBaseError(s.Describe(), err)
	}
	kb, err := ParseKnowledgeBase(data)
	if err != nil {
		return nil, knowledgeBaseError(s.Describe(), fmt.Errorf("parse: %w", err))
	}
	return kb, nil
}

// FileOrderSource reads the order book from a JSON file.
type FileOrderSource struct {
	Path string
}

func (s FileOrderSource) Describe() string { return "file:" + s.Path }

func (s FileOrderSource) LoadOrders(_ context.Context) (models.OrderBook, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, orderRecordsError(s.Describe(), err)
	}
	book, err := ParseOrderBook(data)
	if err != nil {
		return nil, orderRecordsError(s.Describe(), fmt.Errorf("parse: %w", err))
	}
	return book, nil
}
