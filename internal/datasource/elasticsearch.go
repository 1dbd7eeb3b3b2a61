package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"support-router/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/tidwall/gjson"
)

const maxTopics = 1000

// ElasticsearchKnowledgeSource reads topic documents {name, keywords, answer, position}.
type ElasticsearchKnowledgeSource struct {
	Client *elasticsearch.Client
	Index  string
}

func (s ElasticsearchKnowledgeSource) Describe() string { return "elasticsearch:" + s.Index }

func (s ElasticsearchKnowledgeSource) LoadKnowledgeBase(ctx context.Context) (*models.KnowledgeBase, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"position": map[string]interface{}{"order": "asc"}}},
		"size":  maxTopics,
	})

	req := esapi.SearchRequest{
		Index: []string{s.Index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, s.Client)
	if err != nil {
		return nil, knowledgeBaseError(s.Describe(), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, knowledgeBaseError(s.Describe(), fmt.Errorf("search failed: %s", res.String()))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, knowledgeBaseError(s.Describe(), err)
	}

	kb := &models.KnowledgeBase{}
	gjson.GetBytes(raw, "hits.hits.#._source").ForEach(func(_, src gjson.Result) bool {
		topic := models.Topic{
			Name:   src.Get("name").String(),
			Answer: src.Get("answer").String(),
		}
		for _, kw := range src.Get("keywords").Array() {
			topic.Keywords = append(topic.Keywords, kw.String())
		}
		if topic.Name != "" {
			kb.Topics = append(kb.Topics, topic)
		}
		return true
	})
	return kb, nil
}
