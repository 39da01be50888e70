package session

import (
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/tinytelemetry/swiper/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sampleYAML []byte

type sampleEntry struct {
	ID      string        `yaml:"id"`
	Age     time.Duration `yaml:"age"`
	Text    string        `yaml:"text"`
	Metrics struct {
		Likes   int64 `yaml:"likes"`
		Reposts int64 `yaml:"reposts"`
		Replies int64 `yaml:"replies"`
		Quotes  int64 `yaml:"quotes"`
	} `yaml:"metrics"`
}

// ParseSample decodes a YAML sample sequence, dating each item relative to now.
func ParseSample(data []byte, now time.Time) ([]model.Item, error) {
	var entries []sampleEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("session: parse sample: %w", err)
	}
	items := make([]model.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, model.Item{
			ID:        e.ID,
			CreatedAt: now.Add(-e.Age),
			Payload: model.Post{
				Text: e.Text,
				Metrics: model.PublicMetrics{
					Likes:   e.Metrics.Likes,
					Reposts: e.Metrics.Reposts,
					Replies: e.Metrics.Replies,
					Quotes:  e.Metrics.Quotes,
				},
			},
		})
	}
	return items, nil
}

// SampleItems returns the built-in offline sample.
func SampleItems(now time.Time) []model.Item {
	items, err := ParseSample(sampleYAML, now)
	if err != nil {
		log.Printf("%v", err)
		return []model.Item{}
	}
	return items
}
