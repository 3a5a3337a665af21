package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

type mockStatsProvider struct {
	stats Stats
}

func (m *mockStatsProvider) GetStats() Stats {
	return m.stats
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{TotalItems: 3}}

	collector := NewCollector(provider, 5*time.Second)
	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", collector.interval)
	}
	if collector.stopChan == nil {
		t.Error("stopChan should be initialized")
	}
}

func TestCollectUpdatesGauges(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{TotalItems: 12, ImagesLoaded: 1, ThumbsLoaded: 7}}
	c := NewCollector(provider, time.Hour)
	c.collect()

	tests := []struct {
		name string
		read func(*dto.Metric) error
		want float64
	}{
		{"items", CollectionItemsTotal.Write, 12},
		{"images", CollectionImagesLoaded.Write, 1},
		{"thumbs", CollectionThumbsLoaded.Write, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m dto.Metric
			if err := tt.read(&m); err != nil {
				t.Fatalf("Write() error: %v", err)
			}
			if got := m.GetGauge().GetValue(); got != tt.want {
				t.Errorf("gauge = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollectWithNilProvider(_ *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestCollectorStartStop(_ *testing.T) {
	c := NewCollector(&mockStatsProvider{}, 10*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
}
