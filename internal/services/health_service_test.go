package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockpulse/pkg/contracts"
	"stockpulse/pkg/contracts/domain"
)

type stubDatasets struct {
	info *domain.DatasetInfo
	err  error
}

func (s stubDatasets) Info() (*domain.DatasetInfo, error) { return s.info, s.err }

type stubHub int

func (h stubHub) ClientCount() int { return int(h) }

func TestHealthService_HealthCheck(t *testing.T) {
	loaded := &domain.DatasetInfo{FileName: "movimientos.xlsx", LoadedAt: time.Now().Add(-time.Minute)}

	tests := []struct {
		name        string
		datasets    DatasetInfoProvider
		hub         ClientCounter
		dataset     ServiceHealth
		wsStatus    string
		clientCount int
	}{
		{
			name:        "dataset loaded",
			datasets:    stubDatasets{info: loaded},
			hub:         stubHub(3),
			dataset:     ServiceHealth{Status: "ready", Message: "movimientos.xlsx", Uptime: "1m0s"},
			wsStatus:    "ready",
			clientCount: 3,
		},
		{
			name:     "nothing loaded yet",
			datasets: stubDatasets{err: ErrNoDataset},
			hub:      stubHub(0),
			dataset:  ServiceHealth{Status: "ready", Message: "no dataset loaded"},
			wsStatus: "ready",
		},
		{
			name:     "no services wired",
			dataset:  ServiceHealth{Status: "not_ready", Message: "dataset service not initialized"},
			wsStatus: "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService(tt.datasets, tt.hub, nil)
			status := hs.HealthCheck(context.Background())

			assert.Equal(t, "ok", status.Status)
			assert.Equal(t, contracts.Version, status.Version)
			assert.Equal(t, tt.dataset, status.Services["dataset"])
			assert.Equal(t, tt.wsStatus, status.Services["websocket"].(ServiceHealth).Status)
			assert.Contains(t, status.Runtime, "go_version")
			assert.Equal(t, tt.clientCount, hs.ClientCount())
		})
	}
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService(stubDatasets{err: errors.New("none")}, nil, nil)
	info := hs.Version()

	for _, key := range []string{"version", "api_version", "go_version", "os", "arch", "start_time"} {
		assert.Contains(t, info, key)
	}
	assert.Equal(t, contracts.Version, info["version"])
}
