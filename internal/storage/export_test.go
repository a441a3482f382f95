package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acstore/replenishment/internal/domain"
)

type memoryObjectStorage struct {
	objects map[string][]byte
}

func newMemoryObjectStorage() *memoryObjectStorage {
	return &memoryObjectStorage{objects: make(map[string][]byte)}
}

func (m *memoryObjectStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	m.objects[key] = data
	return nil
}

func (m *memoryObjectStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var infos []ObjectInfo
	for key, data := range m.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (m *memoryObjectStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	data, ok := m.objects[key]
	if !ok {
		return fmt.Errorf("object %s not found", key)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destPath, data, 0o644)
}

var _ ObjectStorage = (*memoryObjectStorage)(nil)

func exportRunDate() time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestExportMetricsCSVUndefinedCellsEmpty(t *testing.T) {
	store := newMemoryObjectStorage()
	records := []domain.MetricRecord{
		{ProductID: "P1", HoldingDays: 12.5, DemandPerDay: 0.5, TrendFactor: 1.1},
		{ProductID: "P2", HoldingDays: domain.Undefined(), DemandPerDay: domain.Undefined(), TrendFactor: domain.Undefined()},
	}

	require.NoError(t, ExportMetricsCSV(context.Background(), store, exportRunDate(), records))

	data, ok := store.objects["runs/2025-06-01/metrics.csv"]
	require.True(t, ok)

	body := string(data)
	assert.Contains(t, body, "P1")
	assert.Contains(t, body, "12.5000")
	assert.NotContains(t, body, "NaN")
}

func TestExportLayersCSVPadsRaggedRows(t *testing.T) {
	store := newMemoryObjectStorage()
	wide := []domain.WideAllocation{
		{
			ProductID: "P1", OnHandQuantity: 8, LayerTotal: 8,
			Layers: []domain.WideLayer{
				{LotDate: exportRunDate().AddDate(0, -3, 0), Quantity: 5},
				{LotDate: exportRunDate().AddDate(0, -1, 0), Quantity: 3},
			},
		},
		{
			ProductID: "P2", OnHandQuantity: 2, LayerTotal: 2,
			Layers: []domain.WideLayer{
				{LotDate: exportRunDate().AddDate(0, -2, 0), Quantity: 2},
			},
		},
	}

	require.NoError(t, ExportLayersCSV(context.Background(), store, exportRunDate(), wide))

	data, ok := store.objects["runs/2025-06-01/layers.csv"]
	require.True(t, ok)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "layer_2_date")

	// Every row carries the same number of cells as the header.
	width := strings.Count(lines[0], ",")
	for _, line := range lines[1:] {
		assert.Equal(t, width, strings.Count(line, ","))
	}
}

func TestObjectStorageListAndDownloadRoundTrip(t *testing.T) {
	store := newMemoryObjectStorage()
	runDate := exportRunDate()

	require.NoError(t, ExportChangesCSV(context.Background(), store, runDate, []domain.ChangeRecord{
		{ProductID: "P1", Kind: domain.ChangeNew, Details: "novo"},
	}))

	infos, err := store.ListObjects(context.Background(), "runs/2025-06-01/")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "runs/2025-06-01/changes.csv", infos[0].Key)
	assert.Greater(t, infos[0].Size, int64(0))

	dest := filepath.Join(t.TempDir(), "changes.csv")
	require.NoError(t, store.DownloadObject(context.Background(), infos[0].Key, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "P1")
}
