package metrics

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/shapeflow/catalog"
	"github.com/BaSui01/shapeflow/flagged"
	"github.com/BaSui01/shapeflow/streaming"
	"github.com/BaSui01/shapeflow/types"
	"github.com/BaSui01/shapeflow/unify"
)

var collectorNamespaceSeq uint64

func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

// =============================================================================
// 🧪 Collector 测试
// =============================================================================

func TestNewCollector(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, collector)
	assert.NotNil(t, collector.validationsTotal)
	assert.NotNil(t, collector.validationDuration)
	assert.NotNil(t, collector.droppedElements)
	assert.NotNil(t, collector.nullPlaceholders)
	assert.NotNil(t, collector.catalogReloads)

	assert.NotNil(t, NewCollector(nextTestNamespace(), nil), "nil logger falls back to nop")
}

func TestCollector_ObserveValidation(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.ObserveValidation(streaming.Report{
		AllowPartials: true,
		Duration:      2 * time.Millisecond,
		Stats:         streaming.Stats{Dropped: 2, Placeholders: 1, Fillers: 3},
		Summary:       streaming.Summary{Nodes: 5, Complete: 3, Incomplete: 1, Pending: 1},
	})
	collector.ObserveValidation(streaming.Report{
		AllowPartials: true,
		Err:           streaming.ErrIncompleteDoneValue,
	})
	collector.ObserveValidation(streaming.Report{Err: streaming.ErrMissingNeededFields})

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.validationsTotal.WithLabelValues("partial", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.validationsTotal.WithLabelValues("partial", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.validationsTotal.WithLabelValues("final", "error")))

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.droppedElements))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.nullPlaceholders))
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.nullFillers))
	assert.Equal(t, 3.0, testutil.ToFloat64(collector.nodesTotal.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.nodesTotal.WithLabelValues("pending")))

	assert.Equal(t, 2, testutil.CollectAndCount(collector.validationDuration))
}

func TestCollector_AsValidatorObserver(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())
	reg, err := catalog.NewBuilder().Build()
	require.NoError(t, err)

	v := streaming.NewValidator(unify.New(reg), zap.NewNop(), streaming.WithObserver(collector))
	snapshots := []*flagged.Value{
		flagged.NewList(nil, flagged.NewInt(1), flagged.NewInt(2, flagged.Incomplete())),
		flagged.NewList(nil, flagged.NewInt(1), flagged.NewInt(22)),
	}
	chunks := v.Replay(snapshots, types.ListOf(types.Int()))
	require.Len(t, chunks, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.validationsTotal.WithLabelValues("partial", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.validationsTotal.WithLabelValues("final", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.droppedElements))
}

func TestCollector_RecordCatalogReload(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	collector.RecordCatalogReload(nil)
	collector.RecordCatalogReload(nil)
	collector.RecordCatalogReload(errors.New("bad yaml"))

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.catalogReloads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.catalogReloads.WithLabelValues("failure")))
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	// 并发记录多个指标
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.ObserveValidation(streaming.Report{
				AllowPartials: true,
				Stats:         streaming.Stats{Dropped: 1},
			})
			collector.RecordCatalogReload(nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10.0, testutil.ToFloat64(collector.validationsTotal.WithLabelValues("partial", "ok")))
	assert.Equal(t, 10.0, testutil.ToFloat64(collector.droppedElements))
}

func TestCollector_MetricsRegistration(t *testing.T) {
	// 创建自定义 registry
	registry := prometheus.NewRegistry()

	// 创建 collector（会自动注册到默认 registry）
	collector := NewCollector(nextTestNamespace(), zap.NewNop())

	// 手动注册到自定义 registry
	registry.MustRegister(collector.validationsTotal)
	registry.MustRegister(collector.validationDuration)

	collector.ObserveValidation(streaming.Report{Duration: time.Millisecond})

	count, err := testutil.GatherAndCount(registry)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
