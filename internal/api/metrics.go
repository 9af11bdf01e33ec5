package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/voxel-studio/internal/session"
)

// ServerMetrics отслеживает метрики движка редактора для Prometheus
// и для эндпоинта /api/stats.
type ServerMetrics struct {
	startTime time.Time

	blockCount   prometheus.GaugeFunc
	historyDepth prometheus.GaugeFunc
	chunkCount   prometheus.GaugeFunc
	editsTotal   *prometheus.CounterVec
}

// NewServerMetrics создаёт и регистрирует метрики движка
func NewServerMetrics(sess *session.EditorSession) *ServerMetrics {
	sm := &ServerMetrics{
		startTime: time.Now(),
		blockCount: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "voxel_engine",
			Name:      "blocks_total",
			Help:      "Текущее количество занятых ячеек.",
		}, func() float64 { return float64(sess.Store().Count()) }),
		historyDepth: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "voxel_engine",
			Name:      "history_depth",
			Help:      "Количество слепков в истории изменений.",
		}, func() float64 { return float64(sess.Store().History().Depth()) }),
		chunkCount: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "voxel_engine",
			Name:      "index_chunks",
			Help:      "Количество непустых чанков пространственного индекса.",
		}, func() float64 { return float64(sess.Store().Index().ChunkCount()) }),
		editsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel_engine",
			Name:      "edits_total",
			Help:      "Количество операций редактирования по видам.",
		}, []string{"op"}),
	}

	prometheus.MustRegister(sm.blockCount, sm.historyDepth, sm.chunkCount, sm.editsTotal)
	return sm
}

// CountEdit фиксирует выполненную операцию редактирования
func (sm *ServerMetrics) CountEdit(op string) {
	sm.editsTotal.WithLabelValues(op).Inc()
}

// GetUptime возвращает аптайм сервера в человекочитаемом виде
func (sm *ServerMetrics) GetUptime() string {
	return time.Since(sm.startTime).Round(time.Second).String()
}
