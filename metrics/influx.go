package metrics

import (
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api/write"
)

// PointWriter is the subset of the InfluxDB async WriteAPI used here.
type PointWriter interface {
	WritePoint(point *write.Point)
}

// InfluxRecorder pushes one point per repeater event to InfluxDB.
type InfluxRecorder struct {
	writer  PointWriter
	station string
	now     func() time.Time

	mu        sync.Mutex
	lastPhase string
}

func NewInfluxRecorder(w PointWriter, station string) *InfluxRecorder {
	return &InfluxRecorder{writer: w, station: station, now: time.Now}
}

// NewInfluxClient returns the async write API for org/bucket and a close
// function that flushes pending points.
func NewInfluxClient(url, token, org, bucket string) (PointWriter, func()) {
	client := influxdb2.NewClient(url, token)
	writeAPI := client.WriteAPI(org, bucket)
	return writeAPI, func() {
		writeAPI.Flush()
		client.Close()
	}
}

func (r *InfluxRecorder) write(name string, tags map[string]string, fields map[string]interface{}) {
	if r == nil || r.writer == nil {
		return
	}
	if tags == nil {
		tags = map[string]string{}
	}
	tags["station"] = r.station
	r.writer.WritePoint(influxdb2.NewPoint(name, tags, fields, r.now()))
}

func (r *InfluxRecorder) IncRecordings() {
	r.write("recording.started", nil, map[string]interface{}{"count": 1})
}

func (r *InfluxRecorder) IncOverflows() {
	r.write("recording.overflow", nil, map[string]interface{}{"count": 1})
}

func (r *InfluxRecorder) IncOutcome(outcome string) {
	r.write("recording.outcome", map[string]string{"outcome": outcome}, map[string]interface{}{"count": 1})
}

func (r *InfluxRecorder) ObserveRecorded(d time.Duration) {
	r.write("recording.length", nil, map[string]interface{}{"seconds": d.Seconds()})
}

func (r *InfluxRecorder) ObserveTransmit(d time.Duration) {
	r.write("transmit.length", nil, map[string]interface{}{"seconds": d.Seconds()})
}

func (r *InfluxRecorder) SetTransmitting(on bool) {
	r.write("transmit.ptt", nil, map[string]interface{}{"keyed": on})
}

func (r *InfluxRecorder) SetPhase(phase string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	changed := phase != r.lastPhase
	r.lastPhase = phase
	r.mu.Unlock()
	if changed {
		r.write("controller.phase", map[string]string{"phase": phase}, map[string]interface{}{"active": true})
	}
}
