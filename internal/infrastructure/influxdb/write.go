package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementConfigLoad = "config_load"
	MeasurementProbe      = "datastore_probe"
)

// Load results recorded in the result tag.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid"
)

// LoadMetric describes one configuration load.
type LoadMetric struct {
	InstanceID string
	DBType     string
	Duration   time.Duration
	Keys       int
	Errors     int
	Warnings   int
	At         time.Time
}

// ProbeMetric describes one data store reachability check.
type ProbeMetric struct {
	InstanceID string
	DBType     string
	Latency    time.Duration
	OK         bool
	At         time.Time
}

// WriteLoadMetric records a configuration load as a config_load point.
// The write is non-blocking; failures reach the SetOnError callback.
//
// Example:
//
//	client.WriteLoadMetric(influxdb.LoadMetric{
//	    InstanceID: "oc8c0fd71e03",
//	    DBType:     "sqlite3",
//	    Duration:   time.Since(start),
//	    Keys:       cfg.Len(),
//	})
func (c *Client) WriteLoadMetric(m LoadMetric) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(loadPoint(m))
}

// WriteProbeMetric records a data store probe as a datastore_probe point.
func (c *Client) WriteProbeMetric(m ProbeMetric) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(probePoint(m))
}

func loadPoint(m LoadMetric) *write.Point {
	result := ResultOK
	if m.Errors > 0 {
		result = ResultInvalid
	}
	return write.NewPoint(
		MeasurementConfigLoad,
		tags(m.InstanceID, m.DBType, map[string]string{"result": result}),
		map[string]interface{}{
			"duration_ms": float64(m.Duration) / float64(time.Millisecond),
			"keys":        int64(m.Keys),
			"errors":      int64(m.Errors),
			"warnings":    int64(m.Warnings),
		},
		timestamp(m.At),
	)
}

func probePoint(m ProbeMetric) *write.Point {
	return write.NewPoint(
		MeasurementProbe,
		tags(m.InstanceID, m.DBType, nil),
		map[string]interface{}{
			"latency_ms": float64(m.Latency) / float64(time.Millisecond),
			"ok":         m.OK,
		},
		timestamp(m.At),
	)
}

// tags drops empty values; InfluxDB rejects empty tag values.
func tags(instanceID, dbtype string, extra map[string]string) map[string]string {
	out := map[string]string{}
	if instanceID != "" {
		out["instance_id"] = instanceID
	}
	if dbtype != "" {
		out["dbtype"] = dbtype
	}
	for k, v := range extra {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
