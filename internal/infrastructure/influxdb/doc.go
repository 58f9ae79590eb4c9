// Package influxdb records configuration loads in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written:
//
//	config_load      fields duration_ms, keys, errors, warnings
//	                 tags instance_id, dbtype, result (ok|invalid)
//	datastore_probe  fields latency_ms, ok
//	                 tags instance_id, dbtype
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, map[string]string{"service": "cloudcfg"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteLoadMetric(influxdb.LoadMetric{InstanceID: id, Keys: cfg.Len()})
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval); write
// errors are delivered to the SetOnError callback. Connection and health
// check errors are returned directly.
package influxdb
