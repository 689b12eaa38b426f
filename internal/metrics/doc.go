// Package metrics records build, trigger and dev server metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so call sites never check for nil:
//
//	type Coordinator struct {
//		recorder metrics.Recorder
//	}
//
//	c.recorder.IncTriggerRequest(metrics.TriggerCoalesced)
//
// PrometheusRecorder registers its collectors on a caller-supplied registry;
// HTTPHandler exposes that registry for scraping on the admin listener.
package metrics
