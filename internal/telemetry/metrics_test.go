package telemetry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// ---------------------------------------------------------------------------
// Metric registration sanity checks — verify every exported metric is properly
// registered and carries the expected fully-qualified name.
//
// We check registration via Describe() rather than DefaultGatherer.Gather()
// because Gather() only returns series that have been observed at least once;
// *Vec metrics with no label combinations yet used are silently absent from
// Gather output even though they are correctly registered.
// ---------------------------------------------------------------------------

func TestMetrics_AllRegistered(t *testing.T) {
	type describer interface {
		Describe(chan<- *prometheus.Desc)
	}

	cases := []struct {
		name string
		c    describer
	}{
		{"http_requests_total", HTTPRequestsTotal},
		{"http_request_duration_seconds", HTTPRequestDuration},
		{"webhook_events_total", WebhookEventsTotal},
		{"webhook_verification_failures_total", WebhookVerificationFailuresTotal},
		{"db_open_connections", DBOpenConnections},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			ch := make(chan *prometheus.Desc, 10)
			tc.c.Describe(ch)
			close(ch)
			found := false
			for desc := range ch {
				// prometheus.Desc.String() returns a Go syntax string of the form:
				//   Desc{fqName: "<name>", help: "...", constLabels: {}, variableLabels: [...]}
				if strings.Contains(desc.String(), `"`+tc.name+`"`) {
					found = true
				}
			}
			if !found {
				t.Errorf("metric %s not found in Describe output", tc.name)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Label behaviour
// ---------------------------------------------------------------------------

func gatherFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("DefaultGatherer.Gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestWebhookEventsTotal_Labels(t *testing.T) {
	WebhookEventsTotal.WithLabelValues("user.created", "applied").Inc()
	WebhookEventsTotal.WithLabelValues("organizationMembership.created", "skipped").Inc()

	mf := gatherFamily(t, "webhook_events_total")
	if mf == nil {
		t.Fatal("webhook_events_total not found after observation")
	}

	want := map[string]bool{
		"user.created|applied":                   false,
		"organizationMembership.created|skipped": false,
	}
	for _, m := range mf.GetMetric() {
		var typ, outcome string
		for _, lp := range m.GetLabel() {
			switch lp.GetName() {
			case "type":
				typ = lp.GetValue()
			case "outcome":
				outcome = lp.GetValue()
			}
		}
		key := typ + "|" + outcome
		if _, ok := want[key]; ok {
			want[key] = true
			if m.GetCounter().GetValue() < 1 {
				t.Errorf("series %s has value %v, want >= 1", key, m.GetCounter().GetValue())
			}
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("expected series %s not gathered", key)
		}
	}
}

func TestWebhookVerificationFailures_Increments(t *testing.T) {
	before := counterValue(t, "webhook_verification_failures_total")
	WebhookVerificationFailuresTotal.Inc()
	after := counterValue(t, "webhook_verification_failures_total")
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func counterValue(t *testing.T, name string) float64 {
	t.Helper()
	mf := gatherFamily(t, name)
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}
