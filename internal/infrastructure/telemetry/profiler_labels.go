package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys attached to profiles.
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelTenantID  = "tenant_id"
	ProfilingLabelOperation = "operation"
)

// MaxLabelValueLength caps label values.
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped from profile labels.
var highCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"sale_id":    true,
	"session_id": true,
	"trace_id":   true,
	"span_id":    true,
}

// Operation names used when profiling point-of-sale work.
const (
	OperationOpenSession   = "open_session"
	OperationCloseSession  = "close_session"
	OperationCreateSale    = "create_sale"
	OperationCreditPayment = "credit_payment"
	OperationCancelSale    = "cancel_sale"
)

// WithProfilingLabels runs fn with the sanitized labels attached to its profile samples.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// HTTPRequestLabels labels a request by route, method and tenant.
func HTTPRequestLabels(route, method, tenantID string) map[string]string {
	return map[string]string{
		ProfilingLabelRoute:    route,
		ProfilingLabelMethod:   method,
		ProfilingLabelTenantID: tenantID,
	}
}

// POSOperationLabels labels a point-of-sale operation of a tenant.
func POSOperationLabels(operation, tenantID string) map[string]string {
	return map[string]string{
		ProfilingLabelOperation: operation,
		ProfilingLabelTenantID:  tenantID,
	}
}

// sanitizeLabels returns sorted key/value pairs, skipping empty and
// high-cardinality labels and truncating long values.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	clean := make(map[string]string, len(labels))
	for k, v := range labels {
		key := sanitizeLabelKey(k)
		if key == "" || v == "" || highCardinalityLabels[key] {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		clean[key] = v
	}

	keys := make([]string, 0, len(clean))
	for k := range clean {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, clean[k])
	}
	return pairs
}

func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		case c == ' ' || c == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}
