// Regression tests for scorer determinism.
package botscore

import (
	"reflect"
	"testing"

	"github.com/vajra-security/shield/pkg/traffic"
)

// TestComputeDeterministic verifies repeated scoring of the same request is
// byte-identical, including reason order. The scorer's output is memoized by
// fingerprint upstream, so any nondeterminism here would poison caches.
func TestComputeDeterministic(t *testing.T) {
	t.Parallel()

	req := traffic.Request{
		UserAgent: "python-requests/2.28.1",
		Path:      "/admin",
		Method:    "OPTIONS",
		Headers: map[string]string{
			"via":              "1.1 proxy",
			"x-requested-with": "XMLHttpRequest",
		},
	}

	first := Compute(req)

	for i := 0; i < 200; i++ {
		result := Compute(req)

		if result.Value != first.Value {
			t.Fatalf("iteration %d: score %d, first was %d", i, result.Value, first.Value)
		}
		if result.Classification != first.Classification {
			t.Fatalf("iteration %d: classification %s, first was %s",
				i, result.Classification, first.Classification)
		}
		if !reflect.DeepEqual(result.Reasons, first.Reasons) {
			t.Fatalf("iteration %d: reasons %v, first was %v", i, result.Reasons, first.Reasons)
		}
		if result.Fingerprint != first.Fingerprint {
			t.Fatalf("iteration %d: fingerprint %s, first was %s",
				i, result.Fingerprint, first.Fingerprint)
		}
	}
}
