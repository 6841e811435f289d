package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vajra-security/shield/pkg/botscore"
	"github.com/vajra-security/shield/pkg/shield"
)

func TestObserveVerdict(t *testing.T) {
	m := New()

	m.ObserveVerdict(shield.VerdictAllow)
	m.ObserveVerdict(shield.VerdictAllow)
	m.ObserveVerdict(shield.VerdictBlock)

	if got := testutil.ToFloat64(m.verdictsTotal.WithLabelValues("allow")); got != 2 {
		t.Errorf("allow count = %g, want 2", got)
	}
	if got := testutil.ToFloat64(m.verdictsTotal.WithLabelValues("block")); got != 1 {
		t.Errorf("block count = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.verdictsTotal.WithLabelValues("challenge")); got != 0 {
		t.Errorf("challenge count = %g, want 0", got)
	}
}

func TestObserveScoreAndAutoBlock(t *testing.T) {
	m := New()

	m.ObserveScore(botscore.Score{Value: 95, Classification: botscore.ClassBot})
	m.ObserveScore(botscore.Score{Value: 5, Classification: botscore.ClassHuman})
	m.ObserveAutoBlock()
	m.ObserveRuleMatch("geo-block")

	if got := testutil.ToFloat64(m.classificationsTotal.WithLabelValues("bot")); got != 1 {
		t.Errorf("bot classification count = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.autoBlocksTotal); got != 1 {
		t.Errorf("auto-block count = %g, want 1", got)
	}
	if got := testutil.ToFloat64(m.ruleMatchesTotal.WithLabelValues("geo-block")); got != 1 {
		t.Errorf("rule match count = %g, want 1", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New()
	m.ObserveVerdict(shield.VerdictChallenge)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "shield_verdicts_total") {
		t.Errorf("scrape output missing shield_verdicts_total:\n%s", body)
	}
}
