package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/services/metrics"
)

func TestMetrics(t *testing.T) {
	m := metrics.New()
	m.CounsellorTransition("verified")
	m.CounsellorTransition("verified")
	m.Invite("counselor", "sent")
	m.MailSent("failed")
	m.ModerationAction("rejected")
	m.ObserveRequest(http.MethodGet, "/v1/counsellors", http.StatusOK, 20*time.Millisecond)
	m.LiveSessionOpened()
	m.LiveSessionOpened()
	m.LiveSessionClosed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	for _, want := range []string{
		`speakadmin_counsellor_transitions_total{status="verified"} 2`,
		`speakadmin_invites_total{kind="counselor",outcome="sent"} 1`,
		`speakadmin_mail_sent_total{outcome="failed"} 1`,
		`speakadmin_moderation_actions_total{action="rejected"} 1`,
		`speakadmin_http_requests_total{method="GET",path="/v1/counsellors",status="200"} 1`,
		`speakadmin_live_sessions 1`,
	} {
		assert.True(t, strings.Contains(body, want), want)
	}

	n, err := testutil.GatherAndCount(m.Registry, "speakadmin_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
