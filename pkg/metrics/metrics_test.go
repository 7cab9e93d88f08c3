package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailSendsCounter(t *testing.T) {
	before := testutil.ToFloat64(MailSends.WithLabelValues("welcome", "sent"))
	MailSends.WithLabelValues("welcome", "sent").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(MailSends.WithLabelValues("welcome", "sent")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	TokensIssued.WithLabelValues("verification").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "feedback_tokens_issued_total")
}
