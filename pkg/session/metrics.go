package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/advbs/portal/pkg/apiclient"
)

const (
	outcomeSuccess     = "success"
	outcomeRejected    = "rejected"
	outcomeUnreachable = "unreachable"
	outcomeMalformed   = "malformed"
	outcomeNoToken     = "no_token"
)

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advbs_session_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advbs_session_verifications_total",
		Help: "Saved token verifications by outcome",
	}, []string{"outcome"})
)

func outcome(err error) string {
	switch {
	case apiclient.IsNetwork(err):
		return outcomeUnreachable
	case apiclient.IsMalformed(err):
		return outcomeMalformed
	default:
		return outcomeRejected
	}
}
