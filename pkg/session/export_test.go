package session

import "github.com/prometheus/client_golang/prometheus/testutil"

// LoginAttempts returns the login counter for the given outcome.
func LoginAttempts(outcome string) float64 {
	return testutil.ToFloat64(loginAttempts.WithLabelValues(outcome))
}

// Verifications returns the verification counter for the given outcome.
func Verifications(outcome string) float64 {
	return testutil.ToFloat64(verifications.WithLabelValues(outcome))
}
