package stats

import "math"

// InformationCriteria holds model selection criteria for a fitted regression.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC computes AIC, AICc and BIC from a log-likelihood, the number of
// observations and the number of estimated parameters.
func CalculateIC(logLik float64, nObs, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}
	return &InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    -2*logLik + k*math.Log(n),
		LogLik: logLik,
	}
}
