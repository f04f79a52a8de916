// Package job contains the scheduled maintenance jobs of the dashboard.
package job

import (
	"github.com/argo-inference/model-dashboard/logger"
	"github.com/argo-inference/model-dashboard/web/service"
)

// TokenSweepJob marks expired API tokens revoked so token listings reflect
// reality between validations.
type TokenSweepJob struct {
	tokenService service.TokenService
}

func NewTokenSweepJob() *TokenSweepJob {
	return new(TokenSweepJob)
}

// Run implements cron.Job.
func (j *TokenSweepJob) Run() {
	count, err := j.tokenService.Sweep()
	if err != nil {
		logger.Warning("token sweep failed:", err)
		return
	}
	if count > 0 {
		logger.Infof("token sweep revoked %d expired token(s)", count)
	}
}
