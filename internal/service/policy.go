package service

import (
	"context"
	"time"

	"github.com/openams/openams/internal/domain/lifecycle"
	"github.com/openams/openams/internal/domain/plan"
	gocache "github.com/patrickmn/go-cache"
)

// PolicyResolver resolves the lifecycle period policy for a plan: explicit
// plan overrides over the system-wide defaults. Resolution happens once per
// batch run per plan, not per record, and resolved policies are cached for a
// bounded TTL so runtime changes to plan overrides propagate.
type PolicyResolver interface {
	ResolveForPlan(ctx context.Context, planID string) (lifecycle.PeriodPolicy, error)
	ResolvePolicy(p *plan.Plan) lifecycle.PeriodPolicy
	Defaults() lifecycle.PeriodPolicy
}

type policyResolver struct {
	ServiceParams
	cache *gocache.Cache
}

func NewPolicyResolver(params ServiceParams) PolicyResolver {
	ttl := time.Duration(params.Config.Lifecycle.PolicyCacheTTLSeconds) * time.Second
	return &policyResolver{
		ServiceParams: params,
		cache:         gocache.New(ttl, 2*ttl),
	}
}

func (r *policyResolver) Defaults() lifecycle.PeriodPolicy {
	return lifecycle.PeriodPolicy{
		GraceDays:     r.Config.Lifecycle.GraceDays,
		SuspendDays:   r.Config.Lifecycle.SuspendDays,
		TerminateDays: r.Config.Lifecycle.TerminateDays,
	}
}

func (r *policyResolver) ResolvePolicy(p *plan.Plan) lifecycle.PeriodPolicy {
	return lifecycle.Resolve(
		r.Defaults(),
		p.GraceDaysOverride,
		p.SuspendDaysOverride,
		p.TerminateDaysOverride,
	)
}

func (r *policyResolver) ResolveForPlan(ctx context.Context, planID string) (lifecycle.PeriodPolicy, error) {
	if cached, found := r.cache.Get(planID); found {
		return cached.(lifecycle.PeriodPolicy), nil
	}

	p, err := r.PlanRepo.Get(ctx, planID)
	if err != nil {
		return lifecycle.PeriodPolicy{}, err
	}

	policy := r.ResolvePolicy(p)
	if policy.TerminatesBeforeSuspensionEnds() {
		r.Logger.Warnw("plan policy terminates before its suspension window ends",
			"plan_id", planID,
			"grace_days", policy.GraceDays,
			"suspend_days", policy.SuspendDays,
			"terminate_days", policy.TerminateDays,
		)
	}

	r.cache.SetDefault(planID, policy)
	return policy, nil
}
