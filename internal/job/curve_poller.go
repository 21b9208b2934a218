package job

import (
	"context"
	"time"

	"curve-desk/internal/analysis"
	"curve-desk/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// CurvePoller periodically refreshes the Treasury curve and warms the
// baseline analysis cache.
type CurvePoller struct {
	tracer       trace.Tracer
	curveService CurveRefresher
	pollInterval time.Duration

	lastRegime string
}

type CurveRefresher interface {
	Refresh(ctx context.Context) (domain.YieldVector, error)
	Analyze(ctx context.Context, override domain.ScenarioOverride) (*analysis.Result, error)
}

func NewCurvePoller(tracer trace.Tracer, curveService CurveRefresher, pollIntervalSecs int) *CurvePoller {
	if pollIntervalSecs <= 0 {
		pollIntervalSecs = 3600
	}
	return &CurvePoller{
		tracer:       tracer,
		curveService: curveService,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start polls until ctx is cancelled.
func (p *CurvePoller) Start(ctx context.Context) {
	log.Printf("Curve poller starting (every %s)...", p.pollInterval)
	p.pollLoop(ctx, "treasury-curve", p.pollInterval, p.refresh)
	log.Println("Curve poller stopped")
}

func (p *CurvePoller) pollLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	// Run immediately on start
	if err := fn(ctx); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}

func (p *CurvePoller) refresh(ctx context.Context) error {
	ctx, span := p.tracer.Start(ctx, "curve-poller.refresh")
	defer span.End()

	if _, err := p.curveService.Refresh(ctx); err != nil {
		return err
	}

	res, err := p.curveService.Analyze(ctx, domain.ScenarioOverride{})
	if err != nil {
		return err
	}
	p.observeRegime(res.Slope)
	return nil
}

func (p *CurvePoller) observeRegime(slope domain.SlopeIndicator) {
	regime := slope.Regime()
	if p.lastRegime != "" && p.lastRegime != regime {
		log.WithFields(log.Fields{
			"from":       p.lastRegime,
			"to":         regime,
			"spread_pct": slope.SpreadPct,
		}).Warn("10Y-2Y regime changed")
	}
	p.lastRegime = regime
}
