package credit

import "curve-desk/internal/domain"

const (
	ShortTenor = "2Y"
	LongTenor  = "10Y"
)

// SpreadCurve returns corporate minus treasury at every maturity.
func SpreadCurve(corporate, treasury domain.YieldVector) (domain.YieldVector, error) {
	if err := corporate.AlignedWith(treasury); err != nil {
		return domain.YieldVector{}, err
	}
	out := corporate.Clone()
	out.Kind = domain.KindSpread
	for i := range out.Points {
		out.Points[i].YieldPct = corporate.Points[i].YieldPct - treasury.Points[i].YieldPct
	}
	return out, nil
}

// Slope10Y2Y is the 10Y minus 2Y yield. A negative value flags an inverted curve.
func Slope10Y2Y(v domain.YieldVector) (domain.SlopeIndicator, error) {
	return SlopeBetween(v, ShortTenor, LongTenor)
}

// SlopeBetween is long minus short for two maturities present on v. Zero is
// not inverted.
func SlopeBetween(v domain.YieldVector, short, long string) (domain.SlopeIndicator, error) {
	ys, ok := v.At(short)
	if !ok {
		return domain.SlopeIndicator{}, &domain.MissingMaturityError{Label: short}
	}
	yl, ok := v.At(long)
	if !ok {
		return domain.SlopeIndicator{}, &domain.MissingMaturityError{Label: long}
	}
	spread := yl - ys
	return domain.SlopeIndicator{
		Short:     short,
		Long:      long,
		SpreadPct: spread,
		Inverted:  spread < 0,
	}, nil
}
