package xc

import "math"

// SlaterExchange is the Dirac/Slater local-density exchange functional,
// spin-scaled via the exact relation eps_x(up,down) = (eps_x(2up) +
// eps_x(2down))/2 for the unpolarized same-spin exchange energy.
type SlaterExchange struct{}

const slaterCx = 0.7385587663820224 // (3/4)*(3/pi)^(1/3)

func (SlaterExchange) RequiresGradient() bool { return false }

// Eval returns the exchange energy density (per volume) and potential,
// using the exact spin-scaling relation E_x[up,down] = (E_x[2*up] +
// E_x[2*down])/2 applied to the Dirac exchange energy density
// -Cx*rho^(4/3).
func (SlaterExchange) Eval(rhoUp, rhoDown float64, _, _ [3]float64) (eps, vUp, vDown float64) {
	densUp, vUp := slaterChannel(rhoUp)
	densDown, vDown := slaterChannel(rhoDown)
	return densUp + densDown, vUp, vDown
}

// slaterChannel returns the per-spin contribution to the exchange
// energy density and its potential: 0.5*(-Cx*(2*rho)^(4/3)) and its
// derivative with respect to rho.
func slaterChannel(rho float64) (densityContribution, vxc float64) {
	if rho <= 0 {
		return 0, 0
	}
	two := 2 * rho
	densityContribution = -0.5 * slaterCx * math.Pow(two, 4.0/3.0)
	vxc = -slaterCx * (4.0 / 3.0) * math.Cbrt(two)
	return
}

// PW92Correlation is the Perdew-Wang 1992 local-density correlation
// functional, spin-interpolated via the standard f(zeta) Taylor device.
type PW92Correlation struct{}

func (PW92Correlation) RequiresGradient() bool { return false }

func (PW92Correlation) Eval(rhoUp, rhoDown float64, _, _ [3]float64) (eps, vUp, vDown float64) {
	rho := rhoUp + rhoDown
	if rho <= 1e-14 {
		return 0, 0, 0
	}
	zeta := (rhoUp - rhoDown) / rho
	rs := math.Cbrt(3.0 / (4.0 * math.Pi * rho))

	ec0, dec0 := pw92G(rs, pw92Unpolarized)
	ec1, dec1 := pw92G(rs, pw92Polarized)
	alphaC, dAlphaC := pw92G(rs, pw92SpinStiffness)
	alphaC, dAlphaC = -alphaC, -dAlphaC

	fz, dfz := spinInterp(zeta)
	const fppz0 = 1.709921 // f''(0), used by the exact spin-stiffness interpolation

	ec := ec0 + alphaC*fz/fppz0*(1-zeta4(zeta)) + (ec1-ec0)*fz*zeta4(zeta)
	eps = ec

	decDrs := dec0 + dAlphaC*fz/fppz0*(1-zeta4(zeta)) + (dec1-dec0)*fz*zeta4(zeta)
	decDzeta := alphaC/fppz0*(dfz*(1-zeta4(zeta))-fz*4*zeta*zeta*zeta) + (ec1-ec0)*(dfz*zeta4(zeta)+fz*4*zeta*zeta*zeta)

	// vxc_sigma = ec - (rs/3)*decDrs -/+ (1-/+zeta)*decDzeta, standard
	// LDA spin-potential decomposition.
	common := ec - (rs/3)*decDrs
	vUp = common + (1-zeta)*decDzeta
	vDown = common - (1+zeta)*decDzeta
	return eps * rho, vUp, vDown
}

func zeta4(z float64) float64 { z2 := z * z; return z2 * z2 }

func spinInterp(zeta float64) (f, df float64) {
	const c = 1.9236610509315362 // 1/(2^(4/3)-2)
	a := math.Pow(1+zeta, 4.0/3.0)
	b := math.Pow(1-zeta, 4.0/3.0)
	f = c * (a + b - 2)
	da := (4.0 / 3.0) * math.Pow(1+zeta, 1.0/3.0)
	db := -(4.0 / 3.0) * math.Pow(1-zeta, 1.0/3.0)
	df = c * (da + db)
	return
}

type pw92Params struct {
	A, alpha1, beta1, beta2, beta3, beta4, p float64
}

var (
	pw92Unpolarized   = pw92Params{0.031091, 0.21370, 7.5957, 3.5876, 1.6382, 0.49294, 1.0}
	pw92Polarized     = pw92Params{0.015545, 0.20548, 14.1189, 6.1977, 3.3662, 0.62517, 1.0}
	pw92SpinStiffness = pw92Params{0.016887, 0.11125, 10.357, 3.6231, 0.88026, 0.49671, 1.0}
)

// pw92G evaluates the PW92 parametrized correlation energy G(rs) and
// its derivative with respect to rs, equation (10) of Perdew & Wang,
// Phys. Rev. B 45, 13244 (1992).
func pw92G(rs float64, p pw92Params) (g, dg float64) {
	sqrtRs := math.Sqrt(rs)
	q0 := -2 * p.A * (1 + p.alpha1*rs)
	q1 := 2 * p.A * (p.beta1*sqrtRs + p.beta2*rs + p.beta3*rs*sqrtRs + p.beta4*math.Pow(rs, p.p+1))
	logTerm := math.Log(1 + 1/q1)
	g = q0 * logTerm

	dq1 := 2 * p.A * (0.5*p.beta1/sqrtRs + p.beta2 + 1.5*p.beta3*sqrtRs + (p.p+1)*p.beta4*math.Pow(rs, p.p))
	dq0 := -2 * p.A * p.alpha1
	dg = dq0*logTerm + q0*(-dq1/(q1*q1+q1))
	return
}
