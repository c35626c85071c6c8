package core

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Studentized range distribution, after Copenhaver & Holland (1988) as
// implemented in R's nmath (ptukey.c, qtukey.c).

var (
	rangeXLeg = [6]float64{
		0.981560634246719250690549090149,
		0.904117256370474856678465866119,
		0.769902674194304687036893833213,
		0.587317954286617447296702418941,
		0.367831498998180193752691536644,
		0.125233408511468915472441369464,
	}
	rangeALeg = [6]float64{
		0.047175336386511827194615961485,
		0.106939325995318430960254718194,
		0.160078328543346226334652529543,
		0.203167426723065921749064455810,
		0.233492536538354808760849898925,
		0.249147045813402785000562436043,
	}
	tukeyXLeg = [8]float64{
		0.989400934991649932596154173450,
		0.944575023073232576077988415535,
		0.865631202387831743880467897712,
		0.755404408355003033895101194847,
		0.617876244402643748446671764049,
		0.458016777657227386342419442984,
		0.281603550779258913230460501460,
		0.950125098376374401853193354250e-1,
	}
	tukeyALeg = [8]float64{
		0.271524594117540948517805724560e-1,
		0.622535239386478928628438369944e-1,
		0.951585116824927848099251076022e-1,
		0.124628971255533872052476282192,
		0.149595988816576732081501730547,
		0.169156519395002538189312079030,
		0.182603415044923588866763667969,
		0.189450610455068496285396723208,
	}
)

const sqrt2Pi = 2.506628274631000502415765284811

func pnorm(x float64) float64 { return distuv.UnitNormal.CDF(x) }

// rangeProb is P(range of cc standard normals < w), raised to rr.
func rangeProb(w, rr, cc float64) float64 {
	const (
		nleg  = 12
		ihalf = 6
		c1    = -30.0
		c2    = -50.0
		c3    = 60.0
		bb    = 8.0
		wlar  = 3.0
	)

	qsqz := w * 0.5
	if qsqz >= bb {
		return 1
	}

	prW := 2*pnorm(qsqz) - 1
	if prW >= math.Exp(c2/cc) {
		prW = math.Pow(prW, cc)
	} else {
		prW = 0
	}

	wincr := 3.0
	if w > wlar {
		wincr = 2.0
	}

	blb := qsqz
	binc := (bb - qsqz) / wincr
	bub := blb + binc
	einsum := 0.0
	cc1 := cc - 1

	for wi := 1.0; wi <= wincr; wi++ {
		elsum := 0.0
		a := 0.5 * (bub + blb)
		b := 0.5 * (bub - blb)

		for jj := 1; jj <= nleg; jj++ {
			var j int
			var xx float64
			if ihalf < jj {
				j = nleg - jj + 1
				xx = rangeXLeg[j-1]
			} else {
				j = jj
				xx = -rangeXLeg[j-1]
			}
			ac := a + b*xx
			qexpo := ac * ac
			if qexpo > c3 {
				break
			}
			pplus := 2 * pnorm(ac)
			pminus := 2 * pnorm(ac-w)
			rinsum := pplus*0.5 - pminus*0.5
			if rinsum >= math.Exp(c1/cc1) {
				elsum += rangeALeg[j-1] * math.Exp(-0.5*qexpo) * math.Pow(rinsum, cc1)
			}
		}
		elsum *= 2 * b * cc / sqrt2Pi
		einsum += elsum
		blb = bub
		bub += binc
	}

	prW += einsum
	if prW <= math.Exp(c1/rr) {
		return 0
	}
	prW = math.Pow(prW, rr)
	if prW >= 1 {
		return 1
	}
	return prW
}

// Ptukey is the CDF of the studentized range for nmeans groups and df
// error degrees of freedom.
func Ptukey(q, nmeans, df float64) float64 {
	const (
		nlegq  = 16
		ihalfq = 8
		eps1   = -30.0
		eps2   = 1e-14
		dhaf   = 100.0
		dquar  = 800.0
		deigh  = 5000.0
		dlarg  = 25000.0
	)
	const rr = 1.0

	if math.IsNaN(q) || math.IsNaN(nmeans) || math.IsNaN(df) {
		return math.NaN()
	}
	if q <= 0 {
		return 0
	}
	if df < 2 || nmeans < 2 {
		return math.NaN()
	}
	if math.IsInf(q, 1) {
		return 1
	}
	if df > dlarg {
		return rangeProb(q, rr, nmeans)
	}

	f2 := df * 0.5
	lg, _ := math.Lgamma(f2)
	f2lf := f2*math.Log(df) - df*math.Ln2 - lg
	f21 := f2 - 1
	ff4 := df * 0.25

	var ulen float64
	switch {
	case df <= dhaf:
		ulen = 1
	case df <= dquar:
		ulen = 0.5
	case df <= deigh:
		ulen = 0.25
	default:
		ulen = 0.125
	}
	f2lf += math.Log(ulen)

	ans := 0.0
	for i := 1; i <= 50; i++ {
		otsum := 0.0
		twa1 := float64(2*i-1) * ulen

		for jj := 1; jj <= nlegq; jj++ {
			var j int
			var t1 float64
			if ihalfq < jj {
				j = jj - ihalfq - 1
				t1 = f2lf + f21*math.Log(twa1+tukeyXLeg[j]*ulen) - (tukeyXLeg[j]*ulen+twa1)*ff4
			} else {
				j = jj - 1
				t1 = f2lf + f21*math.Log(twa1-tukeyXLeg[j]*ulen) + (tukeyXLeg[j]*ulen-twa1)*ff4
			}
			if t1 < eps1 {
				continue
			}
			var qsqz float64
			if ihalfq < jj {
				qsqz = q * math.Sqrt((tukeyXLeg[j]*ulen+twa1)*0.5)
			} else {
				qsqz = q * math.Sqrt((-(tukeyXLeg[j]*ulen)+twa1)*0.5)
			}
			otsum += rangeProb(qsqz, rr, nmeans) * tukeyALeg[j] * math.Exp(t1)
		}

		if float64(i)*ulen >= 1 && otsum <= eps2 {
			break
		}
		ans += otsum
	}
	if ans > 1 {
		ans = 1
	}
	return ans
}

// tukeyStart is the initial approximation used by Qtukey.
func tukeyStart(p, c, v float64) float64 {
	const (
		p0   = 0.322232421088
		q0   = 0.993484626060e-01
		p1   = -1.0
		q1   = 0.588581570495
		p2   = -0.342242088547
		q2   = 0.531103462366
		p3   = -0.204231210125
		q3   = 0.103537752850
		p4   = -0.453642210148e-04
		q4   = 0.38560700634e-02
		c1   = 0.8832
		c2   = 0.2368
		c3   = 1.214
		c4   = 1.208
		c5   = 1.4142
		vmax = 120.0
	)
	ps := 0.5 - 0.5*p
	yi := math.Sqrt(math.Log(1 / (ps * ps)))
	t := yi + ((((yi*p4+p3)*yi+p2)*yi+p1)*yi+p0)/((((yi*q4+q3)*yi+q2)*yi+q1)*yi+q0)
	if v < vmax {
		t += (t*t*t + t) / v / 4
	}
	q := c1 - c2*t
	if v < vmax {
		q += -c3/v + c4*t/v
	}
	return t * (q*math.Log(c-1) + c5)
}

// Qtukey is the quantile function of the studentized range: the q with
// Ptukey(q, nmeans, df) = p. It uses a secant search to within 1e-4.
func Qtukey(p, nmeans, df float64) float64 {
	const (
		eps     = 0.0001
		maxiter = 50
	)
	if math.IsNaN(p) || df < 2 || nmeans < 2 || p < 0 || p > 1 {
		return math.NaN()
	}
	if p == 0 {
		return 0
	}
	if p == 1 {
		return math.Inf(1)
	}

	x0 := tukeyStart(p, nmeans, df)
	valx0 := Ptukey(x0, nmeans, df) - p
	var x1 float64
	if valx0 > 0 {
		x1 = math.Max(0, x0-1)
	} else {
		x1 = x0 + 1
	}
	valx1 := Ptukey(x1, nmeans, df) - p

	ans := 0.0
	for iter := 1; iter < maxiter; iter++ {
		ans = x1 - valx1*(x1-x0)/(valx1-valx0)
		valx0 = valx1
		x0 = x1
		if ans < 0 {
			ans = 0
		}
		valx1 = Ptukey(ans, nmeans, df) - p
		x1 = ans
		if math.Abs(x1-x0) < eps {
			return ans
		}
	}
	return ans
}
