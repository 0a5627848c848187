package analytics

import "math"

// Predictor is anything that maps a feature vector to a number. The forecast
// passes [dayOfYear, year] and expects predicted earnings for that day.
type Predictor interface {
	Predict(features []float64) float64
}

// Sample is one training row.
type Sample struct {
	Features []float64
	Target   float64
}

// minSamples is the smallest training set FitLinear accepts.
const minSamples = 2

// LinearModel is y = Intercept + Coef[0]*dayOfYear + Coef[1]*year.
type LinearModel struct {
	Intercept float64
	Coef      [2]float64
}

// Predict implements Predictor. Missing features count as zero.
func (m *LinearModel) Predict(features []float64) float64 {
	y := m.Intercept
	for i := 0; i < len(m.Coef) && i < len(features); i++ {
		y += m.Coef[i] * features[i]
	}
	return y
}

// FitLinear fits an ordinary least squares model on two features. Features
// are centred before solving; when they are collinear (for example every
// sample falls in the same year) the degenerate direction gets a zero
// coefficient, so two samples are always enough.
func FitLinear(samples []Sample) (*LinearModel, error) {
	if len(samples) < minSamples {
		return nil, &InsufficientDataError{Have: len(samples), Need: minSamples}
	}

	n := float64(len(samples))
	var m1, m2, my float64
	for _, s := range samples {
		m1 += feature(s, 0)
		m2 += feature(s, 1)
		my += s.Target
	}
	m1 /= n
	m2 /= n
	my /= n

	var s11, s22, s12, s1y, s2y float64
	for _, s := range samples {
		d1 := feature(s, 0) - m1
		d2 := feature(s, 1) - m2
		dy := s.Target - my
		s11 += d1 * d1
		s22 += d2 * d2
		s12 += d1 * d2
		s1y += d1 * dy
		s2y += d2 * dy
	}

	var b1, b2 float64
	det := s11*s22 - s12*s12
	switch {
	case s11 > epsilon && s22 > epsilon && math.Abs(det) > epsilon*s11*s22:
		b1 = (s1y*s22 - s2y*s12) / det
		b2 = (s2y*s11 - s1y*s12) / det
	case s11 > epsilon:
		b1 = s1y / s11
	case s22 > epsilon:
		b2 = s2y / s22
	}

	return &LinearModel{
		Intercept: my - b1*m1 - b2*m2,
		Coef:      [2]float64{b1, b2},
	}, nil
}

const epsilon = 1e-9

func feature(s Sample, i int) float64 {
	if i < len(s.Features) {
		return s.Features[i]
	}
	return 0
}
