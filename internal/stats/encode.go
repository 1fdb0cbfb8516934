package stats

import (
	"math"
	"strconv"
	"strings"
)

// EncodeJSON renders the summary as one JSON object in a fixed key order.
//
// The encoder is hand-rolled for one reason: non-finite values. The battery
// legitimately produces NaN and Infinity (cv and the skewness family divide
// by sigma, percentRange divides by max), the contract is to report them as
// the arithmetic yields, and encoding/json refuses to emit them. They are
// printed as the bare literals NaN, Infinity and -Infinity.
//
// An empty batch carries only length and limit.
func (s *Summary) EncodeJSON() []byte {
	var b strings.Builder
	b.Grow(1024)

	b.WriteByte('{')
	b.WriteString(`"length":`)
	b.WriteString(strconv.Itoa(s.Length))
	b.WriteString(`,"limit":`)
	b.WriteString(strconv.Itoa(s.Limit))

	if s.Length > 0 {
		writeField(&b, "max", s.Max)
		writeField(&b, "min", s.Min)
		writeField(&b, "mean", s.Mean)
		writeField(&b, "median", s.Median)
		writeField(&b, "mode", s.Mode)
		writeField(&b, "variance", s.Variance)
		writeField(&b, "standardDeviation", s.StandardDeviation)
		writeField(&b, "trimmedMean", s.TrimmedMean)
		writeField(&b, "harmonicMean", s.HarmonicMean)
		writeField(&b, "geometricMean", s.GeometricMean)
		writeField(&b, "range", s.Range)
		writeField(&b, "iqr", s.IQR)
		writeField(&b, "expectedValue", s.ExpectedValue)
		writeField(&b, "mad", s.MAD)
		writeField(&b, "mead", s.MeAD)
		writeField(&b, "rms", s.RMS)
		writeField(&b, "mse", s.MSE)
		writeField(&b, "mae", s.MAE)
		writeField(&b, "zskewness", s.ZSkewness)
		writeField(&b, "mskewness", s.MSkewness)
		writeField(&b, "kurtosis", s.Kurtosis)
		writeField(&b, "cv", s.CV)
		writeField(&b, "maximumDeviation", s.MaximumDeviation)
		writeField(&b, "binaryEntropy", s.BinaryEntropy)
		writeField(&b, "rmsle", s.RMSLE)
		writeField(&b, "percentRange", s.PercentRange)

		b.WriteString(`,"quartiles":{"q1":`)
		b.WriteString(formatValue(s.Q1))
		b.WriteString(`,"q2":`)
		b.WriteString(formatValue(s.Q2))
		b.WriteString(`,"q3":`)
		b.WriteString(formatValue(s.Q3))
		b.WriteByte('}')
	}

	b.WriteByte('}')
	return []byte(b.String())
}

func writeField(b *strings.Builder, key string, value float64) {
	b.WriteString(`,"`)
	b.WriteString(key)
	b.WriteString(`":`)
	b.WriteString(formatValue(value))
}

func formatValue(value float64) string {
	switch {
	case math.IsNaN(value):
		return "NaN"
	case math.IsInf(value, 1):
		return "Infinity"
	case math.IsInf(value, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
}
