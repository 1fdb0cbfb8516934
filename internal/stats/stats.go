// Package stats is the statistics engine: given one sorted batch of
// samples it computes the fixed battery of descriptive statistics and
// streams the resulting JSON object to the client. Batches are drained by a
// fixed pool of compute workers so the query engine can keep reading shards
// while earlier batches are still being crunched.
package stats

import (
	"math"
	"sort"

	"github.com/dc5v/tictacdb/pkg/options"
)

// Summary holds the full battery of descriptive statistics for one batch.
// All definitions are the standard-text forms; population (not sample)
// moments throughout. Statistics that divide by a zero moment yield NaN or
// Inf as IEEE arithmetic dictates — they are reported, not suppressed.
type Summary struct {
	Length int
	Limit  int

	Max               float64
	Min               float64
	Mean              float64
	Median            float64
	Mode              float64
	Variance          float64
	StandardDeviation float64
	TrimmedMean       float64
	HarmonicMean      float64
	GeometricMean     float64
	Range             float64
	IQR               float64
	ExpectedValue     float64
	MAD               float64
	MeAD              float64
	RMS               float64
	MSE               float64
	MAE               float64
	ZSkewness         float64
	MSkewness         float64
	Kurtosis          float64
	CV                float64
	MaximumDeviation  float64
	BinaryEntropy     float64
	RMSLE             float64
	PercentRange      float64
	Q1                float64
	Q2                float64
	Q3                float64
}

// Compute evaluates the battery over data, which MUST be sorted ascending —
// that is the handoff contract with the query engine, which sorts each
// batch before submission. An empty batch yields only Length and Limit.
func Compute(data []float64) *Summary {
	summary := &Summary{Length: len(data), Limit: options.SearchChunkRecords}
	if len(data) == 0 {
		return summary
	}

	n := float64(len(data))
	mean := sum(data) / n

	summary.Min = data[0]
	summary.Max = data[len(data)-1]
	summary.Mean = mean
	summary.ExpectedValue = mean
	summary.Median = median(data)
	summary.Mode = mode(data)

	variance := centralMoment(data, mean, 2)
	sigma := math.Sqrt(variance)
	summary.Variance = variance
	summary.StandardDeviation = sigma
	summary.MSE = variance

	summary.TrimmedMean = trimmedMean(data, 0.1)
	summary.HarmonicMean = harmonicMean(data)
	summary.GeometricMean = geometricMean(data)
	summary.Range = summary.Max - summary.Min
	summary.IQR = Percentile(data, 75) - Percentile(data, 25)
	summary.MAD = medianAbsDeviation(data, mean)
	summary.MeAD = medianAbsDeviation(data, summary.Median)
	summary.RMS = rms(data)
	summary.MAE = meanAbs(data)
	summary.ZSkewness = centralMoment(data, mean, 3) / math.Pow(sigma, 3)
	summary.MSkewness = centralMoment(data, summary.Median, 3) / math.Pow(sigma, 3)
	summary.Kurtosis = centralMoment(data, mean, 4)/math.Pow(sigma, 4) - 3.0
	summary.CV = sigma / mean
	summary.MaximumDeviation = maxAbsDeviation(data, mean)
	summary.BinaryEntropy = binaryEntropy(data)
	summary.RMSLE = rmsle(data)
	summary.PercentRange = (summary.Max - summary.Min) / summary.Max * 100.0

	summary.Q1, summary.Q2, summary.Q3 = quartiles(data)

	return summary
}

// Percentile computes the p-th percentile of sorted data by linear
// interpolation: k = p/100*(N-1), result = data[floor(k)] + frac(k) *
// (data[ceil(k)] - data[floor(k)]).
func Percentile(sorted []float64, p float64) float64 {
	k := p / 100.0 * float64(len(sorted)-1)
	f := int(math.Floor(k))
	c := int(math.Ceil(k))
	return sorted[f] + (k-float64(f))*(sorted[c]-sorted[f])
}

func sum(data []float64) float64 {
	total := 0.0
	for _, v := range data {
		total += v
	}
	return total
}

// median of a sorted slice: the middle element, or the average of the two
// middles for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}

// mode is the element with the longest run in the sorted slice; ties are
// broken by the earlier position.
func mode(sorted []float64) float64 {
	best := sorted[0]
	bestRun := 1
	run := 1

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			run++
		} else {
			run = 1
		}
		if run > bestRun {
			bestRun = run
			best = sorted[i]
		}
	}

	return best
}

// centralMoment computes the k-th power moment around center, divided by N.
func centralMoment(data []float64, center float64, power int) float64 {
	total := 0.0
	for _, v := range data {
		total += math.Pow(v-center, float64(power))
	}
	return total / float64(len(data))
}

// trimmedMean drops floor(N*ratio) elements from each end of the sorted
// slice and averages the rest.
func trimmedMean(sorted []float64, ratio float64) float64 {
	trim := int(float64(len(sorted)) * ratio)
	return sum(sorted[trim:len(sorted)-trim]) / float64(len(sorted)-2*trim)
}

// harmonicMean over the non-zero elements: V / sum(1/x). Zero when every
// element is zero.
func harmonicMean(data []float64) float64 {
	reciprocals := 0.0
	valid := 0
	for _, v := range data {
		if v != 0 {
			reciprocals += 1.0 / v
			valid++
		}
	}
	if valid == 0 {
		return 0.0
	}
	return float64(valid) / reciprocals
}

// geometricMean over the positive elements: (prod x)^(1/V). Zero when no
// element is positive. The product is taken in log space, exp(sum(ln x)/V),
// so large batches do not overflow it to +Inf.
func geometricMean(data []float64) float64 {
	logSum := 0.0
	valid := 0
	for _, v := range data {
		if v > 0 {
			logSum += math.Log(v)
			valid++
		}
	}
	if valid == 0 {
		return 0.0
	}
	return math.Exp(logSum / float64(valid))
}

// medianAbsDeviation is the median of |x - center|.
func medianAbsDeviation(data []float64, center float64) float64 {
	deviations := make([]float64, len(data))
	for i, v := range data {
		deviations[i] = math.Abs(v - center)
	}
	sort.Float64s(deviations)
	return median(deviations)
}

func maxAbsDeviation(data []float64, center float64) float64 {
	maxDev := 0.0
	for _, v := range data {
		if dev := math.Abs(v - center); dev > maxDev {
			maxDev = dev
		}
	}
	return maxDev
}

func rms(data []float64) float64 {
	squares := 0.0
	for _, v := range data {
		squares += v * v
	}
	return math.Sqrt(squares / float64(len(data)))
}

func meanAbs(data []float64) float64 {
	total := 0.0
	for _, v := range data {
		total += math.Abs(v)
	}
	return total / float64(len(data))
}

// binaryEntropy: -(sum of x*log2(x) over x > 0) / N.
func binaryEntropy(data []float64) float64 {
	entropy := 0.0
	for _, v := range data {
		if v > 0 {
			entropy -= v * math.Log2(v)
		}
	}
	return entropy / float64(len(data))
}

func rmsle(data []float64) float64 {
	squares := 0.0
	for _, v := range data {
		l := math.Log(v + 1)
		squares += l * l
	}
	return math.Sqrt(squares / float64(len(data)))
}

// quartiles of a sorted slice: the 25th, 50th, and 75th percentiles by
// linear interpolation, so q3 - q1 always equals the iqr field and q2
// equals the median. A single-element slice has q1 = q2 = q3.
func quartiles(sorted []float64) (q1, q2, q3 float64) {
	return Percentile(sorted, 25), Percentile(sorted, 50), Percentile(sorted, 75)
}
