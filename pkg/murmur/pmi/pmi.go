package pmi

import "math"

// PMI calculates the pointwise mutual information of a pair in bits
//
// PMI(a,b) = log2(p(a,b) / (p(a) p(b)))
//
// Where p(a,b) = nAB/total, p(a) = nA/total, p(b) = nB/total and total is
// the number of pair increments seen. The second result is false when any
// of the probabilities is zero.
func PMI(nAB, nA, nB, total int64) (float64, bool) {
	if total <= 0 || nAB <= 0 || nA <= 0 || nB <= 0 {
		return 0, false
	}
	t := float64(total)
	pAB := float64(nAB) / t
	pA := float64(nA) / t
	pB := float64(nB) / t
	return math.Log2(pAB / (pA * pB)), true
}

// Weighted favours pairs that are both associated and frequent.
func Weighted(pmi float64, count int64) float64 {
	return pmi * math.Log(float64(count)+1)
}
