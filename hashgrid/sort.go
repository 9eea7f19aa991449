package hashgrid

import "github.com/pthm-cable/hashgrid/compute"

// bitonicSort sorts a power-of-two length slice by (key, class, index)
// with a bitonic network. Each compare-exchange round is one dispatch, so
// rounds are separated by the device barrier. Returns the round count,
// log2(n)*(log2(n)+1)/2.
//
// Live entries have unique sort keys and padding entries are identical,
// so the result equals a stable sort.
func bitonicSort(dev *compute.Device, a []Entry) int {
	n := len(a)
	rounds := 0
	for k := 2; k <= n; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			compareExchange(dev, a, j, k)
			rounds++
		}
	}
	return rounds
}

// compareExchange runs one round over the n/2 disjoint pairs (i, i+j).
func compareExchange(dev *compute.Device, a []Entry, j, k int) {
	dev.Dispatch(len(a)/2, func(lo, hi int) {
		for p := lo; p < hi; p++ {
			i := 2*j*(p/j) + p%j
			l := i + j
			ascending := i&k == 0
			if (ascending && a[l].Less(a[i])) || (!ascending && a[i].Less(a[l])) {
				a[i], a[l] = a[l], a[i]
			}
		}
	})
}
