package core

// NCr returns the number of ways to choose r items from n items.
// It returns 0 when r is negative or larger than n.
func NCr(n, r int) int {
	if r < 0 || n < 0 || r > n {
		return 0
	}
	if r > n-r {
		r = n - r
	}
	result := 1
	for i := 1; i <= r; i++ {
		// Exact at every step: result holds C(n-r+i-1, i-1).
		result = result * (n - r + i) / i
	}
	return result
}

// SumNCr returns nC0 + nC1 + ... + nC(k-1).
// It is the offset of the k-particle block in a block-structured basis.
func SumNCr(n, k int) int {
	sum := 0
	for r := 0; r < k; r++ {
		sum += NCr(n, r)
	}
	return sum
}
