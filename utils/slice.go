package utils

// UniqueUint removes duplicate values from a slice of uints, keeping first
// occurrences in order.
func UniqueUint(slice []uint) []uint {
	seen := make(map[uint]bool, len(slice))
	list := make([]uint, 0, len(slice))
	for _, entry := range slice {
		if !seen[entry] {
			seen[entry] = true
			list = append(list, entry)
		}
	}
	return list
}
