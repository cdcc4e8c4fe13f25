package ticket

// ResolveRoute picks origin and destination codes from an ordered code list.
// With fewer than two codes both are empty. Otherwise the first code is the
// origin and the last the destination, except that a destination equal to the
// origin on a list of more than two codes falls back to the second-to-last.
//
// Itineraries with more than two real legs can still resolve wrongly.
func ResolveRoute(codes []string) (origin, destination string) {
	if len(codes) < 2 {
		return "", ""
	}

	origin = codes[0]
	destination = codes[len(codes)-1]
	if destination == origin && len(codes) > 2 {
		destination = codes[len(codes)-2]
	}
	return origin, destination
}
