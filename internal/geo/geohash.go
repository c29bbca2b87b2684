package geo

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// Geohash encodes a point as a base32 geohash of the given precision.
// Six characters is a cell of roughly 1.2km; searches use it as a coarse log label.
func Geohash(lat, lng float64, precision int) string {
	if precision <= 0 {
		return ""
	}
	latRange := [2]float64{-90, 90}
	lngRange := [2]float64{-180, 180}
	out := make([]byte, 0, precision)

	bit, ch := 0, 0
	even := true
	for len(out) < precision {
		if even {
			mid := (lngRange[0] + lngRange[1]) / 2
			if lng >= mid {
				ch |= 1 << (4 - bit)
				lngRange[0] = mid
			} else {
				lngRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
			continue
		}
		out = append(out, geohashAlphabet[ch])
		bit, ch = 0, 0
	}
	return string(out)
}
