package web

const maskDots = "••••••••"

// MaskKey keeps the first and last four characters of keys longer than eight.
func MaskKey(key string) string {
	runes := []rune(key)
	if len(runes) <= 8 {
		return maskDots
	}
	return string(runes[:4]) + maskDots + string(runes[len(runes)-4:])
}
