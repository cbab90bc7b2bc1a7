package body

import "math"

// RainbowCycle maps t onto a smoothly repeating rainbow.
func RainbowCycle(t float64) Color {
	channel := func(phase float64) uint8 {
		s := math.Sin(t + phase)
		return uint8(255 * s * s)
	}
	return Color{
		R: channel(0),
		G: channel(0.66 * math.Pi),
		B: channel(1.32 * math.Pi),
	}
}

// ColorTemperature approximates the RGB color of a black body at kelvin.
func ColorTemperature(kelvin float64) Color {
	t := kelvin / 100
	var r, g, b float64

	if t <= 66 {
		r = 255
		g = 99.4708025861*math.Log(t) - 161.1195681661
	} else {
		r = 329.698727446 * math.Pow(t-60, -0.1332047592)
		g = 288.1221695283 * math.Pow(t-60, -0.0755148492)
	}

	switch {
	case t >= 66:
		b = 255
	case t <= 19:
		b = 0
	default:
		b = 138.5177312231*math.Log(t-10) - 305.0447927307
	}

	return Color{R: clampByte(r), G: clampByte(g), B: clampByte(b)}
}

// Hex formats c as #rrggbb.
func (c Color) Hex() string {
	const digits = "0123456789abcdef"
	buf := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		buf[1+2*i] = digits[v>>4]
		buf[2+2*i] = digits[v&0xf]
	}
	return string(buf)
}

func clampByte(v float64) uint8 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
