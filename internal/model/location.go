package model

import "fmt"

// Location — точка в мире: место смерти, точка респауна, позиция death pile.
// Value type, передаётся по значению.
type Location struct {
	X       int32  `yaml:"x"`
	Y       int32  `yaml:"y"`
	Z       int32  `yaml:"z"`
	Heading uint16 `yaml:"heading"`
}

// NewLocation создаёт Location с указанными координатами.
func NewLocation(x, y, z int32, heading uint16) Location {
	return Location{X: x, Y: y, Z: z, Heading: heading}
}

// DistanceSquared возвращает квадрат расстояния (без sqrt).
func (l Location) DistanceSquared(other Location) int64 {
	dx := int64(l.X) - int64(other.X)
	dy := int64(l.Y) - int64(other.Y)
	dz := int64(l.Z) - int64(other.Z)
	return dx*dx + dy*dy + dz*dz
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d,%d)", l.X, l.Y, l.Z)
}
