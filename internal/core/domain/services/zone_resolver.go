package services

import (
	"fmt"
	"math"

	"dispatch/internal/core/domain/model/kernel"
)

// ZoneResolver derives a zone for an address that has none.
type ZoneResolver interface {
	Resolve(loc kernel.Location) kernel.Zone
}

const DefaultCellDegrees = 0.05

// GridZoneResolver splits the map into square cells of CellDegrees on each side.
type GridZoneResolver struct {
	cellDegrees float64
}

func NewGridZoneResolver(cellDegrees float64) GridZoneResolver {
	if cellDegrees <= 0 {
		cellDegrees = DefaultCellDegrees
	}
	return GridZoneResolver{cellDegrees: cellDegrees}
}

// Resolve names the cell containing loc, e.g. "G1050:267".
func (g GridZoneResolver) Resolve(loc kernel.Location) kernel.Zone {
	row := int(math.Floor(loc.Lat() / g.cellDegrees))
	col := int(math.Floor(loc.Lon() / g.cellDegrees))
	return kernel.Zone(fmt.Sprintf("G%d:%d", row, col))
}
