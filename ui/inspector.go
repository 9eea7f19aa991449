package ui

import (
	"fmt"

	"github.com/pthm-cable/hashgrid/hashgrid"
	"github.com/pthm-cable/hashgrid/sim"
)

// CellInspector renders the cell inspection panel next to the cursor.
type CellInspector struct {
	renderer *Renderer
	width    int32
}

// NewCellInspector creates a new cell inspector.
func NewCellInspector(width int32) *CellInspector {
	return &CellInspector{
		renderer: NewRenderer(),
		width:    width,
	}
}

// Draw renders the panel at (x, y), kept inside the screen.
func (ins *CellInspector) Draw(x, y, screenW, screenH int32, data sim.CellInfo) {
	r := ins.renderer
	padding := r.Theme.Padding
	height := r.Theme.LineHeight*10 + padding*2

	x = min(x+16, screenW-ins.width)
	y = min(y+16, screenH-height)

	r.DrawPanel(x, y, ins.width, height)
	x += padding
	y += padding

	y = r.DrawSectionHeader(x, y, "Cell")
	y = r.DrawLabelValue(x, y, "World", fmt.Sprintf("(%.3f, %.3f)", data.World[0], data.World[1]))
	y = r.DrawLabelValue(x, y, "Cell", fmt.Sprintf("(%d, %d)", data.Cell[0], data.Cell[1]))
	y = r.DrawLabelValue(x, y, "Hash", fmt.Sprintf("%#08x", data.Hash))
	y = r.DrawLabelValue(x, y, "Bucket", fmt.Sprintf("%d (class %d)", data.Key, data.Class))

	offset := "empty"
	if data.Offset != hashgrid.EmptyOffset {
		offset = fmt.Sprintf("%d", data.Offset)
	}
	y = r.DrawLabelValue(x, y, "Offset", offset)
	y = r.DrawLabelValue(x, y, "Entries", fmt.Sprintf("%d (%d in cell)", data.Entries, data.InCell))

	cellsColor := r.Theme.ValueColor
	if data.Cells > 1 {
		cellsColor = r.Theme.WarnColor
	}
	y = r.DrawLabelValueColor(x, y, "Cells in bucket", fmt.Sprintf("%d", data.Cells), cellsColor)
	r.DrawLabelValue(x, y, "Neighbors", fmt.Sprintf("%d", data.Neighbors))
}
