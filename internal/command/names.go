package command

// Structural command names.
const (
	ShapeCreate               = "shape.create"
	ShapeDelete               = "shape.delete"
	ShapeMove                 = "shape.move"
	ShapeResize               = "shape.resize"
	ShapeAppend               = "shape.append"
	ElementsMove              = "elements.move"
	ElementsDelete            = "elements.delete"
	ConnectionCreate          = "connection.create"
	ConnectionDelete          = "connection.delete"
	ConnectionMove            = "connection.move"
	ConnectionReconnect       = "connection.reconnect"
	ConnectionLayout          = "connection.layout"
	ConnectionUpdateWaypoints = "connection.updateWaypoints"
	ElementUpdateAttachment   = "element.updateAttachment"
	ElementUpdateProperties   = "element.updateProperties"
	CanvasUpdateRoot          = "canvas.updateRoot"
	LabelCreate               = "label.create"
)

// Names lists every structural command.
var Names = []string{
	ShapeCreate, ShapeDelete, ShapeMove, ShapeResize, ShapeAppend,
	ElementsMove, ElementsDelete,
	ConnectionCreate, ConnectionDelete, ConnectionMove, ConnectionReconnect,
	ConnectionLayout, ConnectionUpdateWaypoints,
	ElementUpdateAttachment, ElementUpdateProperties,
	CanvasUpdateRoot, LabelCreate,
}
