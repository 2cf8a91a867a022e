package entity

// Location representa un punto de la jerarquía de ubicaciones (bodega, clínica,
// distrito...). Code es el código SMS con el que llegan los reportes; solo las
// hojas suelen tenerlo.
type Location struct {
	ID       string
	Name     string
	ParentID *string
	Type     string // _root, lvl1, lvl2, ...
	Code     string
}
