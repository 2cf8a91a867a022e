package entity

// Product representa un producto rastreable por el ledger. Code es el código
// SMS corto usado en los fragmentos de reporte.
type Product struct {
	ID   string
	Code string
	Name string
}
