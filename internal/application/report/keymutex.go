package report

import "sync"

// keyMutex serializa el procesamiento por clave (bodega, producto): reportes
// concurrentes a la misma clave se excluyen mutuamente, claves distintas nunca
// comparten candado. Los mutex se crean perezosamente y no se liberan: el
// universo de claves es el producto de ubicaciones por productos, acotado.
type keyMutex struct {
	mus sync.Map // key string -> *sync.Mutex
}

// Lock bloquea la clave y devuelve la función de desbloqueo.
func (k *keyMutex) Lock(key string) (unlock func()) {
	mu, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
