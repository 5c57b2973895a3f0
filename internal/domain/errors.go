package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los adaptadores (HTTP, postgres) los envuelven con fmt.Errorf("%w: ...") y se comparan con errors.Is.
var (
	// ErrValidation entrada malformada o fuera de rango; la operación no se intenta.
	ErrValidation = errors.New("entrada inválida")
	// ErrReferenceNotFound lugar, variante, factura o registro inexistente (o de otra organización).
	ErrReferenceNotFound = errors.New("referencia no encontrada")
	// ErrIntegrityConflict violación de unicidad / llave foránea al escribir; la unidad se aborta.
	ErrIntegrityConflict = errors.New("conflicto de integridad")
	// ErrInsufficientStock el saldo resultante quedaría negativo (sin modo back-order).
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrInternal fallo inesperado; se registra en log y se devuelve un mensaje genérico.
	ErrInternal = errors.New("error interno")
	// ErrUnauthorized token ausente o sin organización/lugar.
	ErrUnauthorized = errors.New("no autorizado")
)

// Classify devuelve el sentinel de dominio que corresponde a err, o ErrInternal si no hay ninguno.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrReferenceNotFound):
		return ErrReferenceNotFound
	case errors.Is(err, ErrIntegrityConflict):
		return ErrIntegrityConflict
	case errors.Is(err, ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized
	default:
		return ErrInternal
	}
}
