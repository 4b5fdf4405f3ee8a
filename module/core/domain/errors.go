package domain

import "errors"

// Error texts are returned verbatim in HTTP bodies.
var (
	ErrInvalidRoute      = errors.New("Origen y destino son obligatorios.")
	ErrInvalidCoordinate = errors.New("Invalid GPS coordinates.")
	ErrZoneBusy          = errors.New("Zona ocupada, intente nuevamente más tarde.")
	ErrRoutingService    = errors.New("Error en el servicio de ruteo.")
	ErrStoreCoordinate   = errors.New("Error al almacenar la coordenada GPS.")
	ErrNotFound          = errors.New("not found")
)

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRoute) || errors.Is(err, ErrInvalidCoordinate)
}
