package repository

import "context"

// ReferenceRepository resuelve entidades del directorio externo (lugares, variantes, usuarios, descuentos).
// El núcleo no es dueño de esas tablas; solo verifica que existan, estén activas y sean de la organización.
type ReferenceRepository interface {
	PlaceExists(ctx context.Context, organizationID, placeID string) (bool, error)
	VariantExists(ctx context.Context, organizationID, variantID string) (bool, error)
	UserExists(ctx context.Context, organizationID, userID string) (bool, error)
	DiscountExists(ctx context.Context, organizationID, discountID string) (bool, error)
}
