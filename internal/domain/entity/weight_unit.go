package entity

// WeightUnit unidad de medida del peso (dimensión de la llave del libro de stock).
type WeightUnit string

// Unidades soportadas.
const (
	UnitKilograms WeightUnit = "kg"
	UnitGrams     WeightUnit = "g"
	UnitPounds    WeightUnit = "lb"
	UnitTonne     WeightUnit = "t"
	UnitKiloTonne WeightUnit = "kt"
)

// IsValid indica si la unidad pertenece al catálogo.
func (u WeightUnit) IsValid() bool {
	switch u {
	case UnitKilograms, UnitGrams, UnitPounds, UnitTonne, UnitKiloTonne:
		return true
	}
	return false
}

// OrDefault devuelve kg cuando la unidad viene vacía.
func (u WeightUnit) OrDefault() WeightUnit {
	if u == "" {
		return UnitKilograms
	}
	return u
}
