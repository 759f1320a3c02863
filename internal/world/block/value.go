package block

// ID представляет идентификатор типа блока (0-255)
type ID uint8

// Value представляет содержимое одной ячейки мира.
// Младший байт хранит ID типа, старший - вспомогательные биты (например, ориентацию).
type Value uint16

// AirID - идентификатор пустого блока (воздух)
const AirID ID = 0

// Air - пустое значение ячейки, оно же "dummy"-блок для всех промахов
const Air Value = 0

// NewValue собирает значение ячейки из ID типа и вспомогательных бит
func NewValue(id ID, aux uint8) Value {
	return Value(uint16(aux)<<8 | uint16(id))
}

// ID возвращает тип блока
func (v Value) ID() ID {
	return ID(v & 0xFF)
}

// Aux возвращает вспомогательные биты
func (v Value) Aux() uint8 {
	return uint8(v >> 8)
}

// WithAux возвращает копию значения с заменёнными вспомогательными битами
func (v Value) WithAux(aux uint8) Value {
	return NewValue(v.ID(), aux)
}

// IsAir возвращает true для пустой ячейки, независимо от вспомогательных бит
func (v Value) IsAir() bool {
	return v.ID() == AirID
}
