package block

import (
	"errors"
	"fmt"
	"sort"
)

// MaxTypes - размер таблицы типов блоков
const MaxTypes = 256

var (
	// ErrInvalidID возвращается при регистрации ID вне диапазона 0-255
	ErrInvalidID = errors.New("block id out of range 0-255")
	// ErrAirBand возвращается при попытке привязать воздух к диапазону плотности
	ErrAirBand = errors.New("air cannot own a density band")
)

// Properties описывает неизменяемые свойства типа блока
type Properties struct {
	Name       string // Имя типа (для конфигурации и отладки)
	Solid      bool   // Блок непроходимый
	Selectable bool   // Блок можно выделить лучом
	Texture    int    // Индекс текстуры/материала, ядро его не интерпретирует
}

// Empty - запись по умолчанию для незарегистрированных типов
var Empty = Properties{}

type densityBand struct {
	min float64
	id  ID
}

// Catalog - таблица свойств типов блоков, индексируемая напрямую по ID.
// Заполняется при старте до создания генератора и мира. Изменения после
// генерации зон легальны, но уже построенные зоны не перегенерируются.
type Catalog struct {
	types [MaxTypes]Properties
	bands []densityBand // Отсортированы по убыванию min
}

// NewCatalog создаёт пустой каталог: все 256 типов имеют свойства Empty
func NewCatalog() *Catalog {
	return &Catalog{}
}

// NewDefaultCatalog создаёт каталог со стандартным набором блоков
func NewDefaultCatalog() *Catalog {
	c := NewCatalog()
	c.SetType(AirID, Properties{Name: "air"})
	c.SetType(StoneID, Properties{Name: "stone", Solid: true, Selectable: true, Texture: 0})
	c.SetType(DirtID, Properties{Name: "dirt", Solid: true, Selectable: true, Texture: 1})
	c.SetType(PlanksID, Properties{Name: "planks", Solid: true, Selectable: true, Texture: 2})

	// Плотный материал - камень, граница поверхности - земля
	_ = c.SetDensityBand(StoneID, 0.25)
	_ = c.SetDensityBand(DirtID, 0.2)
	return c
}

// Стандартные ID блоков
const (
	StoneID  ID = 1
	DirtID   ID = 2
	PlanksID ID = 3
)

// SetType регистрирует или перезаписывает свойства типа.
// Воздух всегда остаётся непроходимым для луча и не твёрдым.
func (c *Catalog) SetType(id ID, p Properties) {
	if id == AirID {
		p.Solid = false
		p.Selectable = false
	}
	c.types[id] = p
}

// Register - вариант SetType для данных из конфигурации
func (c *Catalog) Register(id int, p Properties) error {
	if id < 0 || id >= MaxTypes {
		return fmt.Errorf("register %q as %d: %w", p.Name, id, ErrInvalidID)
	}
	c.SetType(ID(id), p)
	return nil
}

// MustRegister паникует при ошибке регистрации
func (c *Catalog) MustRegister(id int, p Properties) {
	if err := c.Register(id, p); err != nil {
		panic(err)
	}
}

// Properties возвращает свойства типа; для незарегистрированных - Empty
func (c *Catalog) Properties(id ID) Properties {
	return c.types[id]
}

// PropertiesOf возвращает свойства типа, хранящегося в ячейке
func (c *Catalog) PropertiesOf(v Value) Properties {
	return c.types[v.ID()]
}

// Lookup ищет тип по имени
func (c *Catalog) Lookup(name string) (ID, bool) {
	for i := range c.types {
		if c.types[i].Name == name && name != "" {
			return ID(i), true
		}
	}
	return AirID, false
}

// SetDensityBand привязывает тип к порогу плотности: Classify вернёт этот тип
// для плотности строго выше min, если нет типа с большим порогом.
// Повторный вызов для того же типа заменяет порог.
func (c *Catalog) SetDensityBand(id ID, min float64) error {
	if id == AirID {
		return ErrAirBand
	}

	for i := range c.bands {
		if c.bands[i].id == id {
			c.bands = append(c.bands[:i], c.bands[i+1:]...)
			break
		}
	}

	c.bands = append(c.bands, densityBand{min: min, id: id})
	sort.SliceStable(c.bands, func(i, j int) bool {
		return c.bands[i].min > c.bands[j].min
	})
	return nil
}

// ClearDensityBands убирает все пороги: Classify будет возвращать только воздух
func (c *Catalog) ClearDensityBands() {
	c.bands = nil
}

// Classify переводит плотность из генератора в значение ячейки
func (c *Catalog) Classify(density float64) Value {
	for _, b := range c.bands {
		if density > b.min {
			return NewValue(b.id, 0)
		}
	}
	return Air
}
