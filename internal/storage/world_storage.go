package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/zoneworld/internal/logging"
	"github.com/annel0/zoneworld/internal/vec"
	"github.com/annel0/zoneworld/internal/world"
	"github.com/annel0/zoneworld/internal/world/block"
	"github.com/dgraph-io/badger/v3"
)

// ErrNotReady возвращается при обращении к закрытому хранилищу
var ErrNotReady = errors.New("хранилище не готово")

// WorldStorage - хранилище правок игрока и позиций зрителей на BadgerDB.
// Реализует world.EditJournal. Сгенерированный ландшафт не сохраняется.
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	logger  *logging.Logger
}

// ZoneEdits содержит правки игрока в одной зоне
type ZoneEdits struct {
	Coords world.ZoneCoord   `json:"coords"`
	Blocks map[string]uint16 `json:"blocks"` // Ключ - мировые координаты "x:y:z"
}

// NewWorldStorage открывает хранилище в каталоге dataPath
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		logger:  logging.GetStorageLogger(),
	}, nil
}

// Path возвращает путь к базе
func (ws *WorldStorage) Path() string {
	return ws.dbPath
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	return ws.db.Close()
}

func editKey(coord world.ZoneCoord) []byte {
	return []byte(fmt.Sprintf("edit:%d:%d", coord.X, coord.Z))
}

func posKey(p vec.Vec3) string {
	return fmt.Sprintf("%d:%d:%d", p.X, p.Y, p.Z)
}

// Record сохраняет правку игрока; для позиции остаётся последняя правка
func (ws *WorldStorage) Record(coord world.ZoneCoord, edit world.Edit) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}

	key := editKey(coord)
	err := ws.db.Update(func(txn *badger.Txn) error {
		delta, err := loadZoneEdits(txn, key, coord)
		if err != nil {
			return err
		}
		delta.Blocks[posKey(edit.Pos)] = uint16(edit.Value)

		data, err := json.Marshal(delta)
		if err != nil {
			return fmt.Errorf("ошибка сериализации правок: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Edits загружает правки зоны в порядке (x, z, y)
func (ws *WorldStorage) Edits(coord world.ZoneCoord) ([]world.Edit, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var delta *ZoneEdits
	err := ws.db.View(func(txn *badger.Txn) error {
		var err error
		delta, err = loadZoneEdits(txn, editKey(coord), coord)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	edits := make([]world.Edit, 0, len(delta.Blocks))
	for key, value := range delta.Blocks {
		var x, y, z int
		if _, err := fmt.Sscanf(key, "%d:%d:%d", &x, &y, &z); err != nil {
			ws.logger.Warn("Ошибка парсинга ключа '%s': %v", key, err)
			continue
		}

		// Правка должна принадлежать своей зоне
		if world.ZoneCoordFor(x, z) != coord || y < 0 || y >= world.ZoneHeight {
			ws.logger.Warn("Некорректные координаты правки %d,%d,%d для %s", x, y, z, coord)
			continue
		}
		edits = append(edits, world.Edit{Pos: vec.Vec3{X: x, Y: y, Z: z}, Value: block.Value(value)})
	}

	world.SortEdits(edits)
	return edits, nil
}

// EditedZones возвращает координаты зон, у которых есть сохранённые правки
func (ws *WorldStorage) EditedZones() ([]world.ZoneCoord, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return nil, ErrNotReady
	}

	var coords []world.ZoneCoord
	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte("edit:")

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var c world.ZoneCoord
			if _, err := fmt.Sscanf(string(it.Item().Key()), "edit:%d:%d", &c.X, &c.Z); err != nil {
				continue
			}
			coords = append(coords, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}
	return coords, nil
}

func loadZoneEdits(txn *badger.Txn, key []byte, coord world.ZoneCoord) (*ZoneEdits, error) {
	delta := &ZoneEdits{Coords: coord, Blocks: make(map[string]uint16)}

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return delta, nil
	}
	if err != nil {
		return nil, err
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, delta)
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка десериализации правок: %w", err)
	}
	if delta.Blocks == nil {
		delta.Blocks = make(map[string]uint16)
	}
	return delta, nil
}
