package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// ErrInvalidViewer возвращается для пустого имени или некорректной позы
var ErrInvalidViewer = errors.New("недействительный зритель")

// ViewerPose - сохраняемое положение камеры зрителя
type ViewerPose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// ViewerRepo сохраняет позы зрителей между запусками.
// Поза привязана к имени зрителя, а не к сессии.
type ViewerRepo interface {
	// Save сохраняет позу зрителя
	Save(ctx context.Context, name string, pose ViewerPose) error

	// Load загружает позу; false, если зритель ещё не сохранялся
	Load(ctx context.Context, name string) (ViewerPose, bool, error)

	// Delete удаляет сохранённую позу
	Delete(ctx context.Context, name string) error
}

func validateViewer(name string, pose ViewerPose) error {
	if name == "" {
		return fmt.Errorf("%w: пустое имя", ErrInvalidViewer)
	}
	for _, v := range []float64{pose.X, pose.Y, pose.Z, pose.Yaw, pose.Pitch} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: поза %+v", ErrInvalidViewer, pose)
		}
	}
	return nil
}

// MemoryViewerRepo реализует ViewerRepo в памяти.
// Используется, когда путь хранилища не задан. Данные теряются при перезапуске.
type MemoryViewerRepo struct {
	mu   sync.RWMutex
	data map[string]ViewerPose
}

// NewMemoryViewerRepo создаёт пустой репозиторий
func NewMemoryViewerRepo() *MemoryViewerRepo {
	return &MemoryViewerRepo{data: make(map[string]ViewerPose)}
}

// Save сохраняет позу зрителя в памяти
func (r *MemoryViewerRepo) Save(ctx context.Context, name string, pose ViewerPose) error {
	if err := validateViewer(name, pose); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[name] = pose
	return nil
}

// Load загружает позу зрителя из памяти
func (r *MemoryViewerRepo) Load(ctx context.Context, name string) (ViewerPose, bool, error) {
	if name == "" {
		return ViewerPose{}, false, fmt.Errorf("%w: пустое имя", ErrInvalidViewer)
	}

	select {
	case <-ctx.Done():
		return ViewerPose{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pose, ok := r.data[name]
	return pose, ok, nil
}

// Delete удаляет позу зрителя
func (r *MemoryViewerRepo) Delete(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[name]; !ok {
		return fmt.Errorf("поза зрителя %q не найдена", name)
	}
	delete(r.data, name)
	return nil
}

// Names возвращает имена сохранённых зрителей (для отладки)
func (r *MemoryViewerRepo) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.data))
	for name := range r.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// badgerViewerRepo хранит позы в той же базе, что и правки
type badgerViewerRepo struct {
	ws *WorldStorage
}

// Viewers возвращает ViewerRepo поверх хранилища
func (ws *WorldStorage) Viewers() ViewerRepo {
	return &badgerViewerRepo{ws: ws}
}

func viewerKey(name string) []byte {
	return []byte("viewer:" + name)
}

func (r *badgerViewerRepo) Save(ctx context.Context, name string, pose ViewerPose) error {
	if err := validateViewer(name, pose); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.ws.mutex.RLock()
	defer r.ws.mutex.RUnlock()
	if !r.ws.isReady {
		return ErrNotReady
	}

	data, err := json.Marshal(pose)
	if err != nil {
		return fmt.Errorf("ошибка сериализации позы: %w", err)
	}
	return r.ws.db.Update(func(txn *badger.Txn) error {
		return txn.Set(viewerKey(name), data)
	})
}

func (r *badgerViewerRepo) Load(ctx context.Context, name string) (ViewerPose, bool, error) {
	var pose ViewerPose
	if name == "" {
		return pose, false, fmt.Errorf("%w: пустое имя", ErrInvalidViewer)
	}
	if err := ctx.Err(); err != nil {
		return pose, false, err
	}

	r.ws.mutex.RLock()
	defer r.ws.mutex.RUnlock()
	if !r.ws.isReady {
		return pose, false, ErrNotReady
	}

	err := r.ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(viewerKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &pose)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ViewerPose{}, false, nil
	}
	if err != nil {
		return ViewerPose{}, false, fmt.Errorf("ошибка чтения позы: %w", err)
	}
	return pose, true, nil
}

func (r *badgerViewerRepo) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.ws.mutex.RLock()
	defer r.ws.mutex.RUnlock()
	if !r.ws.isReady {
		return ErrNotReady
	}

	return r.ws.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(viewerKey(name))
	})
}
