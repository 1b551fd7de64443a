package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/topphysics/core/assistant"
)

type assistantRepository struct {
	db *assistantTable
}

var _ assistant.Repository = (*assistantRepository)(nil)

func NewAssistantRepository(db *DB) assistant.Repository {
	return &assistantRepository{db: db.assistant}
}

// usernameTaken must be called with the table lock held.
func (repo *assistantRepository) usernameTaken(username string, excludedID int) bool {
	for _, a := range repo.db.table {
		if a.Username == username && a.ID != excludedID {
			return true
		}
	}
	return false
}

func (repo *assistantRepository) CreateAssistant(ctx context.Context, a assistant.Assistant) (assistant.Assistant, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.usernameTaken(a.Username, 0) {
		return assistant.Assistant{}, assistant.ErrUsernameExists
	}
	repo.db.pkCount++
	a.ID = repo.db.pkCount
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assistantRepository) QueryAllAssistants(ctx context.Context) ([]assistant.Assistant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	assistants := make([]assistant.Assistant, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		assistants = append(assistants, *a)
	}
	sort.Slice(assistants, func(i, j int) bool { return assistants[i].ID < assistants[j].ID })
	return assistants, nil
}

func (repo *assistantRepository) GetAssistantByID(ctx context.Context, id int) (assistant.Assistant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return assistant.Assistant{}, assistant.ErrNotFound
}

func (repo *assistantRepository) GetAssistantByUsername(ctx context.Context, username string) (assistant.Assistant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.table {
		if a.Username == username {
			return *a, nil
		}
	}
	return assistant.Assistant{}, assistant.ErrNotFound
}

func (repo *assistantRepository) UpdateAssistant(ctx context.Context, a assistant.Assistant) (assistant.Assistant, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[a.ID]; !ok {
		return assistant.Assistant{}, assistant.ErrNotFound
	}
	if repo.usernameTaken(a.Username, a.ID) {
		return assistant.Assistant{}, assistant.ErrUsernameExists
	}
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assistantRepository) DeleteAssistant(ctx context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return assistant.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
