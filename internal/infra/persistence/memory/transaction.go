package memory

import (
	"context"

	"edusmart/internal/domain/repository"
)

// transactionManager holds the store lock for the whole of fn and restores a
// snapshot when fn fails. fn must only use the repository it is handed.
type transactionManager struct {
	store *Store
}

type repositoryFactory struct {
	data *accounts
}

// NewUserRepository returns the unlocked view owned by the running transaction.
func (f *repositoryFactory) NewUserRepository() repository.UserRepository {
	return f.data
}

// NewTransactionManager creates a transaction manager for the store.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

// Execute runs fn and rolls the store back to its prior state if fn returns an error or panics.
func (tm *transactionManager) Execute(_ context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) (err error) {
	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	saved := tm.store.data.snapshot()
	defer func() {
		if r := recover(); r != nil {
			tm.store.data.users = saved
			panic(r)
		}
	}()

	if err := fn(&repositoryFactory{data: &tm.store.data}); err != nil {
		tm.store.data.users = saved

		return err
	}

	return nil
}
