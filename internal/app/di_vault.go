package app

import (
	"context"
	"fmt"

	vaultHTTP "github.com/certkeep/certkeep/internal/vault/http"
	vaultRepository "github.com/certkeep/certkeep/internal/vault/repository"
	vaultService "github.com/certkeep/certkeep/internal/vault/service"
	vaultUseCase "github.com/certkeep/certkeep/internal/vault/usecase"
)

// KeyWrapper returns the key wrapper backing the vault. The keeper behind the
// configured KMS URI is opened on first access; failure to open it leaves the
// vault unable to seal or resolve anything.
func (c *Container) KeyWrapper() (vaultService.KeyWrapper, error) {
	var err error
	c.keyWrapperInit.Do(func() {
		c.keyWrapper, err = c.initKeyWrapper()
		if err != nil {
			c.initErrors["keyWrapper"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyWrapper"]; exists {
		return nil, storedErr
	}
	return c.keyWrapper, nil
}

// SecretRepository returns the secret repository.
func (c *Container) SecretRepository() (vaultUseCase.SecretRepository, error) {
	var err error
	c.secretRepoInit.Do(func() {
		c.secretRepo, err = c.initSecretRepository()
		if err != nil {
			c.initErrors["secretRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretRepo"]; exists {
		return nil, storedErr
	}
	return c.secretRepo, nil
}

// SecretStore returns the credential-custody use case.
func (c *Container) SecretStore() (vaultUseCase.SecretStore, error) {
	var err error
	c.secretStoreInit.Do(func() {
		c.secretStore, err = c.initSecretStore()
		if err != nil {
			c.initErrors["secretStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretStore"]; exists {
		return nil, storedErr
	}
	return c.secretStore, nil
}

// SecretHandler returns the HTTP handler for secret management operations.
func (c *Container) SecretHandler() (*vaultHTTP.SecretHandler, error) {
	var err error
	c.secretHandlerInit.Do(func() {
		c.secretHandler, err = c.initSecretHandler()
		if err != nil {
			c.initErrors["secretHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["secretHandler"]; exists {
		return nil, storedErr
	}
	return c.secretHandler, nil
}

// initKeyWrapper opens the keeper and applies the presence gate when required.
func (c *Container) initKeyWrapper() (vaultService.KeyWrapper, error) {
	wrapper, err := vaultService.OpenKeyWrapper(context.Background(), c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open key wrapper: %w", err)
	}

	presence := vaultService.SelectPresenceProvider(c.config.VaultPresenceRequired, nil)
	return vaultService.GateKeyWrapper(wrapper, presence), nil
}

// initSecretRepository creates the secret repository.
func (c *Container) initSecretRepository() (vaultUseCase.SecretRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for secret repository: %w", err)
	}
	return vaultRepository.NewSecretRepository(db, c.config.DBDriver), nil
}

// initSecretStore creates the secret store with all its dependencies.
func (c *Container) initSecretStore() (vaultUseCase.SecretStore, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for secret store: %w", err)
	}

	repo, err := c.SecretRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret repository for secret store: %w", err)
	}

	wrapper, err := c.KeyWrapper()
	if err != nil {
		return nil, fmt.Errorf("failed to get key wrapper for secret store: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for secret store: %w", err)
	}

	store := vaultUseCase.NewSecretStore(
		txManager,
		repo,
		wrapper,
		c.EventBus(),
		c.config.VaultIdleLockTimeout,
		c.Logger(),
	)
	return vaultUseCase.NewSecretStoreWithMetrics(store, businessMetrics), nil
}

// initSecretHandler creates the secret HTTP handler.
func (c *Container) initSecretHandler() (*vaultHTTP.SecretHandler, error) {
	store, err := c.SecretStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret store for secret handler: %w", err)
	}
	return vaultHTTP.NewSecretHandler(store, c.Logger()), nil
}
