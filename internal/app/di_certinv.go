package app

import (
	"fmt"

	certinvHTTP "github.com/certkeep/certkeep/internal/certinv/http"
	certinvRepository "github.com/certkeep/certkeep/internal/certinv/repository"
	certinvUseCase "github.com/certkeep/certkeep/internal/certinv/usecase"
)

// CertificateRepository returns the certificate repository.
func (c *Container) CertificateRepository() (certinvUseCase.CertificateRepository, error) {
	var err error
	c.certRepoInit.Do(func() {
		c.certRepo, err = c.initCertificateRepository()
		if err != nil {
			c.initErrors["certRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["certRepo"]; exists {
		return nil, storedErr
	}
	return c.certRepo, nil
}

// CertInventory returns the certificate inventory use case.
func (c *Container) CertInventory() (certinvUseCase.CertInventory, error) {
	var err error
	c.certInventoryInit.Do(func() {
		c.certInventory, err = c.initCertInventory()
		if err != nil {
			c.initErrors["certInventory"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["certInventory"]; exists {
		return nil, storedErr
	}
	return c.certInventory, nil
}

// CertificateHandler returns the HTTP handler for certificate operations.
func (c *Container) CertificateHandler() (*certinvHTTP.CertificateHandler, error) {
	var err error
	c.certHandlerInit.Do(func() {
		c.certificateHandler, err = c.initCertificateHandler()
		if err != nil {
			c.initErrors["certificateHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["certificateHandler"]; exists {
		return nil, storedErr
	}
	return c.certificateHandler, nil
}

// initCertificateRepository creates the certificate repository.
func (c *Container) initCertificateRepository() (certinvUseCase.CertificateRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for certificate repository: %w", err)
	}
	return certinvRepository.NewCertificateRepository(db, c.config.DBDriver), nil
}

// initCertInventory creates the certificate inventory with all its dependencies.
func (c *Container) initCertInventory() (certinvUseCase.CertInventory, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for certificate inventory: %w", err)
	}

	repo, err := c.CertificateRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate repository for certificate inventory: %w", err)
	}

	store, err := c.SecretStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret store for certificate inventory: %w", err)
	}

	return certinvUseCase.NewCertInventory(txManager, repo, store, c.Logger()), nil
}

// initCertificateHandler creates the certificate HTTP handler.
func (c *Container) initCertificateHandler() (*certinvHTTP.CertificateHandler, error) {
	inventory, err := c.CertInventory()
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate inventory for certificate handler: %w", err)
	}
	return certinvHTTP.NewCertificateHandler(inventory, c.Logger()), nil
}
