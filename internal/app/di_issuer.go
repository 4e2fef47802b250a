package app

import (
	"fmt"
	"net/http"

	issuerAcme "github.com/certkeep/certkeep/internal/issuer/acme"
	issuerHTTP "github.com/certkeep/certkeep/internal/issuer/http"
	issuerRepository "github.com/certkeep/certkeep/internal/issuer/repository"
	issuerUseCase "github.com/certkeep/certkeep/internal/issuer/usecase"
)

// IssuerRepository returns the issuer repository.
func (c *Container) IssuerRepository() (issuerUseCase.IssuerRepository, error) {
	var err error
	c.issuerRepoInit.Do(func() {
		c.issuerRepo, err = c.initIssuerRepository()
		if err != nil {
			c.initErrors["issuerRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuerRepo"]; exists {
		return nil, storedErr
	}
	return c.issuerRepo, nil
}

// AcmeClient returns the shared ACME protocol client.
func (c *Container) AcmeClient() *issuerAcme.Client {
	c.acmeClientInit.Do(func() {
		httpClient := &http.Client{Timeout: c.config.ACMERequestTimeout}
		c.acmeClient = issuerAcme.NewClient(httpClient, c.Logger())
	})
	return c.acmeClient
}

// IssuerUseCase returns the issuer management use case.
func (c *Container) IssuerUseCase() (issuerUseCase.IssuerUseCase, error) {
	var err error
	c.issuerUCInit.Do(func() {
		c.issuerUC, err = c.initIssuerUseCase()
		if err != nil {
			c.initErrors["issuerUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuerUseCase"]; exists {
		return nil, storedErr
	}
	return c.issuerUC, nil
}

// IssuerHandler returns the HTTP handler for issuer operations.
func (c *Container) IssuerHandler() (*issuerHTTP.IssuerHandler, error) {
	var err error
	c.issuerHandlerInit.Do(func() {
		c.issuerHandler, err = c.initIssuerHandler()
		if err != nil {
			c.initErrors["issuerHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuerHandler"]; exists {
		return nil, storedErr
	}
	return c.issuerHandler, nil
}

// initIssuerRepository creates the issuer repository.
func (c *Container) initIssuerRepository() (issuerUseCase.IssuerRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for issuer repository: %w", err)
	}
	return issuerRepository.NewIssuerRepository(db, c.config.DBDriver), nil
}

// initIssuerUseCase creates the issuer use case with all its dependencies.
func (c *Container) initIssuerUseCase() (issuerUseCase.IssuerUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for issuer use case: %w", err)
	}

	repo, err := c.IssuerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuer repository for issuer use case: %w", err)
	}

	store, err := c.SecretStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret store for issuer use case: %w", err)
	}

	return issuerUseCase.NewIssuerUseCase(txManager, repo, store, c.AcmeClient(), c.Logger()), nil
}

// initIssuerHandler creates the issuer HTTP handler.
func (c *Container) initIssuerHandler() (*issuerHTTP.IssuerHandler, error) {
	useCase, err := c.IssuerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuer use case for issuer handler: %w", err)
	}
	return issuerHTTP.NewIssuerHandler(useCase, c.Logger()), nil
}
