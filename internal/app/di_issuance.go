package app

import (
	"fmt"

	issuanceHTTP "github.com/certkeep/certkeep/internal/issuance/http"
	issuanceRepository "github.com/certkeep/certkeep/internal/issuance/repository"
	issuanceUseCase "github.com/certkeep/certkeep/internal/issuance/usecase"
)

// IssuanceRepository returns the issuance request repository.
func (c *Container) IssuanceRepository() (issuanceUseCase.RequestRepository, error) {
	var err error
	c.issuanceRepoInit.Do(func() {
		c.issuanceRepo, err = c.initIssuanceRepository()
		if err != nil {
			c.initErrors["issuanceRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuanceRepo"]; exists {
		return nil, storedErr
	}
	return c.issuanceRepo, nil
}

// IssuanceUseCase returns the issuance orchestrator.
func (c *Container) IssuanceUseCase() (issuanceUseCase.IssuanceUseCase, error) {
	var err error
	c.issuanceUCInit.Do(func() {
		c.issuanceUC, err = c.initIssuanceUseCase()
		if err != nil {
			c.initErrors["issuanceUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuanceUseCase"]; exists {
		return nil, storedErr
	}
	return c.issuanceUC, nil
}

// IssuanceHandler returns the HTTP handler for issuance operations.
func (c *Container) IssuanceHandler() (*issuanceHTTP.IssuanceHandler, error) {
	var err error
	c.issuanceHandlerInit.Do(func() {
		c.issuanceHandler, err = c.initIssuanceHandler()
		if err != nil {
			c.initErrors["issuanceHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["issuanceHandler"]; exists {
		return nil, storedErr
	}
	return c.issuanceHandler, nil
}

// initIssuanceRepository creates the issuance request repository.
func (c *Container) initIssuanceRepository() (issuanceUseCase.RequestRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for issuance repository: %w", err)
	}
	return issuanceRepository.NewRequestRepository(db, c.config.DBDriver), nil
}

// initIssuanceUseCase creates the orchestrator with all its dependencies and
// wraps it with metrics instrumentation.
func (c *Container) initIssuanceUseCase() (issuanceUseCase.IssuanceUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for issuance use case: %w", err)
	}

	repo, err := c.IssuanceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuance repository for issuance use case: %w", err)
	}

	issuers, err := c.IssuerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuer use case for issuance use case: %w", err)
	}

	providers, err := c.ProviderUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get provider use case for issuance use case: %w", err)
	}

	inventory, err := c.CertInventory()
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate inventory for issuance use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for issuance use case: %w", err)
	}

	orchestrator := issuanceUseCase.NewOrchestrator(
		txManager,
		repo,
		issuers,
		providers,
		c.AcmeClient(),
		inventory,
		c.EventBus(),
		issuanceUseCase.Options{
			PollInterval:       c.config.DNSPollInterval,
			PropagationTimeout: c.config.DNSPollBudget,
			FinalizeTimeout:    c.config.ACMEFinalizeTimeout,
		},
		c.Logger(),
	)

	return issuanceUseCase.NewIssuanceUseCaseWithMetrics(orchestrator, businessMetrics), nil
}

// initIssuanceHandler creates the issuance HTTP handler.
func (c *Container) initIssuanceHandler() (*issuanceHTTP.IssuanceHandler, error) {
	useCase, err := c.IssuanceUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get issuance use case for issuance handler: %w", err)
	}
	return issuanceHTTP.NewIssuanceHandler(useCase, c.Logger()), nil
}
