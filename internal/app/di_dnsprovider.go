package app

import (
	"fmt"
	"net/http"

	dnsAdapter "github.com/certkeep/certkeep/internal/dnsprovider/adapter"
	dnsproviderHTTP "github.com/certkeep/certkeep/internal/dnsprovider/http"
	dnsRepository "github.com/certkeep/certkeep/internal/dnsprovider/repository"
	dnsUseCase "github.com/certkeep/certkeep/internal/dnsprovider/usecase"
)

// ProviderRepository returns the DNS provider repository.
func (c *Container) ProviderRepository() (dnsUseCase.ProviderRepository, error) {
	var err error
	c.providerRepoInit.Do(func() {
		c.providerRepo, err = c.initProviderRepository()
		if err != nil {
			c.initErrors["providerRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["providerRepo"]; exists {
		return nil, storedErr
	}
	return c.providerRepo, nil
}

// ZoneCache returns the zone discovery cache. When caching is disabled every
// run re-discovers zones from the provider API.
func (c *Container) ZoneCache() (dnsAdapter.ZoneCache, error) {
	var err error
	c.zoneCacheInit.Do(func() {
		c.zoneCache, err = c.initZoneCache()
		if err != nil {
			c.initErrors["zoneCache"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["zoneCache"]; exists {
		return nil, storedErr
	}
	return c.zoneCache, nil
}

// AdapterFactory returns the DNS adapter factory.
func (c *Container) AdapterFactory() (*dnsAdapter.Factory, error) {
	var err error
	c.adapterFactoryInit.Do(func() {
		c.adapterFactory, err = c.initAdapterFactory()
		if err != nil {
			c.initErrors["adapterFactory"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["adapterFactory"]; exists {
		return nil, storedErr
	}
	return c.adapterFactory, nil
}

// ProviderUseCase returns the DNS provider management use case.
func (c *Container) ProviderUseCase() (dnsUseCase.ProviderUseCase, error) {
	var err error
	c.providerUseCaseInit.Do(func() {
		c.providerUseCase, err = c.initProviderUseCase()
		if err != nil {
			c.initErrors["providerUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["providerUseCase"]; exists {
		return nil, storedErr
	}
	return c.providerUseCase, nil
}

// ProviderHandler returns the HTTP handler for DNS provider operations.
func (c *Container) ProviderHandler() (*dnsproviderHTTP.ProviderHandler, error) {
	var err error
	c.providerHandlerInit.Do(func() {
		c.providerHandler, err = c.initProviderHandler()
		if err != nil {
			c.initErrors["providerHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["providerHandler"]; exists {
		return nil, storedErr
	}
	return c.providerHandler, nil
}

// initProviderRepository creates the provider repository.
func (c *Container) initProviderRepository() (dnsUseCase.ProviderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for provider repository: %w", err)
	}
	return dnsRepository.NewProviderRepository(db, c.config.DBDriver), nil
}

// initZoneCache creates the zone cache based on configuration.
func (c *Container) initZoneCache() (dnsAdapter.ZoneCache, error) {
	if !c.config.ZoneCacheEnabled {
		return dnsAdapter.NoopZoneCache{}, nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for zone cache: %w", err)
	}
	return dnsRepository.NewZoneCacheRepository(db, c.config.DBDriver, c.config.ZoneCacheTTL, c.Logger()), nil
}

// initAdapterFactory creates the adapter factory with the shared HTTP client
// and DNS-over-HTTPS resolver.
func (c *Container) initAdapterFactory() (*dnsAdapter.Factory, error) {
	store, err := c.SecretStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret store for adapter factory: %w", err)
	}

	cache, err := c.ZoneCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get zone cache for adapter factory: %w", err)
	}

	client := &http.Client{Timeout: c.config.DNSRequestTimeout}
	resolver := dnsAdapter.NewDoHResolver(c.config.DNSResolverURL, client)

	return dnsAdapter.NewFactory(store, cache, resolver, client), nil
}

// initProviderUseCase creates the provider use case with all its dependencies.
func (c *Container) initProviderUseCase() (dnsUseCase.ProviderUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for provider use case: %w", err)
	}

	repo, err := c.ProviderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get provider repository for provider use case: %w", err)
	}

	store, err := c.SecretStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get secret store for provider use case: %w", err)
	}

	factory, err := c.AdapterFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to get adapter factory for provider use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for provider use case: %w", err)
	}

	useCase := dnsUseCase.NewProviderUseCase(txManager, repo, store, factory, c.Logger())
	return dnsUseCase.NewProviderUseCaseWithMetrics(useCase, businessMetrics), nil
}

// initProviderHandler creates the provider HTTP handler.
func (c *Container) initProviderHandler() (*dnsproviderHTTP.ProviderHandler, error) {
	useCase, err := c.ProviderUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get provider use case for provider handler: %w", err)
	}
	return dnsproviderHTTP.NewProviderHandler(useCase, c.Logger()), nil
}
