package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/user-service/internal/events"
	"github.com/SAP-F-2025/user-service/internal/media"
	"github.com/SAP-F-2025/user-service/internal/repositories"
	"github.com/SAP-F-2025/user-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	JWTSecret     string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int

	DefaultTimeout time.Duration
}

// Validate checks the configuration before any service is constructed.
func (config *ServiceManagerConfig) Validate() error {
	if config.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if config.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if config.ResetTokenTTL <= 0 {
		return fmt.Errorf("reset token ttl must be positive")
	}
	return nil
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.Publisher
	media     media.Store
	config    ServiceManagerConfig

	// Service instances
	credentialService CredentialService
	tokenService      TokenService
	resetService      ResetService
	authService       AuthService
	profileService    ProfileService
	userAdminService  UserAdminService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.Publisher, mediaStore media.Store, config ServiceManagerConfig) ServiceManager {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}

	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
		media:     mediaStore,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.config.Validate(); err != nil {
		return fmt.Errorf("invalid service configuration: %w", err)
	}

	credentials, err := NewCredentialService(sm.repo, sm.logger, sm.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize credential service: %w", err)
	}
	sm.credentialService = credentials
	sm.logger.Info("Credential service initialized")

	sm.tokenService = NewTokenService(sm.config.JWTSecret, sm.config.SessionTTL)
	sm.logger.Info("Token service initialized")

	sm.resetService = NewResetService(sm.repo, sm.credentialService, sm.publisher, sm.logger, sm.config.ResetTokenTTL)
	sm.logger.Info("Reset service initialized")

	sm.authService = NewAuthService(sm.repo, sm.credentialService, sm.tokenService, sm.publisher, sm.logger, sm.validator)
	sm.logger.Info("Auth service initialized")

	sm.profileService = NewProfileService(sm.repo, sm.media, sm.publisher, sm.logger, sm.validator)
	sm.logger.Info("Profile service initialized")

	sm.userAdminService = NewUserAdminService(sm.repo, sm.logger, sm.validator)
	sm.logger.Info("User admin service initialized")

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Credential() CredentialService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.credentialService
}

func (sm *serviceManager) Token() TokenService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.tokenService
}

func (sm *serviceManager) Reset() ResetService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.resetService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.authService
}

func (sm *serviceManager) Profile() ProfileService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.profileService
}

func (sm *serviceManager) UserAdmin() UserAdminService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.userAdminService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if err := sm.publisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}
