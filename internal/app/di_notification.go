package app

import (
	"fmt"

	notificationDomain "github.com/allisson/enrollments/internal/notification/domain"
	notificationRepository "github.com/allisson/enrollments/internal/notification/repository"
	notificationService "github.com/allisson/enrollments/internal/notification/service"
	notificationUseCase "github.com/allisson/enrollments/internal/notification/usecase"
)

// overflowQueues are the Redis lists exported by the queue depth gauge.
var overflowQueues = []string{
	notificationDomain.FailedEmailsQueue,
	notificationDomain.FailedPaymentsQueue,
}

// OverflowRepository returns the Redis overflow queues.
func (c *Container) OverflowRepository() (notificationUseCase.OverflowRepository, error) {
	var err error
	c.overflowRepositoryInit.Do(func() {
		c.overflowRepository, err = c.initOverflowRepository()
		if err != nil {
			c.recordError("overflowRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("overflowRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.overflowRepository, nil
}

// Notifier returns the notifier invoked for each consumed notification.
func (c *Container) Notifier() notificationService.Notifier {
	c.notifierInit.Do(func() {
		c.notifier = notificationService.NewLogNotifier(c.Logger())
	})
	return c.notifier
}

// Dispatcher returns the notification dispatcher wrapped with metrics.
func (c *Container) Dispatcher() (notificationUseCase.Dispatcher, error) {
	var err error
	c.dispatcherInit.Do(func() {
		c.dispatcher, err = c.initDispatcher()
		if err != nil {
			c.recordError("dispatcher", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("dispatcher"); storedErr != nil {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

// Sweeper returns the overflow sweeper wrapped with metrics.
func (c *Container) Sweeper() (notificationUseCase.Sweeper, error) {
	var err error
	c.sweeperInit.Do(func() {
		c.sweeper, err = c.initSweeper()
		if err != nil {
			c.recordError("sweeper", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("sweeper"); storedErr != nil {
		return nil, storedErr
	}
	return c.sweeper, nil
}

// Consumer returns the notification bus consumer.
func (c *Container) Consumer() (*notificationUseCase.Consumer, error) {
	var err error
	c.consumerInit.Do(func() {
		c.consumer, err = c.initConsumer()
		if err != nil {
			c.recordError("consumer", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("consumer"); storedErr != nil {
		return nil, storedErr
	}
	return c.consumer, nil
}

func (c *Container) initOverflowRepository() (notificationUseCase.OverflowRepository, error) {
	client, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for overflow repository: %w", err)
	}
	return notificationRepository.NewRedisOverflowRepository(client), nil
}

func (c *Container) initDispatcher() (notificationUseCase.Dispatcher, error) {
	bus, err := c.Bus()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus for dispatcher: %w", err)
	}

	overflowRepository, err := c.OverflowRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get overflow repository for dispatcher: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for dispatcher: %w", err)
	}

	dispatcher := notificationUseCase.NewDispatcher(
		c.dispatcherConfig(),
		bus,
		overflowRepository,
		c.Logger(),
	)
	return notificationUseCase.NewDispatcherWithMetrics(dispatcher, businessMetrics), nil
}

func (c *Container) initSweeper() (notificationUseCase.Sweeper, error) {
	bus, err := c.Bus()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus for sweeper: %w", err)
	}

	overflowRepository, err := c.OverflowRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get overflow repository for sweeper: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for sweeper: %w", err)
	}

	sweeper := notificationUseCase.NewSweeper(bus, overflowRepository, c.Logger())
	return notificationUseCase.NewSweeperWithMetrics(sweeper, businessMetrics), nil
}

func (c *Container) initConsumer() (*notificationUseCase.Consumer, error) {
	bus, err := c.Bus()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus for consumer: %w", err)
	}
	return notificationUseCase.NewConsumer(bus, c.Notifier(), c.Logger()), nil
}

func (c *Container) dispatcherConfig() notificationUseCase.DispatcherConfig {
	return notificationUseCase.DispatcherConfig{
		MaxAttempts:    c.config.DispatchMaxAttempts,
		InitialBackoff: c.config.DispatchInitialBackoff,
	}
}
