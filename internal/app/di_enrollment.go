package app

import (
	"fmt"

	"github.com/allisson/enrollments/internal/config"
	enrollmentHTTP "github.com/allisson/enrollments/internal/enrollment/http"
	enrollmentRepository "github.com/allisson/enrollments/internal/enrollment/repository"
	enrollmentUseCase "github.com/allisson/enrollments/internal/enrollment/usecase"
)

// CourseRepository returns the course repository based on database driver.
func (c *Container) CourseRepository() (enrollmentUseCase.CourseRepository, error) {
	var err error
	c.courseRepositoryInit.Do(func() {
		c.courseRepository, err = c.initCourseRepository()
		if err != nil {
			c.recordError("courseRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("courseRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.courseRepository, nil
}

// UserRepository returns the user repository based on database driver.
func (c *Container) UserRepository() (enrollmentUseCase.UserRepository, error) {
	var err error
	c.userRepositoryInit.Do(func() {
		c.userRepository, err = c.initUserRepository()
		if err != nil {
			c.recordError("userRepository", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("userRepository"); storedErr != nil {
		return nil, storedErr
	}
	return c.userRepository, nil
}

// CourseCache returns the Redis snapshot cache.
func (c *Container) CourseCache() (enrollmentUseCase.CourseCache, error) {
	var err error
	c.courseCacheInit.Do(func() {
		c.courseCache, err = c.initCourseCache()
		if err != nil {
			c.recordError("courseCache", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("courseCache"); storedErr != nil {
		return nil, storedErr
	}
	return c.courseCache, nil
}

// EnrollmentUseCase returns the enrollment use case wrapped with metrics.
func (c *Container) EnrollmentUseCase() (enrollmentUseCase.EnrollmentUseCase, error) {
	var err error
	c.enrollmentUseCaseInit.Do(func() {
		c.enrollmentUseCase, err = c.initEnrollmentUseCase()
		if err != nil {
			c.recordError("enrollmentUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("enrollmentUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.enrollmentUseCase, nil
}

// AccountDeletionUseCase returns the deferred account deletion use case wrapped with metrics.
func (c *Container) AccountDeletionUseCase() (enrollmentUseCase.AccountDeletionUseCase, error) {
	var err error
	c.accountDeletionUseCaseInit.Do(func() {
		c.accountDeletionUseCase, err = c.initAccountDeletionUseCase()
		if err != nil {
			c.recordError("accountDeletionUseCase", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("accountDeletionUseCase"); storedErr != nil {
		return nil, storedErr
	}
	return c.accountDeletionUseCase, nil
}

// CourseHandler returns the HTTP handler for course reads.
func (c *Container) CourseHandler() (*enrollmentHTTP.CourseHandler, error) {
	var err error
	c.courseHandlerInit.Do(func() {
		c.courseHandler, err = c.initCourseHandler()
		if err != nil {
			c.recordError("courseHandler", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("courseHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.courseHandler, nil
}

// AccountHandler returns the HTTP handler for account deletion scheduling.
func (c *Container) AccountHandler() (*enrollmentHTTP.AccountHandler, error) {
	var err error
	c.accountHandlerInit.Do(func() {
		c.accountHandler, err = c.initAccountHandler()
		if err != nil {
			c.recordError("accountHandler", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.storedError("accountHandler"); storedErr != nil {
		return nil, storedErr
	}
	return c.accountHandler, nil
}

func (c *Container) initCourseRepository() (enrollmentUseCase.CourseRepository, error) {
	switch c.config.DBDriver {
	case config.DriverPostgres, config.DriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for course repository: %w", err)
		}
		if c.config.DBDriver == config.DriverMySQL {
			return enrollmentRepository.NewMySQLCourseRepository(db), nil
		}
		return enrollmentRepository.NewPostgreSQLCourseRepository(db), nil
	case config.DriverMongoDB:
		mongoDB, err := c.MongoDatabase()
		if err != nil {
			return nil, fmt.Errorf("failed to get mongodb for course repository: %w", err)
		}
		return enrollmentRepository.NewMongoDBCourseRepository(mongoDB), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initUserRepository() (enrollmentUseCase.UserRepository, error) {
	switch c.config.DBDriver {
	case config.DriverPostgres, config.DriverMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for user repository: %w", err)
		}
		if c.config.DBDriver == config.DriverMySQL {
			return enrollmentRepository.NewMySQLUserRepository(db), nil
		}
		return enrollmentRepository.NewPostgreSQLUserRepository(db), nil
	case config.DriverMongoDB:
		mongoDB, err := c.MongoDatabase()
		if err != nil {
			return nil, fmt.Errorf("failed to get mongodb for user repository: %w", err)
		}
		return enrollmentRepository.NewMongoDBUserRepository(mongoDB), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initCourseCache() (enrollmentUseCase.CourseCache, error) {
	client, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for course cache: %w", err)
	}
	return enrollmentRepository.NewRedisCourseCache(client, c.config.CourseCacheTTL), nil
}

func (c *Container) initEnrollmentUseCase() (enrollmentUseCase.EnrollmentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for enrollment use case: %w", err)
	}

	courseRepository, err := c.CourseRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get course repository for enrollment use case: %w", err)
	}

	userRepository, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for enrollment use case: %w", err)
	}

	courseCache, err := c.CourseCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get course cache for enrollment use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for enrollment use case: %w", err)
	}

	useCase := enrollmentUseCase.NewEnrollmentUseCase(
		txManager,
		courseRepository,
		userRepository,
		courseCache,
		c.Logger(),
	)
	return enrollmentUseCase.NewEnrollmentUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initAccountDeletionUseCase() (enrollmentUseCase.AccountDeletionUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for account deletion use case: %w", err)
	}

	courseRepository, err := c.CourseRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get course repository for account deletion use case: %w", err)
	}

	userRepository, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for account deletion use case: %w", err)
	}

	courseCache, err := c.CourseCache()
	if err != nil {
		return nil, fmt.Errorf("failed to get course cache for account deletion use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for account deletion use case: %w", err)
	}

	useCase := enrollmentUseCase.NewAccountDeletionUseCase(
		enrollmentUseCase.AccountDeletionConfig{
			GracePeriod: c.config.AccountDeletionGracePeriod,
			BatchSize:   c.config.AccountDeletionBatchSize,
		},
		txManager,
		courseRepository,
		userRepository,
		courseCache,
		c.Logger(),
	)
	return enrollmentUseCase.NewAccountDeletionUseCaseWithMetrics(useCase, businessMetrics), nil
}

func (c *Container) initCourseHandler() (*enrollmentHTTP.CourseHandler, error) {
	useCase, err := c.EnrollmentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment use case for course handler: %w", err)
	}
	return enrollmentHTTP.NewCourseHandler(useCase, c.Logger()), nil
}

func (c *Container) initAccountHandler() (*enrollmentHTTP.AccountHandler, error) {
	useCase, err := c.AccountDeletionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account deletion use case for account handler: %w", err)
	}
	return enrollmentHTTP.NewAccountHandler(useCase, c.Logger()), nil
}
