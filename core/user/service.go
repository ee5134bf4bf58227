package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSeedAdminProtected = errors.New("the seed admin cannot be deleted")
	ErrStudentAccount     = errors.New("student accounts are managed through their student record")
)

type (
	Repository interface {
		// Add creates usr unless a user with the same email (case-insensitive) exists,
		// in which case the existing user is returned and created is false.
		Add(ctx context.Context, usr User) (u User, created bool, err error)
		List(ctx context.Context) ([]User, error)
		Filter(ctx context.Context, filter QueryFilter) ([]User, error)
		Get(ctx context.Context, id string) (User, error)
		// Find does a case-insensitive lookup by email.
		Find(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, ids ...string) error
		// SeedAdmin creates admin (with ID SeedAdminID) on first run only.
		// It is a no-op once seeded, or when a user already owns the admin email.
		SeedAdmin(ctx context.Context, admin User) (u User, created bool, err error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, exclID string) error {
	usr, err := svc.repo.Find(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return errors.Wrap(err, "finding user by email")
	case usr.ID == exclID:
		return nil
	}
	return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Email, ""); err != nil {
		return User{}, err
	}
	usr, _, err := svc.repo.Add(ctx, User{
		ID:       core.NewID(),
		Name:     nu.Name,
		Email:    nu.Email,
		Role:     nu.Role,
		Password: nu.Password,
	})
	if err != nil {
		return User{}, errors.Wrap(err, "adding user")
	}
	return usr, nil
}

// Authenticate returns the user owning email if pwd matches their password.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.Find(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if !usr.CheckPassword(pwd) {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// SeedAdmin creates the distinguished admin from the configured credentials on first run.
func (svc *Service) SeedAdmin(ctx context.Context, conf core.AdminConfig) (User, bool, error) {
	usr, created, err := svc.repo.SeedAdmin(ctx, User{
		ID:       SeedAdminID,
		Name:     core.CleanString(conf.Name),
		Email:    core.CleanString(conf.Email, true /* lower */),
		Role:     RoleAdmin,
		Password: conf.Password,
	})
	return usr, created, errors.Wrap(err, "seeding admin")
}

func (svc *Service) List(ctx context.Context) ([]User, error) {
	return svc.repo.List(ctx)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.Filter(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (User, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service) Find(ctx context.Context, email string) (User, error) {
	return svc.repo.Find(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err = uu.Validate(usr, svc.validate); err != nil {
		return User{}, err
	}
	if err = svc.checkUniqueness(ctx, uu.Email, usr.ID); err != nil {
		return User{}, err
	}
	usr.Name = uu.Name
	usr.Email = uu.Email
	if uu.Password != "" {
		usr.Password = uu.Password
	}
	return svc.repo.Update(ctx, usr)
}

// ResetPassword sets a new password on the user owning email.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) (User, error) {
	if pwd == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "password", Error: "this field is required"})
	}
	usr, err := svc.Find(ctx, email)
	if err != nil {
		return User{}, err
	}
	usr.Password = pwd
	return svc.repo.Update(ctx, usr)
}

// Delete removes staff users by ID. The seed admin is never deleted;
// student accounts go away with their student record.
func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if id == SeedAdminID {
			return core.NewValidationError(ErrSeedAdminProtected)
		}
		usr, err := svc.repo.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return errors.Wrap(err, "finding user by ID")
		}
		if usr.IsStudent() {
			return core.NewValidationError(ErrStudentAccount)
		}
	}
	return svc.repo.Delete(ctx, ids...)
}
