package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/namecheck/models"
)

type mockUserRepo struct {
	mock.Mock
}

var _ models.UserRepositoryInterface = (*mockUserRepo)(nil)

func (m *mockUserRepo) GetByID(id uuid.UUID) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) CountActiveByUsernameLower(ctx context.Context, usernameLower string) (int, error) {
	args := m.Called(usernameLower)
	return args.Int(0), args.Error(1)
}

type mockUsedRepo struct {
	mock.Mock
}

func (m *mockUsedRepo) CountByUsername(ctx context.Context, usernameLower string) (int, error) {
	args := m.Called(usernameLower)
	return args.Int(0), args.Error(1)
}

// memoryAccounts stores users the way the users table does.
type memoryAccounts []models.User

func (a memoryAccounts) GetByID(id uuid.UUID) (*models.User, error) {
	for i := range a {
		if a[i].ID == id {
			return &a[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (a memoryAccounts) CountActiveByUsernameLower(ctx context.Context, usernameLower string) (int, error) {
	n := 0
	for _, u := range a {
		if u.IsLocal() && LowerUsername(u.Username) == usernameLower {
			n++
		}
	}
	return n, nil
}

type memoryUsed []string

func (u memoryUsed) CountByUsername(ctx context.Context, usernameLower string) (int, error) {
	n := 0
	for _, name := range u {
		if name == usernameLower {
			n++
		}
	}
	return n, nil
}

type failingSource struct{ err error }

func (f failingSource) PreservedUsernames(context.Context) ([]string, error) { return nil, f.err }

type blockingUsers struct{ memoryAccounts }

func (blockingUsers) CountActiveByUsernameLower(ctx context.Context, usernameLower string) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestDecide(t *testing.T) {
	assert.True(t, Decide(0, 0, false))
	assert.False(t, Decide(1, 0, false))
	assert.False(t, Decide(0, 1, false))
	assert.False(t, Decide(0, 0, true))
	assert.False(t, Decide(3, 2, true))

	// Same inputs, same answer.
	for i := 0; i < 3; i++ {
		assert.Equal(t, Decide(0, 0, false), Decide(0, 0, false))
		assert.Equal(t, Decide(0, 4, true), Decide(0, 4, true))
	}
}

func TestAvailabilityEndToEnd(t *testing.T) {
	host := "remote.example"
	users := memoryAccounts{
		{ID: uuid.New(), Username: "alice"},
		{ID: uuid.New(), Username: "dave", Host: &host},
	}
	used := memoryUsed{"bob"}
	preserved := StaticPreservedSource{"admin", "/^root.*/i"}
	a := NewAvailability(users, used, preserved).WithMatcher(NewPreservedMatcher(time.Minute))

	cases := map[string]bool{
		"alice":      false,
		"ALICE":      false,
		"Bob":        false,
		"rootAccess": false,
		"Admin":      false,
		"carol":      true,
		// Federated accounts do not hold local names.
		"dave": true,
	}
	for name, want := range cases {
		got, err := a.Check(context.Background(), name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestAvailabilityQueriesUseFoldedName(t *testing.T) {
	users := new(mockUserRepo)
	used := new(mockUsedRepo)
	users.On("CountActiveByUsernameLower", "foo").Return(1, nil)
	used.On("CountByUsername", "foo").Return(0, nil)

	a := NewAvailability(users, used, StaticPreservedSource(nil))
	ok, err := a.Check(context.Background(), "FOO")
	require.NoError(t, err)
	assert.False(t, ok)

	users.AssertExpectations(t)
	used.AssertExpectations(t)
}

func TestAvailabilityPatternSeesRawName(t *testing.T) {
	users := new(mockUserRepo)
	used := new(mockUsedRepo)
	users.On("CountActiveByUsernameLower", "administrator").Return(0, nil)
	used.On("CountByUsername", "administrator").Return(0, nil)

	a := NewAvailability(users, used, StaticPreservedSource{"/^Adm.*/"})

	ok, err := a.Check(context.Background(), "administrator")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Check(context.Background(), "Administrator")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailabilityInvalidPatternNeverErrors(t *testing.T) {
	a := NewAvailability(memoryAccounts{}, memoryUsed{}, StaticPreservedSource{"/(broken/", "/x/zz"})
	for _, name := range []string{"broken", "x", "carol"} {
		ok, err := a.Check(context.Background(), name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}
}

func TestAvailabilityStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("users", func(t *testing.T) {
		users := new(mockUserRepo)
		users.On("CountActiveByUsernameLower", "carol").Return(0, boom)
		a := NewAvailability(users, memoryUsed{}, StaticPreservedSource(nil))
		_, err := a.Check(context.Background(), "carol")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("used", func(t *testing.T) {
		used := new(mockUsedRepo)
		used.On("CountByUsername", "carol").Return(0, boom)
		a := NewAvailability(memoryAccounts{}, used, StaticPreservedSource(nil))
		_, err := a.Check(context.Background(), "carol")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("preserved", func(t *testing.T) {
		a := NewAvailability(memoryAccounts{}, memoryUsed{}, failingSource{err: boom})
		_, err := a.Check(context.Background(), "carol")
		assert.ErrorIs(t, err, boom)
	})
}

func TestAvailabilityTimeout(t *testing.T) {
	a := NewAvailability(blockingUsers{}, memoryUsed{}, StaticPreservedSource(nil)).WithTimeout(20 * time.Millisecond)
	start := time.Now()
	_, err := a.Check(context.Background(), "carol")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAvailabilityCallerCancellation(t *testing.T) {
	a := NewAvailability(blockingUsers{}, memoryUsed{}, StaticPreservedSource(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Check(ctx, "carol")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAvailabilityExplain(t *testing.T) {
	a := NewAvailability(memoryAccounts{}, memoryUsed{}, StaticPreservedSource{"admin", "/^root/i", "/(/"})
	got, err := a.Explain(context.Background(), "Root")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.False(t, got[0].Matched)
	assert.True(t, got[1].Matched)
	assert.NotEmpty(t, got[2].Error)

	_, err = NewAvailability(memoryAccounts{}, memoryUsed{}, failingSource{err: errors.New("down")}).Explain(context.Background(), "x")
	assert.Error(t, err)
}
