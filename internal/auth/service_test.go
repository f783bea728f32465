package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"travel-expenses/internal/models"
	"travel-expenses/internal/storage"
)

// ServiceTestSuite exercises the credential service against an in-memory database
type ServiceTestSuite struct {
	suite.Suite
	db  *storage.DB
	svc *Service
	ctx context.Context
}

// SetupTest runs before each test
func (suite *ServiceTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.svc = NewService(db, newTestHasher(suite.T()))
	suite.ctx = context.Background()
}

// TearDownTest runs after each test
func (suite *ServiceTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *ServiceTestSuite) TestCreateAndVerify() {
	require.NoError(suite.T(), suite.svc.CreateUser(suite.ctx, "a@b.com", "pw"))

	ok, err := suite.svc.VerifyUser(suite.ctx, "a@b.com", "pw")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)

	ok, err = suite.svc.VerifyUser(suite.ctx, "  A@B.COM ", "pw")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok, "lookup must use the normalized email")
}

func (suite *ServiceTestSuite) TestVerifyRejects() {
	require.NoError(suite.T(), suite.svc.CreateUser(suite.ctx, "a@b.com", "pw"))

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "a@b.com", "pw2"},
		{"unknown email", "c@d.com", "pw"},
		{"empty email", "", "pw"},
		{"empty password", "a@b.com", ""},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			ok, err := suite.svc.VerifyUser(suite.ctx, tt.email, tt.password)
			require.NoError(suite.T(), err)
			assert.False(suite.T(), ok)
		})
	}
}

func (suite *ServiceTestSuite) TestDuplicateNormalizedEmail() {
	require.NoError(suite.T(), suite.svc.CreateUser(suite.ctx, " A@B.com ", "pw"))

	err := suite.svc.CreateUser(suite.ctx, "a@b.com", "other")
	assert.ErrorIs(suite.T(), err, models.ErrDuplicateUser)

	// The first registration still owns the password.
	ok, err := suite.svc.VerifyUser(suite.ctx, "a@b.com", "pw")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func (suite *ServiceTestSuite) TestCreateUserValidation() {
	for _, tc := range []struct{ email, password, field string }{
		{"", "pw", "email"},
		{"   ", "pw", "email"},
		{"a@b.com", "", "password"},
		{"a@b.com", "   ", "password"},
	} {
		err := suite.svc.CreateUser(suite.ctx, tc.email, tc.password)
		require.ErrorIs(suite.T(), err, models.ErrValidation)
		var ve *models.ValidationError
		require.ErrorAs(suite.T(), err, &ve)
		assert.Equal(suite.T(), tc.field, ve.Field)
	}

	users, err := suite.svc.ListUsers(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), users)
}

func (suite *ServiceTestSuite) TestListUsers() {
	require.NoError(suite.T(), suite.svc.CreateUser(suite.ctx, "B@x.com", "pw"))
	require.NoError(suite.T(), suite.svc.CreateUser(suite.ctx, "a@x.com", "pw"))

	users, err := suite.svc.ListUsers(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"b@x.com", "a@x.com"}, users)
}

func (suite *ServiceTestSuite) TestVerifyLegacyHash() {
	h := newTestHasher(suite.T())
	_, err := suite.db.CreateUser(suite.ctx, "old@b.com", h.legacyHash("prototype"))
	require.NoError(suite.T(), err)

	ok, err := suite.svc.VerifyUser(suite.ctx, "old@b.com", "prototype")
	require.NoError(suite.T(), err)
	assert.True(suite.T(), ok)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

type failingStore struct{ err error }

func (f failingStore) CreateUser(context.Context, string, string) (*models.User, error) {
	return nil, f.err
}

func (f failingStore) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, f.err
}

func (f failingStore) ListUserEmails(context.Context) ([]string, error) {
	return nil, f.err
}

func TestService_StorageErrorsPropagate(t *testing.T) {
	boom := errors.New("disk I/O error")
	svc := NewService(failingStore{err: boom}, newTestHasher(t))

	err := svc.CreateUser(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, boom)

	ok, err := svc.VerifyUser(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestCheckConfirmation(t *testing.T) {
	assert.NoError(t, CheckConfirmation("pw", "pw"))
	assert.ErrorIs(t, CheckConfirmation("pw", "pW"), models.ErrValidation)
}
