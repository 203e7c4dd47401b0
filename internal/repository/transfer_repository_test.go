package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/youtrack-attach/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TransferRepositoryTestSuite is the test suite for TransferRepository
type TransferRepositoryTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo TransferRepository
	ctx  context.Context
}

// SetupTest gives every test a fresh in-memory journal
func (s *TransferRepositoryTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	sqlDB, err := db.DB()
	require.NoError(s.T(), err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(s.T(), db.AutoMigrate(&models.Transfer{}))

	s.db = db
	s.repo = NewTransferRepository(db)
	s.ctx = context.Background()
}

// TearDownTest closes the database
func (s *TransferRepositoryTestSuite) TearDownTest() {
	sqlDB, _ := s.db.DB()
	sqlDB.Close()
}

func TestTransferRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TransferRepositoryTestSuite))
}

func (s *TransferRepositoryTestSuite) newTransfer(attachmentID, target string) *models.Transfer {
	return &models.Transfer{
		SourceIssueID:      "SRC-1",
		SourceAttachmentID: attachmentID,
		TargetIssueID:      target,
		Name:               "attachment.txt",
		AuthorLogin:        "root",
	}
}

func (s *TransferRepositoryTestSuite) TestCreate_Success() {
	transfer := s.newTransfer("62-180", "DST-1")

	err := s.repo.Create(s.ctx, transfer)
	s.NoError(err)
	s.NotZero(transfer.ID)
	s.False(transfer.CopiedAt.IsZero())
}

func (s *TransferRepositoryTestSuite) TestCreate_Duplicate() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-180", "DST-1")))

	err := s.repo.Create(s.ctx, s.newTransfer("62-180", "DST-1"))
	s.ErrorIs(err, ErrDuplicateEntry)
}

func (s *TransferRepositoryTestSuite) TestCreate_SameAttachmentDifferentTarget() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-180", "DST-1")))
	s.NoError(s.repo.Create(s.ctx, s.newTransfer("62-180", "DST-2")))
}

func (s *TransferRepositoryTestSuite) TestCreate_InvalidInput() {
	s.ErrorIs(s.repo.Create(s.ctx, s.newTransfer("", "DST-1")), ErrInvalidInput)
	s.ErrorIs(s.repo.Create(s.ctx, s.newTransfer("62-180", "")), ErrInvalidInput)
}

func (s *TransferRepositoryTestSuite) TestExists() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-180", "DST-1")))

	exists, err := s.repo.Exists(s.ctx, "62-180", "DST-1")
	s.NoError(err)
	s.True(exists)

	exists, err = s.repo.Exists(s.ctx, "62-180", "DST-2")
	s.NoError(err)
	s.False(exists)

	exists, err = s.repo.Exists(s.ctx, "62-999", "DST-1")
	s.NoError(err)
	s.False(exists)
}

func (s *TransferRepositoryTestSuite) TestListByTarget() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-180", "DST-1")))
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-181", "DST-1")))
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-182", "DST-2")))

	transfers, err := s.repo.ListByTarget(s.ctx, "DST-1")
	s.NoError(err)
	s.Require().Len(transfers, 2)
	s.Equal("62-180", transfers[0].SourceAttachmentID)
	s.Equal("62-181", transfers[1].SourceAttachmentID)

	transfers, err = s.repo.ListByTarget(s.ctx, "DST-3")
	s.NoError(err)
	s.Empty(transfers)
}

func (s *TransferRepositoryTestSuite) TestDeleteByTarget() {
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-180", "DST-1")))
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-181", "DST-1")))
	s.Require().NoError(s.repo.Create(s.ctx, s.newTransfer("62-182", "DST-2")))

	deleted, err := s.repo.DeleteByTarget(s.ctx, "DST-1")
	s.NoError(err)
	s.Equal(int64(2), deleted)

	exists, err := s.repo.Exists(s.ctx, "62-182", "DST-2")
	s.NoError(err)
	s.True(exists)
}

// ==================== Driver failure Tests ====================

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// GORM pings during initialization
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func TestTransferRepository_CreateMapsPostgresUniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTransferRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "transfers"`).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			Message:        "duplicate key value violates unique constraint",
			ConstraintName: "idx_transfer_source_target",
		})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Transfer{
		SourceIssueID:      "SRC-1",
		SourceAttachmentID: "62-180",
		TargetIssueID:      "DST-1",
	})
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRepository_ExistsPropagatesDriverError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTransferRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "transfers"`).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.Exists(context.Background(), "62-180", "DST-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"translated by gorm", gorm.ErrDuplicatedKey, true},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"postgres not null violation", &pgconn.PgError{Code: "23502"}, false},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, true},
		{"sqlite not null", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, false},
		{"message mentioning duplicate key", errors.New("duplicate key in log message"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateKeyError(tt.err))
		})
	}
}

func TestTransferRepository_CreateDuplicateWithTranslatedErrors(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Transfer{}))

	repo := NewTransferRepository(db)
	transfer := func() *models.Transfer {
		return &models.Transfer{SourceIssueID: "SRC-1", SourceAttachmentID: "62-180", TargetIssueID: "DST-1"}
	}

	require.NoError(t, repo.Create(context.Background(), transfer()))
	assert.ErrorIs(t, repo.Create(context.Background(), transfer()), ErrDuplicateEntry)
}
