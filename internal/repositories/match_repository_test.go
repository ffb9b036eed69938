package repositories

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sbpickleball/match_app/internal/models"
	"github.com/sbpickleball/match_app/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return db, mock
}

func waitingRequestRows(id, owner string) *sqlmock.Rows {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "user_id", "region_id", "match_type", "status", "created_at", "updated_at"}).
		AddRow(id, owner, "region-1", models.MatchTypeSingles, models.RequestStatusWaiting, now, now)
}

func TestAcceptRequest_ConditionalUpdateLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "match_requests" WHERE id = $1`)).
		WillReturnRows(waitingRequestRows("req-1", "owner"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "matches"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "match_participants"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	// Another acceptor flipped the row between our read and our write.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "match_requests" SET "status"=$1,"updated_at"=$2 WHERE id = $3 AND status = $4`)).
		WithArgs(models.RequestStatusMatched, sqlmock.AnyArg(), "req-1", models.RequestStatusWaiting).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	match, msg, err := repo.AcceptRequest(context.Background(), "req-1", "acceptor", "hello")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlreadyTaken, errors.CodeOf(err))
	assert.Nil(t, match)
	assert.Nil(t, msg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptRequest_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "match_requests" WHERE id = $1`)).
		WillReturnRows(waitingRequestRows("req-1", "owner"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "matches"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "match_participants"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "match_requests" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "messages"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	match, msg, err := repo.AcceptRequest(context.Background(), "req-1", "acceptor", "hello")

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, models.MatchStatusActive, match.Status)
	assert.Equal(t, "region-1", match.RegionID)
	require.Len(t, match.Participants, 2)
	assert.Equal(t, "owner", match.Participants[0].UserID)
	assert.Equal(t, models.TeamA, match.Participants[0].Team)
	assert.Equal(t, "acceptor", match.Participants[1].UserID)
	assert.Equal(t, models.TeamB, match.Participants[1].Team)
	assert.Equal(t, match.ID, msg.MatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptRequest_OwnRequest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "match_requests" WHERE id = $1`)).
		WillReturnRows(waitingRequestRows("req-1", "owner"))
	mock.ExpectRollback()

	_, _, err := repo.AcceptRequest(context.Background(), "req-1", "owner", "hello")

	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionRequest_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		existing int64
		want     Outcome
	}{
		{name: "applied", affected: 1, want: OutcomeApplied},
		{name: "conflict", affected: 0, existing: 1, want: OutcomeConflict},
		{name: "not found", affected: 0, existing: 0, want: OutcomeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewMatchRequestRepository(db)

			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "match_requests" SET "status"=$1,"updated_at"=$2 WHERE id = $3 AND status = $4`)).
				WithArgs(models.RequestStatusCancelled, sqlmock.AnyArg(), "req-1", models.RequestStatusWaiting).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.affected == 0 {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "match_requests" WHERE id = $1`)).
					WithArgs("req-1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.existing))
			}

			got, err := repo.TransitionRequest(context.Background(), "req-1", models.RequestStatusWaiting, models.RequestStatusCancelled)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransitionMatch_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		existing int64
		want     Outcome
	}{
		{name: "applied", affected: 1, want: OutcomeApplied},
		{name: "conflict", affected: 0, existing: 1, want: OutcomeConflict},
		{name: "not found", affected: 0, existing: 0, want: OutcomeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewMatchRepository(db)

			mock.ExpectExec(regexp.QuoteMeta(`UPDATE "matches" SET "status"=$1,"updated_at"=$2 WHERE id = $3 AND status = $4`)).
				WithArgs(models.MatchStatusCompleted, sqlmock.AnyArg(), "match-1", models.MatchStatusActive).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.affected == 0 {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "matches" WHERE id = $1`)).
					WithArgs("match-1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.existing))
			}

			got, err := repo.TransitionMatch(context.Background(), "match-1", models.MatchStatusActive, models.MatchStatusCompleted)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTransitionMatch_UnknownStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMatchRepository(db)

	_, err := repo.TransitionMatch(context.Background(), "match-1", models.MatchStatusActive, "finished")

	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	available := false
	nickname := "스매셔"

	tests := []struct {
		name     string
		update   ProfileUpdate
		query    string
		args     []driver.Value
		affected int64
		wantCode string
	}{
		{
			name:     "availability",
			update:   ProfileUpdate{Available: &available},
			query:    `UPDATE "profiles" SET "available"=$1,"updated_at"=$2 WHERE id = $3`,
			args:     []driver.Value{false, sqlmock.AnyArg(), "user-1"},
			affected: 1,
		},
		{
			name:     "nickname",
			update:   ProfileUpdate{Nickname: &nickname},
			query:    `UPDATE "profiles" SET "nickname"=$1,"updated_at"=$2 WHERE id = $3`,
			args:     []driver.Value{nickname, sqlmock.AnyArg(), "user-1"},
			affected: 1,
		},
		{
			name:     "missing profile",
			update:   ProfileUpdate{Available: &available},
			query:    `UPDATE "profiles" SET "available"=$1,"updated_at"=$2 WHERE id = $3`,
			args:     []driver.Value{false, sqlmock.AnyArg(), "user-1"},
			affected: 0,
			wantCode: errors.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewProfileRepository(db)

			mock.ExpectExec(regexp.QuoteMeta(tt.query)).
				WithArgs(tt.args...).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.UpdateProfile(context.Background(), "user-1", tt.update)

			if tt.wantCode == "" {
				require.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nickname"}))

	_, err := repo.GetProfile(context.Background(), "missing")

	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSortParticipationsNewestFirst(t *testing.T) {
	t0 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.MatchParticipant{
		{ID: "p1", Match: &models.Match{ID: "m1", CreatedAt: t0}},
		{ID: "p2"},
		{ID: "p3", Match: &models.Match{ID: "m3", CreatedAt: t0.Add(time.Hour)}},
	}

	SortParticipationsNewestFirst(rows)

	assert.Equal(t, []string{"p3", "p1", "p2"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "applied", OutcomeApplied.String())
	assert.Equal(t, "conflict", OutcomeConflict.String())
	assert.Equal(t, "not_found", OutcomeNotFound.String())
}
