package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/server/models"
	"github.com/kingfluencer/backend/internal/server/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmailChangeService(t *testing.T, db *sql.DB, rm *fakeRepoManager, mail *fakeMailer) *EmailChangeService {
	t.Helper()
	cfg := testConfig()
	return NewEmailChangeService(db, rm, otp.NewEngine(cfg.OTPValidity), mail, cfg, testLogger())
}

func TestEmailChange_FullFlow(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	mail := newFakeMailer()
	s := newEmailChangeService(t, db, rm, mail)

	user := rm.u.get("u1")
	require.NoError(t, s.RequestOldVerification(context.Background(), user))
	oldCode := codeFromMail(t, mail, "a@x.com")

	require.NoError(t, s.ConfirmOldVerification(context.Background(), user, oldCode))
	user = rm.u.get("u1")
	assert.Equal(t, user.EmailChangePhase, models.PhaseOldVerified)

	require.NoError(t, s.RequestNewVerification(context.Background(), user, "b@x.com"))
	user = rm.u.get("u1")
	assert.Equal(t, user.EmailChangePhase, models.PhaseNewChallenge)
	require.NotNil(t, user.PendingEmail)
	assert.Equal(t, *user.PendingEmail, "b@x.com")
	newCode := codeFromMail(t, mail, "b@x.com")

	require.NoError(t, s.ConfirmNewVerification(context.Background(), user, newCode))
	user = rm.u.get("u1")
	assert.Equal(t, user.Email, "b@x.com")
	assert.Equal(t, user.EmailChangePhase, models.PhaseNone)
	assert.Nil(t, user.PendingEmail)
}

func TestRequestNewVerification_RequiresOldVerified(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	s := newEmailChangeService(t, db, rm, newFakeMailer())

	err := s.RequestNewVerification(context.Background(), rm.u.get("u1"), "b@x.com")
	assert.ErrorIs(t, err, common.ErrOldNotVerified)
}

func TestRequestNewVerification_RejectsSameAddress(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	now := time.Now()
	require.NoError(t, rm.u.SetEmailChangeState(context.Background(), "u1", models.PhaseOldVerified, &now, nil))
	s := newEmailChangeService(t, db, rm, newFakeMailer())

	err := s.RequestNewVerification(context.Background(), rm.u.get("u1"), "A@X.com")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRequestNewVerification_RejectsTakenAddress(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"), clientUser("u2", "b@x.com"))
	now := time.Now()
	require.NoError(t, rm.u.SetEmailChangeState(context.Background(), "u1", models.PhaseOldVerified, &now, nil))
	s := newEmailChangeService(t, db, rm, newFakeMailer())

	err := s.RequestNewVerification(context.Background(), rm.u.get("u1"), "b@x.com")
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestRequestNewVerification_DeliveryFailureRestoresOldVerified(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	now := time.Now()
	require.NoError(t, rm.u.SetEmailChangeState(context.Background(), "u1", models.PhaseOldVerified, &now, nil))

	mail := newFakeMailer()
	mail.failTo["b@x.com"] = true
	s := newEmailChangeService(t, db, rm, mail)

	err := s.RequestNewVerification(context.Background(), rm.u.get("u1"), "b@x.com")
	assert.ErrorIs(t, err, common.ErrDependency)

	user := rm.u.get("u1")
	assert.Equal(t, user.EmailChangePhase, models.PhaseOldVerified)
	assert.Nil(t, user.PendingEmail)
	assert.False(t, rm.ch.has("u1", otp.PurposeNewEmail))
}

func TestConfirmNewVerification_RivalSubmissionWinsOnlyOnce(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit() // RequestNewVerification
	mock.ExpectBegin()
	mock.ExpectRollback() // losing confirm

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	now := time.Now()
	require.NoError(t, rm.u.SetEmailChangeState(context.Background(), "u1", models.PhaseOldVerified, &now, nil))

	mail := newFakeMailer()
	s := newEmailChangeService(t, db, rm, mail)

	require.NoError(t, s.RequestNewVerification(context.Background(), rm.u.get("u1"), "b@x.com"))
	code := codeFromMail(t, mail, "b@x.com")
	user := rm.u.get("u1")

	// a rival confirm with the same code consumes the slot between this
	// request's read and its conditional delete
	rm.ch.afterGet = func() {
		require.NoError(t, rm.ch.Delete(context.Background(), "u1", otp.PurposeNewEmail))
	}

	err := s.ConfirmNewVerification(context.Background(), user, code)
	assert.ErrorIs(t, err, common.ErrNoChallenge)
	assert.Equal(t, rm.u.get("u1").Email, "a@x.com", "losing request must not commit the swap")
}

func TestConfirmNewVerification_TakenSinceRequestRejected(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	// u1 wants b@x.com; nobody holds it when the code goes out
	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	now := time.Now()
	require.NoError(t, rm.u.SetEmailChangeState(context.Background(), "u1", models.PhaseOldVerified, &now, nil))

	mail := newFakeMailer()
	s := newEmailChangeService(t, db, rm, mail)
	require.NoError(t, s.RequestNewVerification(context.Background(), rm.u.get("u1"), "b@x.com"))
	code := codeFromMail(t, mail, "b@x.com")

	// someone else takes the address before the confirm
	_, err := rm.u.Create(context.Background(), clientUser("u2", "b@x.com"))
	require.NoError(t, err)

	err = s.ConfirmNewVerification(context.Background(), rm.u.get("u1"), code)
	assert.ErrorIs(t, err, common.ErrConflict)

	user := rm.u.get("u1")
	assert.Equal(t, user.Email, "a@x.com", "address must not change")
}

func TestConfirmNewVerification_ExpiredForcesRestartFromRequestNew(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	now := time.Now()
	require.NoError(t, rm.u.SetEmailChangeState(context.Background(), "u1", models.PhaseOldVerified, &now, nil))

	mail := newFakeMailer()
	s := newEmailChangeService(t, db, rm, mail)
	require.NoError(t, s.RequestNewVerification(context.Background(), rm.u.get("u1"), "b@x.com"))
	code := codeFromMail(t, mail, "b@x.com")

	// age the challenge past its validity
	ch, err := rm.ch.Get(context.Background(), "u1", otp.PurposeNewEmail)
	require.NoError(t, err)
	ch.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, rm.ch.Upsert(context.Background(), "u1", otp.PurposeNewEmail, ch))

	err = s.ConfirmNewVerification(context.Background(), rm.u.get("u1"), code)
	assert.ErrorIs(t, err, common.ErrExpired)

	// old verification survives, only the new-address step restarts
	user := rm.u.get("u1")
	assert.Equal(t, user.EmailChangePhase, models.PhaseOldVerified)
	assert.Nil(t, user.PendingEmail)
	assert.False(t, rm.ch.has("u1", otp.PurposeNewEmail))
}

func TestConfirmOldVerification_NoChallenge(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	s := newEmailChangeService(t, db, rm, newFakeMailer())

	err := s.ConfirmOldVerification(context.Background(), rm.u.get("u1"), "123456")
	assert.ErrorIs(t, err, common.ErrNoChallenge)
}

func TestConfirmNewVerification_WithoutRequestNew(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager(clientUser("u1", "a@x.com"))
	s := newEmailChangeService(t, db, rm, newFakeMailer())

	err := s.ConfirmNewVerification(context.Background(), rm.u.get("u1"), "123456")
	assert.ErrorIs(t, err, common.ErrOldNotVerified)
}
