package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user := mustCreateUser(t, svc, "Alice", "tg-1", nil)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "tg-1", user.TgID)
	assert.EqualValues(t, 0, user.Points)
	assert.Len(t, user.ReferralCode, 8)
	assert.Nil(t, user.InvitedBy)
}

func TestCreateUserConflictOnTgID(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	mustCreateUser(t, svc, "Alice", "tg-1", nil)
	_, err := svc.CreateUser(CreateUserParams{Name: "Impostor", TgID: "tg-1"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestCreateUserRequiresNameAndTgID(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	_, err := svc.CreateUser(CreateUserParams{Name: "", TgID: "tg-1"})
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.CreateUser(CreateUserParams{Name: "Alice", TgID: ""})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReferralCodesAreUnique(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	const n = 50
	codes := make(map[string]bool, n)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user, err := svc.CreateUser(CreateUserParams{Name: "User", TgID: tgID(i)})
			if err != nil {
				t.Errorf("create user %d: %v", i, err)
				return
			}
			mu.Lock()
			codes[user.ReferralCode] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, codes, n, "all referral codes must be distinct")
}

func tgID(i int) string {
	return "tg-" + string(rune('a'+i/26)) + string(rune('a'+i%26))
}

func TestInvitedByStoredVerbatim(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	// The attribution tag is descriptive only: a code that resolves to no
	// real user is stored anyway.
	ghost := "deadbeef"
	user := mustCreateUser(t, svc, "Bob", "tg-2", &ghost)
	require.NotNil(t, user.InvitedBy)
	assert.Equal(t, ghost, *user.InvitedBy)
}

func TestGetUserProjection(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	mustCreateUser(t, svc, "Alice", "tg-1", nil)

	user, err := svc.GetUser("tg-1", []string{"tg_id", "points"})
	require.NoError(t, err)
	assert.Equal(t, "tg-1", user.TgID)
	assert.Empty(t, user.Name, "unselected columns stay zero")

	_, err = svc.GetUser("tg-1", []string{"points; DROP TABLE users"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.GetUser("tg-missing", nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUserFieldsAllowList(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	mustCreateUser(t, svc, "Alice", "tg-1", nil)

	updated, err := svc.UpdateUserFields("tg-1", map[string]interface{}{"name": "Alicia"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)

	// System-managed fields are rejected, not silently dropped: this is the
	// guard against point-balance forgery.
	_, err = svc.UpdateUserFields("tg-1", map[string]interface{}{"points": 99999})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.UpdateUserFields("tg-1", map[string]interface{}{"referral_code": "11111111"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.UpdateUserFields("tg-1", map[string]interface{}{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.UpdateUserFields("tg-missing", map[string]interface{}{"name": "X"})
	require.ErrorIs(t, err, ErrNotFound)

	// Nothing leaked through.
	user, err := svc.GetUser("tg-1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, user.Points)
}

func TestReferralAttribution(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	inviter := mustCreateUser(t, svc, "Alice", "tg-1", nil)
	mustCreateUser(t, svc, "Bob", "tg-2", &inviter.ReferralCode)
	mustCreateUser(t, svc, "Carol", "tg-3", &inviter.ReferralCode)
	mustCreateUser(t, svc, "Dave", "tg-4", nil)

	count, err := svc.CountReferrals("tg-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	referred, err := svc.ListReferrals("tg-1")
	require.NoError(t, err)
	require.Len(t, referred, 2)
	names := []string{referred[0].Name, referred[1].Name}
	assert.ElementsMatch(t, []string{"Bob", "Carol"}, names)

	count, err = svc.CountReferrals("tg-4")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	_, err = svc.CountReferrals("tg-missing")
	require.ErrorIs(t, err, ErrNotFound)
}
